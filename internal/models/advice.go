package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AdviceRecord stores tactical-advice history for later review. The request
// is the game summary sent to the generator, the response the structured
// advice that came back.
type AdviceRecord struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	MatchID   *uuid.UUID     `gorm:"type:uuid;index" json:"match_id,omitempty"`
	Player    string         `gorm:"type:varchar(20);not null" json:"player"`
	Request   datatypes.JSON `json:"request"`
	Response  datatypes.JSON `json:"response"`
	Fallback  bool           `json:"fallback"` // raw-text degrade path was taken
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (AdviceRecord) TableName() string {
	return "advice_records"
}

// Credential is a single named secret, e.g. the advice generator API key
type Credential struct {
	Name      string    `gorm:"primaryKey;size:100" json:"name"`
	Value     string    `gorm:"type:text;not null" json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Credential) TableName() string {
	return "credentials"
}
