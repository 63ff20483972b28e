package scoring

import (
	"time"

	"github.com/google/uuid"
)

// Point records one completed rally. Points are created only by
// Game.AddPoint and never mutated afterwards; undo removes the most recent
// one from the log.
type Point struct {
	ID           uuid.UUID     `json:"id"`
	Scorer       Player        `json:"scorer"`
	Zone         CourtZone     `json:"zone"`
	ShotType     ShotType      `json:"shot_type"`
	Server       Player        `json:"server"`
	Player1Score int           `json:"player1_score"`
	Player2Score int           `json:"player2_score"`
	Timestamp    time.Time     `json:"timestamp"`
	Duration     time.Duration `json:"duration"`
}

// Let records one replayed rally. Lets never affect the score, the server,
// or point numbering.
type Let struct {
	ID           uuid.UUID `json:"id"`
	RequestedBy  Player    `json:"requested_by"`
	Server       Player    `json:"server"`
	Player1Score int       `json:"player1_score"`
	Player2Score int       `json:"player2_score"`
	Timestamp    time.Time `json:"timestamp"`
}
