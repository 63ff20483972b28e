package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mvdberg/squash-tracker/internal/scoring"
)

// SavedMatch is the persisted shape of a match. Deleting a match cascades to
// its games, which cascade to their points and lets; the store performs the
// cascade inside one transaction and the schema carries matching FK
// constraints.
type SavedMatch struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Player1Name    string    `gorm:"not null" json:"player1_name"`
	Player2Name    string    `gorm:"not null" json:"player2_name"`
	StartingServer string    `gorm:"type:varchar(20);not null" json:"starting_server"`
	BestOf         int       `gorm:"not null;default:5" json:"best_of"`
	SavedAt        time.Time `gorm:"not null;index" json:"saved_at"`

	// Associations
	Games []SavedGame `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE" json:"games,omitempty"`
}

// TableName specifies the table name for GORM
func (SavedMatch) TableName() string {
	return "saved_matches"
}

// SavedGame is the persisted shape of one game within a match
type SavedGame struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	MatchID        uuid.UUID `gorm:"type:uuid;not null;index" json:"match_id"`
	GameNumber     int       `gorm:"not null" json:"game_number"`
	Player1Name    string    `gorm:"not null" json:"player1_name"`
	Player2Name    string    `gorm:"not null" json:"player2_name"`
	Player1Score   int       `gorm:"not null" json:"player1_score"`
	Player2Score   int       `gorm:"not null" json:"player2_score"`
	StartingServer string    `gorm:"type:varchar(20);not null" json:"starting_server"`
	Winner         *string   `gorm:"type:varchar(20)" json:"winner,omitempty"`

	// Associations
	Points []SavedPoint `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"points,omitempty"`
	Lets   []SavedLet   `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE" json:"lets,omitempty"`
}

// TableName specifies the table name for GORM
func (SavedGame) TableName() string {
	return "saved_games"
}

// SavedPoint is the persisted shape of one scored rally
type SavedPoint struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	GameID       uuid.UUID `gorm:"type:uuid;not null;index" json:"game_id"`
	PointNumber  int       `gorm:"not null" json:"point_number"`
	Scorer       string    `gorm:"type:varchar(20);not null" json:"scorer"`
	Zone         string    `gorm:"type:varchar(20);not null" json:"zone"`
	ShotType     string    `gorm:"type:varchar(20);not null" json:"shot_type"`
	Server       string    `gorm:"type:varchar(20);not null" json:"server"`
	Player1Score int       `gorm:"not null" json:"player1_score"`
	Player2Score int       `gorm:"not null" json:"player2_score"`
	Timestamp    time.Time `gorm:"not null" json:"timestamp"`
	DurationMs   int64     `gorm:"not null" json:"duration_ms"`
}

// TableName specifies the table name for GORM
func (SavedPoint) TableName() string {
	return "saved_points"
}

// SavedLet is the persisted shape of one replayed rally
type SavedLet struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	GameID       uuid.UUID `gorm:"type:uuid;not null;index" json:"game_id"`
	LetNumber    int       `gorm:"not null" json:"let_number"`
	RequestedBy  string    `gorm:"type:varchar(20);not null" json:"requested_by"`
	Server       string    `gorm:"type:varchar(20);not null" json:"server"`
	Player1Score int       `gorm:"not null" json:"player1_score"`
	Player2Score int       `gorm:"not null" json:"player2_score"`
	Timestamp    time.Time `gorm:"not null" json:"timestamp"`
}

// TableName specifies the table name for GORM
func (SavedLet) TableName() string {
	return "saved_lets"
}

// GamesWon counts persisted games won by a player
func (m *SavedMatch) GamesWon(p scoring.Player) int {
	n := 0
	for _, g := range m.Games {
		if g.Winner != nil && *g.Winner == string(p) {
			n++
		}
	}
	return n
}

// GamesToWin returns how many game wins take the match
func (m *SavedMatch) GamesToWin() int {
	return m.BestOf/2 + 1
}

// IsMatchOver reports whether either player reached the games-to-win
// threshold
func (m *SavedMatch) IsMatchOver() bool {
	need := m.GamesToWin()
	return m.GamesWon(scoring.Player1) >= need || m.GamesWon(scoring.Player2) >= need
}

// MatchWinner returns the winning player of a finished match
func (m *SavedMatch) MatchWinner() (scoring.Player, bool) {
	if !m.IsMatchOver() {
		return "", false
	}
	if m.GamesWon(scoring.Player1) > m.GamesWon(scoring.Player2) {
		return scoring.Player1, true
	}
	return scoring.Player2, true
}

// WinnerName returns the display name of the match winner, empty while the
// match is unfinished
func (m *SavedMatch) WinnerName() string {
	w, ok := m.MatchWinner()
	if !ok {
		return ""
	}
	if w == scoring.Player1 {
		return m.Player1Name
	}
	return m.Player2Name
}

// ScoreString formats the games tally, e.g. "3 - 1"
func (m *SavedMatch) ScoreString() string {
	return fmt.Sprintf("%d - %d", m.GamesWon(scoring.Player1), m.GamesWon(scoring.Player2))
}

// ScoreString formats the game score, e.g. "11 - 7"
func (g *SavedGame) ScoreString() string {
	return fmt.Sprintf("%d - %d", g.Player1Score, g.Player2Score)
}

// FromMatch converts a live match into its persisted shape. Identifiers are
// assigned here so the same graph inserts cleanly on any database.
func FromMatch(m *scoring.Match, savedAt time.Time) *SavedMatch {
	saved := &SavedMatch{
		ID:             uuid.New(),
		Player1Name:    m.Player1Name,
		Player2Name:    m.Player2Name,
		StartingServer: string(m.StartingServer),
		BestOf:         m.BestOf,
		SavedAt:        savedAt.UTC(),
	}
	for i, g := range m.Games {
		saved.Games = append(saved.Games, fromGame(g, saved.ID, i+1))
	}
	return saved
}

func fromGame(g *scoring.Game, matchID uuid.UUID, gameNumber int) SavedGame {
	sg := SavedGame{
		ID:             uuid.New(),
		MatchID:        matchID,
		GameNumber:     gameNumber,
		Player1Name:    g.Player1Name,
		Player2Name:    g.Player2Name,
		Player1Score:   g.Player1Score,
		Player2Score:   g.Player2Score,
		StartingServer: string(g.StartingServer),
	}
	if w, ok := g.Winner(); ok {
		winner := string(w)
		sg.Winner = &winner
	}
	for i, pt := range g.Points {
		sg.Points = append(sg.Points, SavedPoint{
			ID:           pt.ID,
			GameID:       sg.ID,
			PointNumber:  i + 1,
			Scorer:       string(pt.Scorer),
			Zone:         string(pt.Zone),
			ShotType:     string(pt.ShotType),
			Server:       string(pt.Server),
			Player1Score: pt.Player1Score,
			Player2Score: pt.Player2Score,
			Timestamp:    pt.Timestamp,
			DurationMs:   pt.Duration.Milliseconds(),
		})
	}
	for i, l := range g.Lets {
		sg.Lets = append(sg.Lets, SavedLet{
			ID:           l.ID,
			GameID:       sg.ID,
			LetNumber:    i + 1,
			RequestedBy:  string(l.RequestedBy),
			Server:       string(l.Server),
			Player1Score: l.Player1Score,
			Player2Score: l.Player2Score,
			Timestamp:    l.Timestamp,
		})
	}
	return sg
}

// ToGame rebuilds a live game from this record so the analytics queries can
// run over saved history
func (g *SavedGame) ToGame(clock scoring.Clock) *scoring.Game {
	points := make([]scoring.Point, 0, len(g.Points))
	for _, sp := range g.Points {
		scorer, _ := scoring.ParsePlayer(sp.Scorer)
		zone, _ := scoring.ParseZone(sp.Zone)
		shot, _ := scoring.ParseShotType(sp.ShotType)
		server, _ := scoring.ParsePlayer(sp.Server)
		points = append(points, scoring.Point{
			ID:           sp.ID,
			Scorer:       scorer,
			Zone:         zone,
			ShotType:     shot,
			Server:       server,
			Player1Score: sp.Player1Score,
			Player2Score: sp.Player2Score,
			Timestamp:    sp.Timestamp,
			Duration:     time.Duration(sp.DurationMs) * time.Millisecond,
		})
	}

	lets := make([]scoring.Let, 0, len(g.Lets))
	for _, sl := range g.Lets {
		requestedBy, _ := scoring.ParsePlayer(sl.RequestedBy)
		server, _ := scoring.ParsePlayer(sl.Server)
		lets = append(lets, scoring.Let{
			ID:           sl.ID,
			RequestedBy:  requestedBy,
			Server:       server,
			Player1Score: sl.Player1Score,
			Player2Score: sl.Player2Score,
			Timestamp:    sl.Timestamp,
		})
	}

	server, _ := scoring.ParsePlayer(g.StartingServer)
	return scoring.RestoreGame(clock, g.Player1Name, g.Player2Name, server,
		g.Player1Score, g.Player2Score, points, lets)
}

// ToMatch rebuilds a live match, games included, from this record
func (m *SavedMatch) ToMatch(clock scoring.Clock) *scoring.Match {
	match := scoring.NewMatch(clock)
	match.Player1Name = m.Player1Name
	match.Player2Name = m.Player2Name
	server, _ := scoring.ParsePlayer(m.StartingServer)
	match.StartingServer = server
	match.BestOf = m.BestOf

	games := make([]*scoring.Game, 0, len(m.Games))
	for _, sg := range m.Games {
		games = append(games, sg.ToGame(clock))
	}
	if len(games) > 0 {
		match.Games = games
		match.CurrentGameIndex = len(games) - 1
	}
	return match
}
