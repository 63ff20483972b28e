package services

import (
	"sync"

	"github.com/mvdberg/squash-tracker/internal/scoring"
	"github.com/mvdberg/squash-tracker/internal/ws"
)

// SelectionStep names the phase of the point entry workflow.
type SelectionStep string

const (
	StepSelectPlayer SelectionStep = "select_player"
	StepSelectZone   SelectionStep = "select_zone"
	StepSelectShot   SelectionStep = "select_shot"
)

// SessionState is the snapshot broadcast to scoreboards after every
// state change.
type SessionState struct {
	Player1Name      string        `json:"player1_name"`
	Player2Name      string        `json:"player2_name"`
	Player1Score     int           `json:"player1_score"`
	Player2Score     int           `json:"player2_score"`
	CurrentServer    string        `json:"current_server"`
	CurrentGame      int           `json:"current_game"`
	Player1Games     int           `json:"player1_games"`
	Player2Games     int           `json:"player2_games"`
	BestOf           int           `json:"best_of"`
	GameOver         bool          `json:"game_over"`
	GameWinner       string        `json:"game_winner,omitempty"`
	MatchOver        bool          `json:"match_over"`
	MatchWinner      string        `json:"match_winner,omitempty"`
	CanUndo          bool          `json:"can_undo"`
	Step             SelectionStep `json:"step"`
	SelectedPlayer   string        `json:"selected_player,omitempty"`
	SelectedZone     string        `json:"selected_zone,omitempty"`
	PointsPlayed     int           `json:"points_played"`
	LetsRequested    int           `json:"lets_requested"`
	TotalPointsMatch int           `json:"total_points_match"`
}

// MatchSession owns the live match. All mutations go through the
// session mutex, so the scoring core never sees concurrent access.
type MatchSession struct {
	mu    sync.Mutex
	match *scoring.Match
	clock scoring.Clock
	hub   *ws.Hub
}

func NewMatchSession(clock scoring.Clock, hub *ws.Hub) *MatchSession {
	if clock == nil {
		clock = scoring.SystemClock()
	}
	return &MatchSession{
		match: scoring.NewMatch(clock),
		clock: clock,
		hub:   hub,
	}
}

// Setup starts a fresh match with the given names and first server.
func (s *MatchSession) Setup(player1, player2 string, startingServer scoring.Player, bestOf int) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match = scoring.NewMatch(s.clock)
	if bestOf > 0 {
		s.match.BestOf = bestOf
	}
	s.match.SetupMatch(player1, player2, startingServer)
	return s.changed("match_setup")
}

// Replace swaps in a match loaded from storage.
func (s *MatchSession) Replace(match *scoring.Match) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match = match
	return s.changed("match_loaded")
}

func (s *MatchSession) SelectPlayer(p scoring.Player) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match.CurrentGame().SelectPlayer(p)
	return s.changed("selection")
}

func (s *MatchSession) SelectZone(z scoring.CourtZone) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match.CurrentGame().SelectZone(z)
	return s.changed("selection")
}

func (s *MatchSession) GoBackStep() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match.CurrentGame().GoBackStep()
	return s.changed("selection")
}

func (s *MatchSession) ClearSelection() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match.CurrentGame().ClearSelection()
	return s.changed("selection")
}

func (s *MatchSession) AddPoint(shot scoring.ShotType) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match.CurrentGame().AddPoint(shot)
	return s.changed("point")
}

func (s *MatchSession) UndoLastPoint() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match.CurrentGame().UndoLastPoint()
	return s.changed("undo")
}

func (s *MatchSession) AddLet(requestedBy scoring.Player) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match.CurrentGame().AddLet(requestedBy)
	return s.changed("let")
}

func (s *MatchSession) UndoLastLet() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match.CurrentGame().UndoLastLet()
	return s.changed("undo")
}

// NextGame moves to the next game once the current one is decided.
func (s *MatchSession) NextGame() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match.OnGameEnd()
	return s.changed("game_end")
}

func (s *MatchSession) ResetGame() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match.CurrentGame().Reset()
	return s.changed("reset")
}

func (s *MatchSession) ResetMatch() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.match.ResetMatch()
	return s.changed("reset")
}

// State returns the current snapshot without broadcasting.
func (s *MatchSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Read runs fn against the live match under the session lock. The
// analytics handlers use it so reads see a consistent match.
func (s *MatchSession) Read(fn func(*scoring.Match)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.match)
}

// changed must be called with the lock held.
func (s *MatchSession) changed(event string) SessionState {
	state := s.snapshot()
	if s.hub != nil {
		s.hub.Broadcast(event, state)
	}
	return state
}

func (s *MatchSession) snapshot() SessionState {
	game := s.match.CurrentGame()

	state := SessionState{
		Player1Name:      s.match.Player1Name,
		Player2Name:      s.match.Player2Name,
		Player1Score:     game.Player1Score,
		Player2Score:     game.Player2Score,
		CurrentServer:    string(game.CurrentServer),
		CurrentGame:      s.match.CurrentGameIndex + 1,
		Player1Games:     s.match.GamesWon(scoring.Player1),
		Player2Games:     s.match.GamesWon(scoring.Player2),
		BestOf:           s.match.BestOf,
		GameOver:         game.IsOver(),
		MatchOver:        s.match.IsOver(),
		CanUndo:          game.CanUndo(),
		Step:             StepSelectPlayer,
		PointsPlayed:     len(game.Points),
		LetsRequested:    len(game.Lets),
		TotalPointsMatch: len(s.match.AllPoints()),
	}

	if w, ok := game.Winner(); ok {
		state.GameWinner = string(w)
	}
	if w, ok := s.match.Winner(); ok {
		state.MatchWinner = string(w)
	}
	if p, ok := game.SelectedPlayer(); ok {
		state.SelectedPlayer = string(p)
		state.Step = StepSelectZone
		if z, ok := game.SelectedZone(); ok {
			state.SelectedZone = string(z)
			state.Step = StepSelectShot
		}
	}

	return state
}
