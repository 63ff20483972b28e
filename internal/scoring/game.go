package scoring

import (
	"time"

	"github.com/google/uuid"
)

// Default display names used when no player names are configured
const (
	DefaultPlayer1Name = "Player 1"
	DefaultPlayer2Name = "Player 2"
)

// WinningScore is the target score for a game; a game is won at 11 with a
// two point margin.
const WinningScore = 11

// Game is the mutable aggregate for a single game: the running score, the
// point and let logs, the serve state and the in-progress scoring selection.
//
// Scoring is a three step workflow: SelectPlayer, then SelectZone, then
// AddPoint with a shot type. The current step is derived from which
// selections are set, never stored explicitly.
//
// Invalid calls (scoring on a finished game, selecting a zone with no player
// chosen, undoing an empty log) are deliberately silent no-ops; callers
// observe them only as unchanged state.
type Game struct {
	Player1Name string
	Player2Name string

	Player1Score int
	Player2Score int

	CurrentServer  Player
	StartingServer Player

	// Points holds every rally won in this game, in order.
	Points []Point
	// Lets holds every let called in this game, in order.
	Lets []Let

	selectedPlayer  Player
	hasPlayerSelect bool
	selectedZone    CourtZone
	hasZoneSelect   bool

	// lastPointTime anchors the rally timer: the next point's duration is
	// measured from here, and a let resets it without touching the score.
	lastPointTime time.Time

	// Shadow undo stacks, one entry pushed per AddPoint. Popping them
	// restores exactly the state AddPoint mutated besides the score.
	prevServers    []Player
	prevPointTimes []time.Time

	clock Clock
}

// NewGame creates a blank game served first by Player1
func NewGame(clock Clock) *Game {
	if clock == nil {
		clock = SystemClock()
	}
	return &Game{
		Player1Name:    DefaultPlayer1Name,
		Player2Name:    DefaultPlayer2Name,
		CurrentServer:  Player1,
		StartingServer: Player1,
		lastPointTime:  clock.Now(),
		clock:          clock,
	}
}

// RestoreGame rebuilds a game from previously recorded plain data, for
// replaying a saved game into the analytics queries. The selection workflow
// and undo stacks start empty; the rally timer restarts from now.
func RestoreGame(clock Clock, player1Name, player2Name string, startingServer Player, player1Score, player2Score int, points []Point, lets []Let) *Game {
	g := NewGame(clock)
	g.SetNames(player1Name, player2Name)
	g.SetStartingServer(startingServer)
	g.Player1Score = player1Score
	g.Player2Score = player2Score
	g.Points = points
	g.Lets = lets
	return g
}

// IsOver reports whether the game has been won: 11 or more points with a
// margin of at least two.
func (g *Game) IsOver() bool {
	hi, lo := g.Player1Score, g.Player2Score
	if lo > hi {
		hi, lo = lo, hi
	}
	return hi >= WinningScore && hi-lo >= 2
}

// Winner returns the winning player once the game is over
func (g *Game) Winner() (Player, bool) {
	if !g.IsOver() {
		return "", false
	}
	if g.Player1Score > g.Player2Score {
		return Player1, true
	}
	return Player2, true
}

// CanUndo reports whether there is a point to undo
func (g *Game) CanUndo() bool {
	return len(g.Points) > 0
}

// LastPoint returns the most recently scored point
func (g *Game) LastPoint() (Point, bool) {
	if len(g.Points) == 0 {
		return Point{}, false
	}
	return g.Points[len(g.Points)-1], true
}

// Score returns the current score for a player
func (g *Game) Score(p Player) int {
	if p == Player1 {
		return g.Player1Score
	}
	return g.Player2Score
}

// Name returns the display name for a player
func (g *Game) Name(p Player) string {
	if p == Player1 {
		return g.Player1Name
	}
	return g.Player2Name
}

// SetNames configures both display names
func (g *Game) SetNames(player1, player2 string) {
	g.Player1Name = player1
	g.Player2Name = player2
}

// SetStartingServer fixes the starting server and makes them the current
// server. Meant to be called before play starts; Reset returns service to
// this player.
func (g *Game) SetStartingServer(p Player) {
	g.StartingServer = p
	g.CurrentServer = p
}

// SelectedPlayer returns the pending scorer selection, if any
func (g *Game) SelectedPlayer() (Player, bool) {
	return g.selectedPlayer, g.hasPlayerSelect
}

// SelectedZone returns the pending zone selection, if any
func (g *Game) SelectedZone() (CourtZone, bool) {
	return g.selectedZone, g.hasZoneSelect
}

// SelectPlayer starts the scoring workflow by choosing who won the rally.
// Any previously selected zone is discarded. No-op once the game is over.
func (g *Game) SelectPlayer(p Player) {
	if g.IsOver() || !p.IsValid() {
		return
	}
	g.selectedPlayer = p
	g.hasPlayerSelect = true
	g.hasZoneSelect = false
}

// SelectZone records where the rally was won. No-op unless a player has
// already been selected.
func (g *Game) SelectZone(z CourtZone) {
	if !g.hasPlayerSelect || !z.IsValid() {
		return
	}
	g.selectedZone = z
	g.hasZoneSelect = true
}

// GoBackStep steps the selection workflow back one stage: a selected zone is
// cleared first, then a selected player. No-op with nothing selected.
func (g *Game) GoBackStep() {
	if g.hasZoneSelect {
		g.hasZoneSelect = false
		return
	}
	g.hasPlayerSelect = false
}

// ClearSelection abandons the in-progress scoring workflow entirely
func (g *Game) ClearSelection() {
	g.hasPlayerSelect = false
	g.hasZoneSelect = false
}

// AddPoint completes the scoring workflow with the winning shot type. The
// pending player and zone selections identify the rally; both must be set.
// Service passes to the scorer only when the scorer was receiving. No-op if
// the game is already over or the workflow is incomplete.
func (g *Game) AddPoint(shot ShotType) {
	if g.IsOver() || !g.hasPlayerSelect || !g.hasZoneSelect || !shot.IsValid() {
		return
	}

	now := g.clock.Now()
	duration := now.Sub(g.lastPointTime)

	g.prevServers = append(g.prevServers, g.CurrentServer)
	g.prevPointTimes = append(g.prevPointTimes, g.lastPointTime)

	scorer := g.selectedPlayer
	if scorer == Player1 {
		g.Player1Score++
	} else {
		g.Player2Score++
	}

	g.Points = append(g.Points, Point{
		ID:           uuid.New(),
		Scorer:       scorer,
		Zone:         g.selectedZone,
		ShotType:     shot,
		Server:       g.CurrentServer,
		Player1Score: g.Player1Score,
		Player2Score: g.Player2Score,
		Timestamp:    now,
		Duration:     duration,
	})

	g.lastPointTime = now

	if scorer != g.CurrentServer {
		g.CurrentServer = scorer
	}

	g.ClearSelection()
}

// UndoLastPoint exactly inverts the most recent AddPoint: the point is
// removed, the scorer's point is taken back, and the server and rally timer
// anchor are restored to their pre-point values. Lets are unaffected.
func (g *Game) UndoLastPoint() {
	if len(g.Points) == 0 {
		return
	}

	last := g.Points[len(g.Points)-1]
	g.Points = g.Points[:len(g.Points)-1]

	if last.Scorer == Player1 {
		g.Player1Score--
	} else {
		g.Player2Score--
	}

	if n := len(g.prevServers); n > 0 {
		g.CurrentServer = g.prevServers[n-1]
		g.prevServers = g.prevServers[:n-1]
	}
	if n := len(g.prevPointTimes); n > 0 {
		g.lastPointTime = g.prevPointTimes[n-1]
		g.prevPointTimes = g.prevPointTimes[:n-1]
	}

	g.ClearSelection()
}

// AddLet records a replayed rally. The score and server are untouched; the
// rally timer restarts so the replay's duration is measured from the let.
func (g *Game) AddLet(requestedBy Player) {
	if !requestedBy.IsValid() {
		return
	}

	now := g.clock.Now()
	g.Lets = append(g.Lets, Let{
		ID:           uuid.New(),
		RequestedBy:  requestedBy,
		Server:       g.CurrentServer,
		Player1Score: g.Player1Score,
		Player2Score: g.Player2Score,
		Timestamp:    now,
	})
	g.lastPointTime = now
	g.ClearSelection()
}

// UndoLastLet removes the most recent let with no other side effects
func (g *Game) UndoLastLet() {
	if len(g.Lets) == 0 {
		return
	}
	g.Lets = g.Lets[:len(g.Lets)-1]
}

// Reset returns the game to its blank state, with service back at the
// starting server and the rally timer restarted.
func (g *Game) Reset() {
	g.Player1Score = 0
	g.Player2Score = 0
	g.CurrentServer = g.StartingServer
	g.Points = nil
	g.Lets = nil
	g.prevServers = nil
	g.prevPointTimes = nil
	g.lastPointTime = g.clock.Now()
	g.ClearSelection()
}
