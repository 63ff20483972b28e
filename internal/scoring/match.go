package scoring

import (
	"strings"
	"time"
)

// DefaultBestOf is the standard match format: best of five games
const DefaultBestOf = 5

// Match owns an ordered sequence of games and the best-of-N completion
// logic. Games are started through the match so that player names carry over
// and the previous game's winner serves first in the next one.
type Match struct {
	Player1Name string
	Player2Name string

	Games            []*Game
	CurrentGameIndex int

	// StartingServer serves first in game one; later games are served first
	// by the previous game's winner.
	StartingServer Player

	BestOf int

	clock Clock
}

// NewMatch creates a best-of-five match with the first game ready to play
func NewMatch(clock Clock) *Match {
	if clock == nil {
		clock = SystemClock()
	}
	m := &Match{
		Player1Name:    DefaultPlayer1Name,
		Player2Name:    DefaultPlayer2Name,
		StartingServer: Player1,
		BestOf:         DefaultBestOf,
		clock:          clock,
	}
	m.StartNewGame()
	return m
}

// GamesToWin returns how many game wins take the match
func (m *Match) GamesToWin() int {
	return m.BestOf/2 + 1
}

// CurrentGame returns the game currently being played
func (m *Match) CurrentGame() *Game {
	return m.Games[m.CurrentGameIndex]
}

// GamesWon counts completed games won by a player
func (m *Match) GamesWon(p Player) int {
	n := 0
	for _, g := range m.Games {
		if w, ok := g.Winner(); ok && w == p {
			n++
		}
	}
	return n
}

// CompletedGames returns every finished game in order
func (m *Match) CompletedGames() []*Game {
	var done []*Game
	for _, g := range m.Games {
		if g.IsOver() {
			done = append(done, g)
		}
	}
	return done
}

// IsOver reports whether either player has won enough games
func (m *Match) IsOver() bool {
	need := m.GamesToWin()
	return m.GamesWon(Player1) >= need || m.GamesWon(Player2) >= need
}

// Winner returns the match winner once the match is over
func (m *Match) Winner() (Player, bool) {
	if !m.IsOver() {
		return "", false
	}
	if m.GamesWon(Player1) > m.GamesWon(Player2) {
		return Player1, true
	}
	return Player2, true
}

// Name returns the display name for a player
func (m *Match) Name(p Player) string {
	if p == Player1 {
		return m.Player1Name
	}
	return m.Player2Name
}

// StartNewGame appends a fresh game and makes it current. The winner of the
// previous game serves first; for the first game the match's configured
// starting server does.
func (m *Match) StartNewGame() {
	g := NewGame(m.clock)
	g.SetNames(m.Player1Name, m.Player2Name)

	server := m.StartingServer
	if len(m.Games) > 0 {
		if w, ok := m.Games[len(m.Games)-1].Winner(); ok {
			server = w
		}
	}
	g.SetStartingServer(server)

	m.Games = append(m.Games, g)
	m.CurrentGameIndex = len(m.Games) - 1
}

// OnGameEnd moves the match on after the current game finishes: the next
// game is started unless the match is over. A finished match stays as it is;
// the caller sets up a new match to play again.
func (m *Match) OnGameEnd() {
	if !m.IsOver() {
		m.StartNewGame()
	}
}

// ResetMatch discards every game and starts over from game one
func (m *Match) ResetMatch() {
	m.Games = nil
	m.CurrentGameIndex = 0
	m.StartNewGame()
}

// SetupMatch configures names and the first server, then resets. Blank names
// fall back to the defaults.
func (m *Match) SetupMatch(player1, player2 string, startingServer Player) {
	if strings.TrimSpace(player1) == "" {
		player1 = DefaultPlayer1Name
	}
	if strings.TrimSpace(player2) == "" {
		player2 = DefaultPlayer2Name
	}
	m.Player1Name = player1
	m.Player2Name = player2
	if startingServer.IsValid() {
		m.StartingServer = startingServer
	}
	m.ResetMatch()
}

// AllPoints concatenates every game's point log, in match order
func (m *Match) AllPoints() []Point {
	var points []Point
	for _, g := range m.Games {
		points = append(points, g.Points...)
	}
	return points
}

// AllLets concatenates every game's let log, in match order
func (m *Match) AllLets() []Let {
	var lets []Let
	for _, g := range m.Games {
		lets = append(lets, g.Lets...)
	}
	return lets
}

// TotalPointsWon counts points won by a player across all games
func (m *Match) TotalPointsWon(p Player) int {
	n := 0
	for _, g := range m.Games {
		n += len(g.PointsWon(p))
	}
	return n
}

// TotalPointsWonInZone counts points won by a player in a zone across all
// games
func (m *Match) TotalPointsWonInZone(p Player, z CourtZone) int {
	n := 0
	for _, g := range m.Games {
		n += g.PointsWonInZone(p, z)
	}
	return n
}

// TotalPointsWonWithShot counts points won by a player with a shot type
// across all games
func (m *Match) TotalPointsWonWithShot(p Player, s ShotType) int {
	n := 0
	for _, g := range m.Games {
		n += g.PointsWonWithShot(p, s)
	}
	return n
}

// BestZone returns the zone where a player has won the most points across
// the match, first in declaration order on ties
func (m *Match) BestZone(p Player) (CourtZone, bool) {
	return maxZone(func(z CourtZone) int { return m.TotalPointsWonInZone(p, z) })
}

// MostEffectiveShot returns the shot a player has won the most points with
// across the match, first in declaration order on ties
func (m *Match) MostEffectiveShot(p Player) (ShotType, bool) {
	best := AllShotTypes[0]
	bestCount := 0
	for _, s := range AllShotTypes {
		if n := m.TotalPointsWonWithShot(p, s); n > bestCount {
			best, bestCount = s, n
		}
	}
	return best, bestCount > 0
}

// AverageDurationWon returns the mean rally duration of points a player won
// across the match
func (m *Match) AverageDurationWon(p Player) (time.Duration, bool) {
	return averageDuration(filterByScorer(m.AllPoints(), p))
}

// AverageDurationLost returns the mean rally duration of points a player
// lost across the match
func (m *Match) AverageDurationLost(p Player) (time.Duration, bool) {
	return averageDuration(filterByScorer(m.AllPoints(), p.Opponent()))
}

// AveragePointDuration returns the mean rally duration over the whole match
func (m *Match) AveragePointDuration() (time.Duration, bool) {
	return averageDuration(m.AllPoints())
}

// TotalDuration sums every rally duration in the match
func (m *Match) TotalDuration() time.Duration {
	var total time.Duration
	for _, pt := range m.AllPoints() {
		total += pt.Duration
	}
	return total
}

// ShortRallyWinPercentage returns a player's win rate on match rallies below
// the median-split threshold
func (m *Match) ShortRallyWinPercentage(p Player) (float64, bool) {
	return rallyWinPercentage(m.AllPoints(), p, true)
}

// LongRallyWinPercentage returns a player's win rate on match rallies at or
// above the median-split threshold
func (m *Match) LongRallyWinPercentage(p Player) (float64, bool) {
	return rallyWinPercentage(m.AllPoints(), p, false)
}

// LetsRequested returns every let a player called across the match
func (m *Match) LetsRequested(p Player) []Let {
	var lets []Let
	for _, l := range m.AllLets() {
		if l.RequestedBy == p {
			lets = append(lets, l)
		}
	}
	return lets
}

// TotalLets counts every let called in the match
func (m *Match) TotalLets() int {
	n := 0
	for _, g := range m.Games {
		n += len(g.Lets)
	}
	return n
}

func filterByScorer(points []Point, p Player) []Point {
	var out []Point
	for _, pt := range points {
		if pt.Scorer == p {
			out = append(out, pt)
		}
	}
	return out
}
