package scoring

// Player identifies one of the two players in a match
type Player string

const (
	Player1 Player = "player1"
	Player2 Player = "player2"
)

// Players lists both players in fixed declaration order
var Players = []Player{Player1, Player2}

// Opponent returns the other player
func (p Player) Opponent() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// ShortName returns a compact display code for scoreboard labels
func (p Player) ShortName() string {
	if p == Player1 {
		return "P1"
	}
	return "P2"
}

// IsValid reports whether p is one of the two known players
func (p Player) IsValid() bool {
	return p == Player1 || p == Player2
}

// ParsePlayer converts a string value (e.g. from a request body or a
// persisted record) back into a Player
func ParsePlayer(s string) (Player, bool) {
	p := Player(s)
	return p, p.IsValid()
}
