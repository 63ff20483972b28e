package scoring

import (
	"sort"
	"time"
)

// Analytics over the point and let logs. Every query here is a pure read;
// none of them mutate game state.

// PointsWon returns every point won by a player, in order
func (g *Game) PointsWon(p Player) []Point {
	var won []Point
	for _, pt := range g.Points {
		if pt.Scorer == p {
			won = append(won, pt)
		}
	}
	return won
}

// PointsLost returns every point lost by a player (won by the opponent)
func (g *Game) PointsLost(p Player) []Point {
	return g.PointsWon(p.Opponent())
}

// PointsWonInZone counts points won by a player in a specific zone
func (g *Game) PointsWonInZone(p Player, z CourtZone) int {
	n := 0
	for _, pt := range g.Points {
		if pt.Scorer == p && pt.Zone == z {
			n++
		}
	}
	return n
}

// PointsWonWithShot counts points won by a player with a specific shot type
func (g *Game) PointsWonWithShot(p Player, s ShotType) int {
	n := 0
	for _, pt := range g.Points {
		if pt.Scorer == p && pt.ShotType == s {
			n++
		}
	}
	return n
}

// TotalPointsInZone counts every point played in a zone, regardless of who
// won it
func (g *Game) TotalPointsInZone(z CourtZone) int {
	n := 0
	for _, pt := range g.Points {
		if pt.Zone == z {
			n++
		}
	}
	return n
}

// WinPercentage returns a player's win rate in a zone as a percentage.
// Returns 0 when no points were played there.
func (g *Game) WinPercentage(p Player, z CourtZone) float64 {
	won := g.PointsWonInZone(p, z)
	lost := g.PointsWonInZone(p.Opponent(), z)
	total := won + lost
	if total == 0 {
		return 0
	}
	return float64(won) / float64(total) * 100
}

// BestZone returns the zone where a player has won the most points. Ties go
// to the first zone in declaration order. False when the player has not won
// a point yet.
func (g *Game) BestZone(p Player) (CourtZone, bool) {
	return maxZone(func(z CourtZone) int { return g.PointsWonInZone(p, z) })
}

// WorstZone returns the zone where the opponent scores most against a
// player. Ties go to the first zone in declaration order. False when the
// opponent has not won a point yet.
func (g *Game) WorstZone(p Player) (CourtZone, bool) {
	return g.BestZone(p.Opponent())
}

// BestShotType returns the shot a player has won the most points with. Ties
// go to the first shot type in declaration order. False when the player has
// not won a point yet.
func (g *Game) BestShotType(p Player) (ShotType, bool) {
	best := AllShotTypes[0]
	bestCount := 0
	for _, s := range AllShotTypes {
		if n := g.PointsWonWithShot(p, s); n > bestCount {
			best, bestCount = s, n
		}
	}
	return best, bestCount > 0
}

// RecommendedZones returns up to three zones to target when playing against
// a player: the zones where they concede the most points, most conceded
// first. Zones where they have conceded nothing are excluded.
func (g *Game) RecommendedZones(against Player) []CourtZone {
	type zoneLosses struct {
		zone   CourtZone
		losses int
	}

	var ranked []zoneLosses
	for _, z := range AllZones {
		if n := g.PointsWonInZone(against.Opponent(), z); n > 0 {
			ranked = append(ranked, zoneLosses{zone: z, losses: n})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].losses > ranked[j].losses
	})

	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	zones := make([]CourtZone, 0, len(ranked))
	for _, zl := range ranked {
		zones = append(zones, zl.zone)
	}
	return zones
}

// AverageDurationWon returns the mean rally duration of points won by a
// player. False when they have not won a point.
func (g *Game) AverageDurationWon(p Player) (time.Duration, bool) {
	return averageDuration(g.PointsWon(p))
}

// AverageDurationLost returns the mean rally duration of points lost by a
// player. False when they have not lost a point.
func (g *Game) AverageDurationLost(p Player) (time.Duration, bool) {
	return averageDuration(g.PointsLost(p))
}

// AveragePointDuration returns the mean rally duration over every point in
// the game. False when no points have been played.
func (g *Game) AveragePointDuration() (time.Duration, bool) {
	return averageDuration(g.Points)
}

// TotalDuration sums every rally duration in the game
func (g *Game) TotalDuration() time.Duration {
	var total time.Duration
	for _, pt := range g.Points {
		total += pt.Duration
	}
	return total
}

// LongestPoint returns the longest rally; the first one recorded wins ties.
// False when no points have been played.
func (g *Game) LongestPoint() (Point, bool) {
	return extremePoint(g.Points, func(a, b time.Duration) bool { return a > b })
}

// ShortestPoint returns the shortest rally; the first one recorded wins
// ties. False when no points have been played.
func (g *Game) ShortestPoint() (Point, bool) {
	return extremePoint(g.Points, func(a, b time.Duration) bool { return a < b })
}

// ShortRallyWinPercentage returns a player's win rate over rallies shorter
// than the median-split threshold. Requires at least two recorded points and
// a non-empty short bucket.
func (g *Game) ShortRallyWinPercentage(p Player) (float64, bool) {
	return rallyWinPercentage(g.Points, p, true)
}

// LongRallyWinPercentage returns a player's win rate over rallies at or
// above the median-split threshold. Requires at least two recorded points
// and a non-empty long bucket.
func (g *Game) LongRallyWinPercentage(p Player) (float64, bool) {
	return rallyWinPercentage(g.Points, p, false)
}

// LetsRequested returns every let requested by a player
func (g *Game) LetsRequested(p Player) []Let {
	var lets []Let
	for _, l := range g.Lets {
		if l.RequestedBy == p {
			lets = append(lets, l)
		}
	}
	return lets
}

// TotalLets counts every let called in the game
func (g *Game) TotalLets() int {
	return len(g.Lets)
}

// maxZone returns the first zone in declaration order carrying the maximum
// count, and whether any zone has a non-zero count.
func maxZone(count func(CourtZone) int) (CourtZone, bool) {
	best := AllZones[0]
	bestCount := 0
	for _, z := range AllZones {
		if n := count(z); n > bestCount {
			best, bestCount = z, n
		}
	}
	return best, bestCount > 0
}

func averageDuration(points []Point) (time.Duration, bool) {
	if len(points) == 0 {
		return 0, false
	}
	var total time.Duration
	for _, pt := range points {
		total += pt.Duration
	}
	return total / time.Duration(len(points)), true
}

func extremePoint(points []Point, better func(a, b time.Duration) bool) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	best := points[0]
	for _, pt := range points[1:] {
		if better(pt.Duration, best.Duration) {
			best = pt
		}
	}
	return best, true
}

// medianSplitThreshold sorts the rally durations ascending and returns the
// value at index n/2. That index convention (not a true statistical median
// for even counts) is what the short/long rally comparison is defined on.
func medianSplitThreshold(points []Point) (time.Duration, bool) {
	if len(points) == 0 {
		return 0, false
	}
	durations := make([]time.Duration, len(points))
	for i, pt := range points {
		durations[i] = pt.Duration
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	return durations[len(durations)/2], true
}

func rallyWinPercentage(points []Point, p Player, short bool) (float64, bool) {
	if len(points) < 2 {
		return 0, false
	}
	threshold, ok := medianSplitThreshold(points)
	if !ok {
		return 0, false
	}

	var bucket []Point
	for _, pt := range points {
		if short && pt.Duration < threshold {
			bucket = append(bucket, pt)
		} else if !short && pt.Duration >= threshold {
			bucket = append(bucket, pt)
		}
	}
	if len(bucket) == 0 {
		return 0, false
	}

	won := 0
	for _, pt := range bucket {
		if pt.Scorer == p {
			won++
		}
	}
	return float64(won) / float64(len(bucket)) * 100, true
}
