package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// playScenario builds the reference game: P1 wins 6 points in front-left
// with drives, P2 wins 3 in back-right with crosses, then P1 closes out
// 11-3 with boasts around the court.
func playScenario(t *testing.T, clock *fakeClock) *Game {
	t.Helper()
	g := NewGame(clock)

	for i := 0; i < 6; i++ {
		clock.Advance(30 * time.Second)
		winPoint(g, Player1, FrontLeft, ShotDrive)
	}
	for i := 0; i < 3; i++ {
		clock.Advance(30 * time.Second)
		winPoint(g, Player2, BackRight, ShotCross)
	}
	zones := []CourtZone{MiddleLeft, MiddleRight, BackLeft, BackMiddle, FrontRight}
	for _, z := range zones {
		clock.Advance(30 * time.Second)
		winPoint(g, Player1, z, ShotBoast)
	}

	require.Equal(t, 11, g.Score(Player1))
	require.Equal(t, 3, g.Score(Player2))
	require.True(t, g.IsOver())
	return g
}

func TestScenarioAnalytics(t *testing.T) {
	g := playScenario(t, newFakeClock())

	w, ok := g.Winner()
	require.True(t, ok)
	assert.Equal(t, Player1, w)

	zone, ok := g.BestZone(Player1)
	require.True(t, ok)
	assert.Equal(t, FrontLeft, zone)

	shot, ok := g.BestShotType(Player1)
	require.True(t, ok)
	assert.Equal(t, ShotDrive, shot)

	zone, ok = g.BestZone(Player2)
	require.True(t, ok)
	assert.Equal(t, BackRight, zone)

	// worst zone for P1 is where P2 scores most
	zone, ok = g.WorstZone(Player1)
	require.True(t, ok)
	assert.Equal(t, BackRight, zone)
}

func TestCounting(t *testing.T) {
	g := playScenario(t, newFakeClock())

	assert.Len(t, g.PointsWon(Player1), 11)
	assert.Len(t, g.PointsWon(Player2), 3)
	assert.Len(t, g.PointsLost(Player1), 3)
	assert.Equal(t, 6, g.PointsWonInZone(Player1, FrontLeft))
	assert.Equal(t, 0, g.PointsWonInZone(Player2, FrontLeft))
	assert.Equal(t, 6, g.PointsWonWithShot(Player1, ShotDrive))
	assert.Equal(t, 5, g.PointsWonWithShot(Player1, ShotBoast))
	assert.Equal(t, 3, g.PointsWonWithShot(Player2, ShotCross))
	assert.Equal(t, 6, g.TotalPointsInZone(FrontLeft))
	assert.Equal(t, 3, g.TotalPointsInZone(BackRight))
	assert.Equal(t, 0, g.TotalPointsInZone(MiddleMiddle))
}

func TestWinPercentage(t *testing.T) {
	g := playScenario(t, newFakeClock())

	assert.Equal(t, 100.0, g.WinPercentage(Player1, FrontLeft))
	assert.Equal(t, 0.0, g.WinPercentage(Player1, BackRight))
	assert.Equal(t, 100.0, g.WinPercentage(Player2, BackRight))
	// no points played there: defined as zero, not an error
	assert.Equal(t, 0.0, g.WinPercentage(Player1, MiddleMiddle))
}

func TestBestZoneTieBreaksToDeclarationOrder(t *testing.T) {
	g := NewGame(newFakeClock())
	winPoint(g, Player1, BackRight, ShotDrive)
	winPoint(g, Player1, FrontMiddle, ShotDrive)

	zone, ok := g.BestZone(Player1)
	require.True(t, ok)
	assert.Equal(t, FrontMiddle, zone)
}

func TestBestZoneNoData(t *testing.T) {
	g := NewGame(newFakeClock())
	_, ok := g.BestZone(Player1)
	assert.False(t, ok)
	_, ok = g.BestShotType(Player1)
	assert.False(t, ok)
}

func TestRecommendedZones(t *testing.T) {
	g := NewGame(newFakeClock())

	// P2 concedes 3 in front-left, 2 in middle-middle, 1 each in back-left
	// and back-right
	for i := 0; i < 3; i++ {
		winPoint(g, Player1, FrontLeft, ShotDrop)
	}
	winPoint(g, Player1, MiddleMiddle, ShotDrive)
	winPoint(g, Player1, MiddleMiddle, ShotDrive)
	winPoint(g, Player1, BackLeft, ShotLob)
	winPoint(g, Player1, BackRight, ShotLob)

	zones := g.RecommendedZones(Player2)
	require.Len(t, zones, 3)
	assert.Equal(t, FrontLeft, zones[0])
	assert.Equal(t, MiddleMiddle, zones[1])
	// two zones tie at one loss; only one fits in the top three
	assert.Contains(t, []CourtZone{BackLeft, BackRight}, zones[2])
}

func TestRecommendedZonesExcludesZeroLossZones(t *testing.T) {
	g := NewGame(newFakeClock())
	assert.Empty(t, g.RecommendedZones(Player2))

	winPoint(g, Player1, FrontLeft, ShotDrive)
	assert.Equal(t, []CourtZone{FrontLeft}, g.RecommendedZones(Player2))

	// points P2 wins are losses for P1, not P2
	winPoint(g, Player2, BackRight, ShotCross)
	assert.Equal(t, []CourtZone{FrontLeft}, g.RecommendedZones(Player2))
	assert.Equal(t, []CourtZone{BackRight}, g.RecommendedZones(Player1))
}

func TestDurationAnalytics(t *testing.T) {
	clock := newFakeClock()
	g := NewGame(clock)

	durations := []time.Duration{10 * time.Second, 20 * time.Second, 30 * time.Second}
	for i, d := range durations {
		clock.Advance(d)
		if i < 2 {
			winPoint(g, Player1, FrontLeft, ShotDrive)
		} else {
			winPoint(g, Player2, BackRight, ShotCross)
		}
	}

	avgWon, ok := g.AverageDurationWon(Player1)
	require.True(t, ok)
	assert.Equal(t, 15*time.Second, avgWon)

	avgLost, ok := g.AverageDurationLost(Player1)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, avgLost)

	avg, ok := g.AveragePointDuration()
	require.True(t, ok)
	assert.Equal(t, 20*time.Second, avg)

	assert.Equal(t, 60*time.Second, g.TotalDuration())

	longest, ok := g.LongestPoint()
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, longest.Duration)

	shortest, ok := g.ShortestPoint()
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, shortest.Duration)
}

func TestDurationAnalyticsNoData(t *testing.T) {
	g := NewGame(newFakeClock())

	_, ok := g.AverageDurationWon(Player1)
	assert.False(t, ok)
	_, ok = g.AveragePointDuration()
	assert.False(t, ok)
	_, ok = g.LongestPoint()
	assert.False(t, ok)
	assert.Equal(t, time.Duration(0), g.TotalDuration())
}

func TestLongestPointFirstOccurrenceOnTie(t *testing.T) {
	clock := newFakeClock()
	g := NewGame(clock)

	clock.Advance(30 * time.Second)
	winPoint(g, Player1, FrontLeft, ShotDrive)
	clock.Advance(30 * time.Second)
	winPoint(g, Player2, BackRight, ShotCross)

	longest, ok := g.LongestPoint()
	require.True(t, ok)
	assert.Equal(t, Player1, longest.Scorer)
}

func TestMedianSplit(t *testing.T) {
	clock := newFakeClock()
	g := NewGame(clock)

	// durations 1s, 2s, 3s, 4s; split threshold is the value at index
	// n/2 = 2, i.e. 3s. Short bucket {1,2} goes to P1, long bucket {3,4}
	// to P2.
	for i, d := range []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 4 * time.Second} {
		clock.Advance(d)
		if i < 2 {
			winPoint(g, Player1, FrontLeft, ShotDrive)
		} else {
			winPoint(g, Player2, BackRight, ShotCross)
		}
	}

	short, ok := g.ShortRallyWinPercentage(Player1)
	require.True(t, ok)
	assert.Equal(t, 100.0, short)

	long, ok := g.LongRallyWinPercentage(Player1)
	require.True(t, ok)
	assert.Equal(t, 0.0, long)

	long, ok = g.LongRallyWinPercentage(Player2)
	require.True(t, ok)
	assert.Equal(t, 100.0, long)
}

func TestRallySplitNeedsAtLeastTwoPoints(t *testing.T) {
	clock := newFakeClock()
	g := NewGame(clock)

	_, ok := g.ShortRallyWinPercentage(Player1)
	assert.False(t, ok)

	clock.Advance(10 * time.Second)
	winPoint(g, Player1, FrontLeft, ShotDrive)
	_, ok = g.ShortRallyWinPercentage(Player1)
	assert.False(t, ok)
}

func TestRallySplitEmptyShortBucket(t *testing.T) {
	clock := newFakeClock()
	g := NewGame(clock)

	// identical durations: every rally is >= the threshold, the short
	// bucket is empty
	for i := 0; i < 3; i++ {
		clock.Advance(10 * time.Second)
		winPoint(g, Player1, FrontLeft, ShotDrive)
	}

	_, ok := g.ShortRallyWinPercentage(Player1)
	assert.False(t, ok)

	long, ok := g.LongRallyWinPercentage(Player1)
	require.True(t, ok)
	assert.Equal(t, 100.0, long)
}

func TestLetAnalytics(t *testing.T) {
	g := NewGame(newFakeClock())
	g.AddLet(Player1)
	g.AddLet(Player1)
	g.AddLet(Player2)

	assert.Len(t, g.LetsRequested(Player1), 2)
	assert.Len(t, g.LetsRequested(Player2), 1)
	assert.Equal(t, 3, g.TotalLets())
}
