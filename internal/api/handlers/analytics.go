package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mvdberg/squash-tracker/internal/scoring"
	"github.com/mvdberg/squash-tracker/internal/services"
	"github.com/mvdberg/squash-tracker/pkg/utils"
)

// AnalyticsHandler serves zone, shot, and duration statistics over the
// live match.
type AnalyticsHandler struct {
	session *services.MatchSession
}

func NewAnalyticsHandler(session *services.MatchSession) *AnalyticsHandler {
	return &AnalyticsHandler{session: session}
}

type zoneStats struct {
	Zone          string  `json:"zone"`
	ShortName     string  `json:"short_name"`
	PointsWon     int     `json:"points_won"`
	PointsLost    int     `json:"points_lost"`
	WinPercentage float64 `json:"win_percentage"`
}

type shotStats struct {
	ShotType  string `json:"shot_type"`
	ShortName string `json:"short_name"`
	PointsWon int    `json:"points_won"`
}

type durationStats struct {
	AverageWonMs  *int64   `json:"average_won_ms,omitempty"`
	AverageLostMs *int64   `json:"average_lost_ms,omitempty"`
	AverageMs     *int64   `json:"average_ms,omitempty"`
	TotalMs       int64    `json:"total_ms"`
	LongestMs     *int64   `json:"longest_ms,omitempty"`
	ShortestMs    *int64   `json:"shortest_ms,omitempty"`
	ShortRallyPct *float64 `json:"short_rally_win_pct,omitempty"`
	LongRallyPct  *float64 `json:"long_rally_win_pct,omitempty"`
}

type gameAnalytics struct {
	Player           string        `json:"player"`
	PointsWon        int           `json:"points_won"`
	PointsLost       int           `json:"points_lost"`
	BestZone         *string       `json:"best_zone,omitempty"`
	WorstZone        *string       `json:"worst_zone,omitempty"`
	BestShotType     *string       `json:"best_shot_type,omitempty"`
	RecommendedZones []string      `json:"recommended_zones"`
	Zones            []zoneStats   `json:"zones"`
	Shots            []shotStats   `json:"shots"`
	Durations        durationStats `json:"durations"`
	LetsRequested    int           `json:"lets_requested"`
	TotalLets        int           `json:"total_lets"`
}

func parsePlayerQuery(c *gin.Context) (scoring.Player, bool) {
	player, ok := scoring.ParsePlayer(c.DefaultQuery("player", string(scoring.Player1)))
	if !ok {
		utils.SendValidationError(c, "Invalid player", c.Query("player"))
		return "", false
	}
	return player, true
}

func msPtr(d time.Duration, ok bool) *int64 {
	if !ok {
		return nil
	}
	ms := d.Milliseconds()
	return &ms
}

func pctPtr(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// GetGameAnalytics returns the full breakdown for the current game
func (h *AnalyticsHandler) GetGameAnalytics(c *gin.Context) {
	player, ok := parsePlayerQuery(c)
	if !ok {
		return
	}

	var result gameAnalytics
	h.session.Read(func(m *scoring.Match) {
		result = buildGameAnalytics(m.CurrentGame(), player)
	})

	utils.SendSuccess(c, result)
}

func buildGameAnalytics(g *scoring.Game, player scoring.Player) gameAnalytics {
	result := gameAnalytics{
		Player:           string(player),
		PointsWon:        len(g.PointsWon(player)),
		PointsLost:       len(g.PointsLost(player)),
		RecommendedZones: []string{},
		LetsRequested:    len(g.LetsRequested(player)),
		TotalLets:        g.TotalLets(),
	}

	if zone, ok := g.BestZone(player); ok {
		v := string(zone)
		result.BestZone = &v
	}
	if zone, ok := g.WorstZone(player); ok {
		v := string(zone)
		result.WorstZone = &v
	}
	if shot, ok := g.BestShotType(player); ok {
		v := string(shot)
		result.BestShotType = &v
	}
	// Zones worth attacking: where the opponent keeps conceding.
	for _, zone := range g.RecommendedZones(player.Opponent()) {
		result.RecommendedZones = append(result.RecommendedZones, string(zone))
	}

	for _, zone := range scoring.AllZones {
		result.Zones = append(result.Zones, zoneStats{
			Zone:          string(zone),
			ShortName:     zone.ShortName(),
			PointsWon:     g.PointsWonInZone(player, zone),
			PointsLost:    g.PointsWonInZone(player.Opponent(), zone),
			WinPercentage: g.WinPercentage(player, zone),
		})
	}
	for _, shot := range scoring.AllShotTypes {
		result.Shots = append(result.Shots, shotStats{
			ShotType:  string(shot),
			ShortName: shot.ShortName(),
			PointsWon: g.PointsWonWithShot(player, shot),
		})
	}

	result.Durations = durationStats{
		AverageWonMs:  msPtr(g.AverageDurationWon(player)),
		AverageLostMs: msPtr(g.AverageDurationLost(player)),
		AverageMs:     msPtr(g.AveragePointDuration()),
		TotalMs:       g.TotalDuration().Milliseconds(),
		ShortRallyPct: pctPtr(g.ShortRallyWinPercentage(player)),
		LongRallyPct:  pctPtr(g.LongRallyWinPercentage(player)),
	}
	if pt, ok := g.LongestPoint(); ok {
		ms := pt.Duration.Milliseconds()
		result.Durations.LongestMs = &ms
	}
	if pt, ok := g.ShortestPoint(); ok {
		ms := pt.Duration.Milliseconds()
		result.Durations.ShortestMs = &ms
	}

	return result
}

type matchAnalytics struct {
	Player           string        `json:"player"`
	GamesWon         int           `json:"games_won"`
	GamesLost        int           `json:"games_lost"`
	PointsWon        int           `json:"points_won"`
	BestZone         *string       `json:"best_zone,omitempty"`
	MostEffective    *string       `json:"most_effective_shot,omitempty"`
	Zones            []zoneStats   `json:"zones"`
	Shots            []shotStats   `json:"shots"`
	Durations        durationStats `json:"durations"`
	LetsRequested    int           `json:"lets_requested"`
	TotalLets        int           `json:"total_lets"`
}

// GetMatchAnalytics aggregates statistics across all games played
func (h *AnalyticsHandler) GetMatchAnalytics(c *gin.Context) {
	player, ok := parsePlayerQuery(c)
	if !ok {
		return
	}

	var result matchAnalytics
	h.session.Read(func(m *scoring.Match) {
		result = matchAnalytics{
			Player:        string(player),
			GamesWon:      m.GamesWon(player),
			GamesLost:     m.GamesWon(player.Opponent()),
			PointsWon:     m.TotalPointsWon(player),
			LetsRequested: len(m.LetsRequested(player)),
			TotalLets:     m.TotalLets(),
		}

		if zone, ok := m.BestZone(player); ok {
			v := string(zone)
			result.BestZone = &v
		}
		if shot, ok := m.MostEffectiveShot(player); ok {
			v := string(shot)
			result.MostEffective = &v
		}

		for _, zone := range scoring.AllZones {
			won := m.TotalPointsWonInZone(player, zone)
			lost := m.TotalPointsWonInZone(player.Opponent(), zone)
			var pct float64
			if won+lost > 0 {
				pct = float64(won) / float64(won+lost) * 100
			}
			result.Zones = append(result.Zones, zoneStats{
				Zone:          string(zone),
				ShortName:     zone.ShortName(),
				PointsWon:     won,
				PointsLost:    lost,
				WinPercentage: pct,
			})
		}
		for _, shot := range scoring.AllShotTypes {
			result.Shots = append(result.Shots, shotStats{
				ShotType:  string(shot),
				ShortName: shot.ShortName(),
				PointsWon: m.TotalPointsWonWithShot(player, shot),
			})
		}

		result.Durations = durationStats{
			AverageWonMs:  msPtr(m.AverageDurationWon(player)),
			AverageLostMs: msPtr(m.AverageDurationLost(player)),
			AverageMs:     msPtr(m.AveragePointDuration()),
			TotalMs:       m.TotalDuration().Milliseconds(),
			ShortRallyPct: pctPtr(m.ShortRallyWinPercentage(player)),
			LongRallyPct:  pctPtr(m.LongRallyWinPercentage(player)),
		}
	})

	utils.SendSuccess(c, result)
}
