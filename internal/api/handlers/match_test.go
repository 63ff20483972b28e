package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvdberg/squash-tracker/internal/scoring"
	"github.com/mvdberg/squash-tracker/internal/services"
)

func newMatchRouter(t *testing.T) (*gin.Engine, *services.MatchSession) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	session := services.NewMatchSession(nil, nil)
	handler := NewMatchHandler(session)
	analytics := NewAnalyticsHandler(session)

	router := gin.New()
	router.POST("/match/setup", handler.SetupMatch)
	router.GET("/match", handler.GetState)
	router.POST("/match/select-player", handler.SelectPlayer)
	router.POST("/match/select-zone", handler.SelectZone)
	router.POST("/match/back", handler.GoBack)
	router.POST("/match/point", handler.AddPoint)
	router.POST("/match/undo-point", handler.UndoPoint)
	router.POST("/match/let", handler.AddLet)
	router.GET("/match/analytics/game", analytics.GetGameAnalytics)
	router.GET("/match/analytics/match", analytics.GetMatchAnalytics)
	return router, session
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func stateData(t *testing.T, parsed map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := parsed["data"].(map[string]interface{})
	require.True(t, ok)
	return data
}

func TestSetupMatchDefaultsBlankNames(t *testing.T) {
	router, _ := newMatchRouter(t)

	w, parsed := doJSON(t, router, http.MethodPost, "/match/setup",
		`{"player1_name":"  ","player2_name":"","starting_server":"player2"}`)
	require.Equal(t, http.StatusOK, w.Code)

	data := stateData(t, parsed)
	assert.Equal(t, "Player 1", data["player1_name"])
	assert.Equal(t, "Player 2", data["player2_name"])
	assert.Equal(t, "player2", data["current_server"])
	assert.Equal(t, float64(5), data["best_of"])
}

func TestSetupMatchRejectsBadServer(t *testing.T) {
	router, _ := newMatchRouter(t)
	w, parsed := doJSON(t, router, http.MethodPost, "/match/setup",
		`{"player1_name":"A","player2_name":"B","starting_server":"player3"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, parsed["success"])
}

func TestPointWorkflowOverHTTP(t *testing.T) {
	router, _ := newMatchRouter(t)
	doJSON(t, router, http.MethodPost, "/match/setup",
		`{"player1_name":"Anna","player2_name":"Bram","starting_server":"player1"}`)

	_, parsed := doJSON(t, router, http.MethodPost, "/match/select-player", `{"player":"player2"}`)
	assert.Equal(t, "select_zone", stateData(t, parsed)["step"])

	_, parsed = doJSON(t, router, http.MethodPost, "/match/select-zone", `{"zone":"back_right"}`)
	assert.Equal(t, "select_shot", stateData(t, parsed)["step"])

	_, parsed = doJSON(t, router, http.MethodPost, "/match/point", `{"shot_type":"boast"}`)
	data := stateData(t, parsed)
	assert.Equal(t, float64(1), data["player2_score"])
	assert.Equal(t, "player2", data["current_server"])
	assert.Equal(t, "select_player", data["step"])
}

func TestSelectZoneByCoordinates(t *testing.T) {
	router, _ := newMatchRouter(t)
	doJSON(t, router, http.MethodPost, "/match/select-player", `{"player":"player1"}`)

	_, parsed := doJSON(t, router, http.MethodPost, "/match/select-zone", `{"x":0.5,"y":0.1}`)
	assert.Equal(t, "front_middle", stateData(t, parsed)["selected_zone"])
}

func TestSelectZoneRequiresInput(t *testing.T) {
	router, _ := newMatchRouter(t)
	w, _ := doJSON(t, router, http.MethodPost, "/match/select-zone", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIncompleteSelectionIsNoOp(t *testing.T) {
	router, _ := newMatchRouter(t)

	// No player selected: the point is silently ignored
	_, parsed := doJSON(t, router, http.MethodPost, "/match/point", `{"shot_type":"drive"}`)
	data := stateData(t, parsed)
	assert.Equal(t, float64(0), data["player1_score"])
	assert.Equal(t, float64(0), data["player2_score"])
}

func TestUndoOverHTTP(t *testing.T) {
	router, _ := newMatchRouter(t)
	doJSON(t, router, http.MethodPost, "/match/select-player", `{"player":"player1"}`)
	doJSON(t, router, http.MethodPost, "/match/select-zone", `{"zone":"front_left"}`)
	doJSON(t, router, http.MethodPost, "/match/point", `{"shot_type":"drop"}`)

	_, parsed := doJSON(t, router, http.MethodPost, "/match/undo-point", "")
	data := stateData(t, parsed)
	assert.Equal(t, float64(0), data["player1_score"])
	assert.Equal(t, false, data["can_undo"])
}

func TestLetOverHTTP(t *testing.T) {
	router, _ := newMatchRouter(t)
	_, parsed := doJSON(t, router, http.MethodPost, "/match/let", `{"requested_by":"player2"}`)
	assert.Equal(t, float64(1), stateData(t, parsed)["lets_requested"])
}

func TestGameAnalyticsOverHTTP(t *testing.T) {
	router, session := newMatchRouter(t)
	session.Setup("Anna", "Bram", scoring.Player1, 5)

	for i := 0; i < 3; i++ {
		session.SelectPlayer(scoring.Player1)
		session.SelectZone(scoring.FrontLeft)
		session.AddPoint(scoring.ShotDrive)
	}
	session.SelectPlayer(scoring.Player2)
	session.SelectZone(scoring.BackRight)
	session.AddPoint(scoring.ShotCross)

	w, parsed := doJSON(t, router, http.MethodGet, "/match/analytics/game?player=player1", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := stateData(t, parsed)
	assert.Equal(t, float64(3), data["points_won"])
	assert.Equal(t, float64(1), data["points_lost"])
	assert.Equal(t, "front_left", data["best_zone"])
	assert.Equal(t, "drive", data["best_shot_type"])

	// Zones to attack are the ones the opponent keeps losing in
	recommended, ok := data["recommended_zones"].([]interface{})
	require.True(t, ok)
	require.Len(t, recommended, 1)
	assert.Equal(t, "front_left", recommended[0])
}

func TestAnalyticsRejectsUnknownPlayer(t *testing.T) {
	router, _ := newMatchRouter(t)
	w, _ := doJSON(t, router, http.MethodGet, "/match/analytics/game?player=nobody", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchAnalyticsOverHTTP(t *testing.T) {
	router, session := newMatchRouter(t)
	session.Setup("Anna", "Bram", scoring.Player1, 5)

	for i := 0; i < 11; i++ {
		session.SelectPlayer(scoring.Player1)
		session.SelectZone(scoring.MiddleMiddle)
		session.AddPoint(scoring.ShotVolley)
	}
	session.NextGame()

	w, parsed := doJSON(t, router, http.MethodGet, "/match/analytics/match?player=player1", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := stateData(t, parsed)
	assert.Equal(t, float64(1), data["games_won"])
	assert.Equal(t, float64(11), data["points_won"])
	assert.Equal(t, "volley", data["most_effective_shot"])

	zones, ok := data["zones"].([]interface{})
	require.True(t, ok)
	for _, raw := range zones {
		zone := raw.(map[string]interface{})
		switch zone["zone"] {
		case "middle_middle":
			assert.Equal(t, float64(100), zone["win_percentage"])
		default:
			assert.Equal(t, float64(0), zone["win_percentage"])
		}
	}
}
