package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mvdberg/squash-tracker/internal/models"
	"github.com/mvdberg/squash-tracker/internal/scoring"
	"github.com/mvdberg/squash-tracker/internal/services"
)

type handlerTestClock struct {
	now time.Time
}

func (c *handlerTestClock) Now() time.Time { return c.now }

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.SavedMatch{},
		&models.SavedGame{},
		&models.SavedPoint{},
		&models.SavedLet{},
		&models.AdviceRecord{},
		&models.Credential{},
	))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newSavedRouter(t *testing.T) (*gin.Engine, *services.MatchSession) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := &handlerTestClock{now: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
	db := newHandlerTestDB(t)
	session := services.NewMatchSession(clock, nil)
	store := services.NewMatchStore(db, nil, clock)
	handler := NewSavedMatchHandler(store, session)

	router := gin.New()
	router.POST("/matches", handler.SaveMatch)
	router.GET("/matches", handler.ListMatches)
	router.GET("/matches/:id", handler.GetMatch)
	router.POST("/matches/:id/load", handler.LoadMatch)
	router.DELETE("/matches/:id", handler.DeleteMatch)
	return router, session
}

func scorePoints(session *services.MatchSession, winner scoring.Player, n int) {
	for i := 0; i < n; i++ {
		session.SelectPlayer(winner)
		session.SelectZone(scoring.FrontLeft)
		session.AddPoint(scoring.ShotDrive)
	}
}

func TestSaveAndGetMatchOverHTTP(t *testing.T) {
	router, session := newSavedRouter(t)
	session.Setup("Anna", "Bram", scoring.Player1, 5)
	scorePoints(session, scoring.Player1, 4)
	scorePoints(session, scoring.Player2, 2)

	w, parsed := doJSON(t, router, http.MethodPost, "/matches", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := stateData(t, parsed)
	id, ok := data["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)
	assert.Equal(t, "Anna", data["player1_name"])

	w, parsed = doJSON(t, router, http.MethodGet, "/matches/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	data = stateData(t, parsed)
	games, ok := data["games"].([]interface{})
	require.True(t, ok)
	require.Len(t, games, 1)
	game := games[0].(map[string]interface{})
	assert.Equal(t, float64(4), game["player1_score"])
	assert.Equal(t, float64(2), game["player2_score"])
}

func TestGetMatchNotFound(t *testing.T) {
	router, _ := newSavedRouter(t)
	w, _ := doJSON(t, router, http.MethodGet, "/matches/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMatchRejectsBadID(t *testing.T) {
	router, _ := newSavedRouter(t)
	w, _ := doJSON(t, router, http.MethodGet, "/matches/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMatchesPagination(t *testing.T) {
	router, session := newSavedRouter(t)
	for i := 0; i < 3; i++ {
		session.Setup("Anna", "Bram", scoring.Player1, 5)
		scorePoints(session, scoring.Player1, i+1)
		w, _ := doJSON(t, router, http.MethodPost, "/matches", "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, parsed := doJSON(t, router, http.MethodGet, "/matches?page=1&perPage=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	list, ok := parsed["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, list, 2)

	meta, ok := parsed["meta"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), meta["total"])
	assert.Equal(t, float64(2), meta["total_pages"])
}

func TestLoadMatchReplacesSession(t *testing.T) {
	router, session := newSavedRouter(t)
	session.Setup("Anna", "Bram", scoring.Player1, 5)
	scorePoints(session, scoring.Player2, 5)

	_, parsed := doJSON(t, router, http.MethodPost, "/matches", "")
	id := stateData(t, parsed)["id"].(string)

	// Wipe the live match, then restore it from storage
	session.Setup("", "", scoring.Player1, 5)

	w, parsed := doJSON(t, router, http.MethodPost, "/matches/"+id+"/load", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := stateData(t, parsed)
	assert.Equal(t, "Anna", data["player1_name"])
	assert.Equal(t, float64(5), data["player2_score"])
}

func TestDeleteMatchOverHTTP(t *testing.T) {
	router, session := newSavedRouter(t)
	session.Setup("Anna", "Bram", scoring.Player1, 5)
	scorePoints(session, scoring.Player1, 1)

	_, parsed := doJSON(t, router, http.MethodPost, "/matches", "")
	id := stateData(t, parsed)["id"].(string)

	w, _ := doJSON(t, router, http.MethodDelete, "/matches/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodGet, "/matches/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, router, http.MethodDelete, "/matches/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
