package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mvdberg/squash-tracker/internal/models"
	"github.com/mvdberg/squash-tracker/internal/scoring"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
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
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func playStoreMatch(t *testing.T, clock *adviceTestClock) *scoring.Match {
	t.Helper()
	match := scoring.NewMatch(clock)
	match.SetupMatch("Anna", "Bram", scoring.Player1)

	winGame := func(winner scoring.Player) {
		game := match.CurrentGame()
		for i := 0; i < 11; i++ {
			clock.now = clock.now.Add(20 * time.Second)
			game.SelectPlayer(winner)
			game.SelectZone(scoring.MiddleMiddle)
			game.AddPoint(scoring.ShotDrive)
		}
		match.OnGameEnd()
	}

	winGame(scoring.Player1)
	winGame(scoring.Player2)
	match.CurrentGame().AddLet(scoring.Player2)
	return match
}

func TestMatchStoreSaveAndGet(t *testing.T) {
	clock := &adviceTestClock{now: time.Date(2025, 4, 12, 10, 0, 0, 0, time.UTC)}
	store := NewMatchStore(newTestDB(t), nil, clock)
	match := playStoreMatch(t, clock)

	saved, err := store.Save(context.Background(), match)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	require.Len(t, saved.Games, 3)

	loaded, err := store.Get(context.Background(), saved.ID)
	require.NoError(t, err)

	assert.Equal(t, "Anna", loaded.Player1Name)
	assert.Equal(t, "Bram", loaded.Player2Name)
	assert.Equal(t, 5, loaded.BestOf)
	require.Len(t, loaded.Games, 3)

	first := loaded.Games[0]
	assert.Equal(t, 1, first.GameNumber)
	assert.Equal(t, 11, first.Player1Score)
	assert.Equal(t, 0, first.Player2Score)
	require.NotNil(t, first.Winner)
	assert.Equal(t, string(scoring.Player1), *first.Winner)
	require.Len(t, first.Points, 11)

	// Points come back in play order
	for i, pt := range first.Points {
		assert.Equal(t, i+1, pt.PointNumber)
	}
	assert.Equal(t, int64(20000), first.Points[0].DurationMs)

	third := loaded.Games[2]
	require.Len(t, third.Lets, 1)
	assert.Equal(t, string(scoring.Player2), third.Lets[0].RequestedBy)
}

func TestMatchStoreGetMissing(t *testing.T) {
	store := NewMatchStore(newTestDB(t), nil, nil)
	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMatchStoreList(t *testing.T) {
	clock := &adviceTestClock{now: time.Date(2025, 4, 12, 10, 0, 0, 0, time.UTC)}
	store := NewMatchStore(newTestDB(t), nil, clock)

	for i := 0; i < 3; i++ {
		clock.now = clock.now.Add(time.Hour)
		_, err := store.Save(context.Background(), playStoreMatch(t, clock))
		require.NoError(t, err)
	}

	matches, total, err := store.List(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, matches, 2)

	// Newest first
	assert.True(t, matches[0].SavedAt.After(matches[1].SavedAt) || matches[0].SavedAt.Equal(matches[1].SavedAt))
}

func TestMatchStoreLoadRebuildsLiveMatch(t *testing.T) {
	clock := &adviceTestClock{now: time.Date(2025, 4, 12, 10, 0, 0, 0, time.UTC)}
	store := NewMatchStore(newTestDB(t), nil, clock)
	saved, err := store.Save(context.Background(), playStoreMatch(t, clock))
	require.NoError(t, err)

	match, err := store.Load(context.Background(), saved.ID)
	require.NoError(t, err)

	assert.Equal(t, "Anna", match.Player1Name)
	assert.Equal(t, 1, match.GamesWon(scoring.Player1))
	assert.Equal(t, 1, match.GamesWon(scoring.Player2))
	assert.False(t, match.IsOver())

	// Analytics run over the restored history
	game := match.Games[0]
	assert.Equal(t, 11, game.PointsWonInZone(scoring.Player1, scoring.MiddleMiddle))
	avg, ok := game.AveragePointDuration()
	require.True(t, ok)
	assert.Equal(t, 20*time.Second, avg)
}

func TestMatchStoreDeleteCascades(t *testing.T) {
	clock := &adviceTestClock{now: time.Date(2025, 4, 12, 10, 0, 0, 0, time.UTC)}
	db := newTestDB(t)
	store := NewMatchStore(db, nil, clock)
	saved, err := store.Save(context.Background(), playStoreMatch(t, clock))
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), saved.ID))

	_, err = store.Get(context.Background(), saved.ID)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	var games, points, lets int64
	db.Model(&models.SavedGame{}).Count(&games)
	db.Model(&models.SavedPoint{}).Count(&points)
	db.Model(&models.SavedLet{}).Count(&lets)
	assert.Zero(t, games)
	assert.Zero(t, points)
	assert.Zero(t, lets)
}

func TestMatchStoreDeleteMissing(t *testing.T) {
	store := NewMatchStore(newTestDB(t), nil, nil)
	err := store.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestSecretStoreRoundTrip(t *testing.T) {
	db := newTestDB(t)
	secrets := NewSecretStore(db)
	ctx := context.Background()

	_, err := secrets.Get(ctx, SecretNameAdviceKey)
	assert.ErrorIs(t, err, ErrSecretNotFound)

	require.NoError(t, secrets.Set(ctx, SecretNameAdviceKey, "sk-first"))
	value, err := secrets.Get(ctx, SecretNameAdviceKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-first", value)

	// Upsert replaces the stored value
	require.NoError(t, secrets.Set(ctx, SecretNameAdviceKey, "sk-second"))
	value, err = secrets.Get(ctx, SecretNameAdviceKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-second", value)

	require.NoError(t, secrets.Delete(ctx, SecretNameAdviceKey))
	_, err = secrets.Get(ctx, SecretNameAdviceKey)
	assert.ErrorIs(t, err, ErrSecretNotFound)

	err = secrets.Delete(ctx, SecretNameAdviceKey)
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestLayeredSecretStoreFallsBack(t *testing.T) {
	db := newTestDB(t)
	layered := NewLayeredSecretStore(
		NewSecretStore(db),
		NewEnvSecretStore(map[string]string{SecretNameAdviceKey: "sk-env"}),
	)
	ctx := context.Background()

	value, err := layered.Get(ctx, SecretNameAdviceKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", value)

	require.NoError(t, layered.Set(ctx, SecretNameAdviceKey, "sk-db"))
	value, err = layered.Get(ctx, SecretNameAdviceKey)
	require.NoError(t, err)
	assert.Equal(t, "sk-db", value)
}
