package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mvdberg/squash-tracker/internal/models"
	"github.com/mvdberg/squash-tracker/pkg/config"
	"github.com/mvdberg/squash-tracker/pkg/database"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	// Auto migrate all models
	if err := db.AutoMigrate(
		&models.SavedMatch{},
		&models.SavedGame{},
		&models.SavedPoint{},
		&models.SavedLet{},
		&models.AdviceRecord{},
		&models.Credential{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Create indexes
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_saved_games_match ON saved_games(match_id, game_number)",
		"CREATE INDEX IF NOT EXISTS idx_saved_points_game ON saved_points(game_id, point_number)",
		"CREATE INDEX IF NOT EXISTS idx_saved_lets_game ON saved_lets(game_id, let_number)",
		"CREATE INDEX IF NOT EXISTS idx_saved_matches_saved_at ON saved_matches(saved_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_advice_records_match ON advice_records(match_id)",
		"CREATE INDEX IF NOT EXISTS idx_advice_records_created ON advice_records(created_at)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	// Drop tables in reverse order to handle foreign key constraints
	tables := []string{
		"credentials",
		"advice_records",
		"saved_lets",
		"saved_points",
		"saved_games",
		"saved_matches",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}
