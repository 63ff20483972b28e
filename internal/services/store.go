package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mvdberg/squash-tracker/internal/models"
	"github.com/mvdberg/squash-tracker/internal/scoring"
)

var ErrMatchNotFound = errors.New("match not found")

// MatchStore persists completed matches and reloads them as live
// match state.
type MatchStore struct {
	db    *gorm.DB
	cache *CacheService
	clock scoring.Clock
}

func NewMatchStore(db *gorm.DB, cache *CacheService, clock scoring.Clock) *MatchStore {
	if clock == nil {
		clock = scoring.SystemClock()
	}
	return &MatchStore{
		db:    db,
		cache: cache,
		clock: clock,
	}
}

// Save snapshots the match, including games in progress, and writes
// the whole tree in one transaction.
func (s *MatchStore) Save(ctx context.Context, match *scoring.Match) (*models.SavedMatch, error) {
	saved := models.FromMatch(match, s.clock.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Games").Create(saved).Error; err != nil {
			return fmt.Errorf("failed to save match: %w", err)
		}
		for i := range saved.Games {
			game := &saved.Games[i]
			if err := tx.Omit("Points", "Lets").Create(game).Error; err != nil {
				return fmt.Errorf("failed to save game %d: %w", game.GameNumber, err)
			}
			if len(game.Points) > 0 {
				if err := tx.Create(&game.Points).Error; err != nil {
					return fmt.Errorf("failed to save points for game %d: %w", game.GameNumber, err)
				}
			}
			if len(game.Lets) > 0 {
				if err := tx.Create(&game.Lets).Error; err != nil {
					return fmt.Errorf("failed to save lets for game %d: %w", game.GameNumber, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, saved.ID)

	logrus.WithFields(logrus.Fields{
		"match_id": saved.ID,
		"games":    len(saved.Games),
	}).Info("Match saved")

	return saved, nil
}

// Get returns a fully loaded match tree, games and their points and
// lets ordered as they were played.
func (s *MatchStore) Get(ctx context.Context, id uuid.UUID) (*models.SavedMatch, error) {
	if s.cache != nil {
		var cached models.SavedMatch
		if err := s.cache.Get(ctx, SavedMatchCacheKey(id.String()), &cached); err == nil {
			return &cached, nil
		}
	}

	var match models.SavedMatch
	err := s.db.WithContext(ctx).
		Preload("Games", func(db *gorm.DB) *gorm.DB {
			return db.Order("game_number ASC")
		}).
		Preload("Games.Points", func(db *gorm.DB) *gorm.DB {
			return db.Order("point_number ASC")
		}).
		Preload("Games.Lets", func(db *gorm.DB) *gorm.DB {
			return db.Order("let_number ASC")
		}).
		First(&match, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, SavedMatchCacheKey(id.String()), &match, 10*time.Minute); err != nil {
			logrus.Warnf("Failed to cache match %s: %v", id, err)
		}
	}

	return &match, nil
}

// List returns match summaries without their game trees, newest first.
func (s *MatchStore) List(ctx context.Context, limit, offset int) ([]models.SavedMatch, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.SavedMatch{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count matches: %w", err)
	}

	var matches []models.SavedMatch
	query := s.db.WithContext(ctx).
		Preload("Games", func(db *gorm.DB) *gorm.DB {
			return db.Order("game_number ASC")
		}).
		Order("saved_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&matches).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list matches: %w", err)
	}

	return matches, total, nil
}

// Load rebuilds a live match from a saved record so play can resume.
func (s *MatchStore) Load(ctx context.Context, id uuid.UUID) (*scoring.Match, error) {
	saved, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return saved.ToMatch(s.clock), nil
}

// Delete removes the match and its games, points, and lets. Children
// are deleted explicitly so the cascade does not depend on database
// foreign key enforcement.
func (s *MatchStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var match models.SavedMatch
		if err := tx.First(&match, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("failed to find match: %w", err)
		}

		var gameIDs []uuid.UUID
		if err := tx.Model(&models.SavedGame{}).
			Where("match_id = ?", id).
			Pluck("id", &gameIDs).Error; err != nil {
			return fmt.Errorf("failed to collect game ids: %w", err)
		}

		if len(gameIDs) > 0 {
			if err := tx.Where("game_id IN ?", gameIDs).Delete(&models.SavedPoint{}).Error; err != nil {
				return fmt.Errorf("failed to delete points: %w", err)
			}
			if err := tx.Where("game_id IN ?", gameIDs).Delete(&models.SavedLet{}).Error; err != nil {
				return fmt.Errorf("failed to delete lets: %w", err)
			}
			if err := tx.Where("match_id = ?", id).Delete(&models.SavedGame{}).Error; err != nil {
				return fmt.Errorf("failed to delete games: %w", err)
			}
		}

		if err := tx.Delete(&models.SavedMatch{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete match: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)

	logrus.WithField("match_id", id).Info("Match deleted")
	return nil
}

func (s *MatchStore) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, SavedMatchCacheKey(id.String()), MatchListCacheKey()); err != nil {
		logrus.Warnf("Failed to invalidate match cache: %v", err)
	}
}
