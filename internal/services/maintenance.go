package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// MaintenanceService runs the scheduled housekeeping jobs: pruning
// old advice history and clearing stale cache entries.
type MaintenanceService struct {
	advice        *AdviceService
	cache         *CacheService
	logger        *logrus.Logger
	cron          *cron.Cron
	mu            sync.Mutex
	isRunning     bool
	retentionDays int
}

func NewMaintenanceService(advice *AdviceService, cache *CacheService, logger *logrus.Logger, retentionDays int) *MaintenanceService {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	return &MaintenanceService{
		advice:        advice,
		cache:         cache,
		logger:        logger,
		cron:          cron.New(),
		retentionDays: retentionDays,
	}
}

// Start schedules the daily cleanup run.
func (s *MaintenanceService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("maintenance service is already running")
	}

	_, err := s.cron.AddFunc("0 3 * * *", s.cleanupOldData)
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Maintenance service started")
	return nil
}

// Stop halts the scheduled jobs and waits for a running one to finish.
func (s *MaintenanceService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Maintenance service stopped")
}

func (s *MaintenanceService) cleanupOldData() {
	s.logger.Info("Starting daily cleanup of old data")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	removed, err := s.advice.PruneHistory(ctx, cutoff)
	if err != nil {
		s.logger.Errorf("Failed to prune advice history: %v", err)
	} else {
		s.logger.Infof("Pruned %d old advice records", removed)
	}

	if s.cache != nil {
		if err := s.cache.Flush(); err != nil {
			s.logger.Errorf("Failed to flush cache: %v", err)
		}
	}
}

// GetStatus reports whether the scheduler is running and when jobs fire next.
func (s *MaintenanceService) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	nextRuns := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		nextRuns = append(nextRuns, entry.Next)
	}

	return map[string]interface{}{
		"is_running":     s.isRunning,
		"retention_days": s.retentionDays,
		"next_runs":      nextRuns,
	}
}
