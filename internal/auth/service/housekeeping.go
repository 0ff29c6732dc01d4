package service

import (
	"context"
	"log/slog"
	"time"
)

// Purger is any blacklist driver that can delete dead rows. The SQLite
// driver implements it; Redis entries expire on their own and don't
// need one.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// HousekeepingService periodically purges expired revocation entries so
// the blacklist table doesn't grow without bound. Correctness never
// depends on it running: lookups already ignore dead entries.
type HousekeepingService struct {
	Purger   Purger
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. A non-positive interval defaults to 1 hour.
func NewHousekeepingService(purger Purger, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Purger:   purger,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut
// it down gracefully.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker and blocks until any in-progress purge has
// finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run immediately on startup, then on the interval.
	s.purge()

	for {
		select {
		case <-ticker.C:
			s.purge()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.Purger.PurgeExpired(ctx)
	if err != nil {
		s.Logger.Error("failed to purge expired revocations", "error", err)
		return
	}

	if deleted > 0 {
		s.Logger.Info("purged expired revocations", "deleted", deleted)
	}
}
