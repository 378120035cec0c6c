package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/store"
)

// DefaultStopTimeout bounds how long background workers may delay shutdown.
const DefaultStopTimeout = 10 * time.Second

// HousekeepingService periodically removes expired login sessions so the
// sessions table does not grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// StopTimeout bounds how long Stop waits for an in-progress sweep;
	// zero means DefaultStopTimeout.
	StopTimeout time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 15 minutes.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker and waits for any in-progress sweep, giving up
// after StopTimeout.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)

	timeout := s.StopTimeout
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.doneCh:
		s.Logger.Info("housekeeping service stopped")
	case <-timer.C:
		s.Logger.Warn("housekeeping sweep still busy, abandoning wait")
	}
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx := context.Background()

	removed, err := s.Store.Sessions().DeleteExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
		return
	}
	if removed > 0 {
		s.Logger.Info("expired sessions removed", "count", removed)
	}
}
