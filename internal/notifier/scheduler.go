package notifier

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler runs sweeps on a fixed interval.
type Scheduler struct {
	sweeper  *Sweeper
	log      *slog.Logger
	interval time.Duration
}

// NewScheduler creates a Scheduler. A non-positive interval defaults to one
// hour.
func NewScheduler(sweeper *Sweeper, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		sweeper:  sweeper,
		log:      log,
		interval: interval,
	}
}

// Run sweeps once immediately and then on every tick, blocking until ctx is
// cancelled. A failed sweep is logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("notification scheduler started", "interval", s.interval)
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("notification scheduler stopped")
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	if _, err := s.sweeper.Sweep(ctx); err != nil && ctx.Err() == nil {
		s.log.Error("sweep", "error", err)
	}
}
