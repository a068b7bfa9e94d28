package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wildfire-geo-service/internal/observability"
)

// Scheduler runs a BatchRunner on a fixed interval until its context ends.
type Scheduler struct {
	runner   BatchRunner
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
	started  atomic.Bool
}

// NewScheduler creates a Scheduler. The first run happens one interval after Run starts.
func NewScheduler(runner BatchRunner, clock clockwork.Clock, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		runner:   runner,
		clock:    clock,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil while the scheduler loop is running.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.started.Load() {
		return errors.New("refresh scheduler has not started")
	}
	return nil
}

// Run ticks until ctx is cancelled. Runs never overlap: a tick that fires
// during a long batch is coalesced by the ticker.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("refresh scheduler started", "interval", s.interval)
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	s.started.Store(true)
	defer s.started.Store(false)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("refresh scheduler stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	updated, err := s.runner.RefreshStale(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("scheduled refresh failed", "error", err)
		return
	}
	s.logger.Info("scheduled refresh finished", "updated", updated)
}
