package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
	"github.com/couchcryptid/wildfire-geo-service/internal/observability"
)

// Refresher re-enriches addresses whose wildfire data is older than the
// staleness threshold, one bounded batch per call.
type Refresher struct {
	store      domain.AddressStore
	enricher   *Enricher
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
	staleAfter time.Duration
	batchSize  int

	running sync.Mutex
}

// NewRefresher creates a Refresher. staleAfter and batchSize must be positive.
func NewRefresher(store domain.AddressStore, enricher *Enricher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, staleAfter time.Duration, batchSize int) *Refresher {
	return &Refresher{
		store:      store,
		enricher:   enricher,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		staleAfter: staleAfter,
		batchSize:  batchSize,
	}
}

// RefreshStale processes one batch sequentially and returns how many
// addresses were updated. Per-address failures are logged and skipped. Only
// a failure to select the batch, or cancellation, is returned as an error.
// A call made while another batch is running returns domain.ErrConflict.
func (r *Refresher) RefreshStale(ctx context.Context) (int, error) {
	if !r.running.TryLock() {
		return 0, fmt.Errorf("%w: refresh already running", domain.ErrConflict)
	}
	defer r.running.Unlock()

	start := r.clock.Now()
	staleBefore := start.Add(-r.staleAfter)

	stale, err := r.store.FindStale(ctx, staleBefore, r.batchSize)
	if err != nil {
		r.metrics.RefreshRuns.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("%w: find stale addresses: %w", domain.ErrInternal, err)
	}
	r.logger.Info("refresh started", "stale_before", staleBefore, "candidates", len(stale), "batch_size", r.batchSize)

	updated := 0
	for _, addr := range stale {
		if err := ctx.Err(); err != nil {
			r.metrics.RefreshRuns.WithLabelValues("error").Inc()
			r.logger.Warn("refresh interrupted", "updated", updated, "reason", err)
			return updated, err
		}
		if _, err := r.enricher.Enrich(ctx, addr); err != nil {
			r.metrics.RefreshFailures.Inc()
			r.metrics.EnrichmentFailures.WithLabelValues("refresh").Inc()
			r.logger.Warn("refresh failed, skipping address",
				"address_id", addr.ID, "kind", domain.Kind(err), "error", err)
			continue
		}
		updated++
	}

	r.metrics.RefreshRuns.WithLabelValues("success").Inc()
	r.metrics.RefreshUpdated.Add(float64(updated))
	r.metrics.RefreshDuration.Observe(r.clock.Since(start).Seconds())
	r.logger.Info("refresh complete", "updated", updated, "candidates", len(stale))
	return updated, nil
}
