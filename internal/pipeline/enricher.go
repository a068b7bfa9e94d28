package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
	"github.com/couchcryptid/wildfire-geo-service/internal/observability"
)

// Enricher fetches wildfire data for a geocoded address and persists it.
type Enricher struct {
	store     domain.AddressStore
	wildfires domain.WildfireProvider
	publisher EnrichmentPublisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewEnricher creates an Enricher. publisher may be nil.
func NewEnricher(store domain.AddressStore, wildfires domain.WildfireProvider, publisher EnrichmentPublisher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Enricher {
	return &Enricher{
		store:     store,
		wildfires: wildfires,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Enrich replaces addr's wildfire data with a fresh fetch, stamps
// wildfireFetchedAt, and saves the record. On error the stored record is left
// as it was and the original addr is returned unchanged.
func (e *Enricher) Enrich(ctx context.Context, addr domain.Address) (domain.Address, error) {
	coords, ok := addr.Coordinates()
	if !ok {
		return addr, fmt.Errorf("%w: address %s has no coordinates", domain.ErrInvalidInput, addr.ID)
	}

	data, err := e.wildfires.FetchWildfires(ctx, coords.Lat, coords.Lng)
	if err != nil {
		return addr, fmt.Errorf("fetch wildfires: %w", err)
	}

	now := e.clock.Now().UTC()
	updated := addr
	updated.WildfireData = data
	updated.WildfireFetchedAt = &now
	updated.UpdatedAt = now

	if err := e.store.Save(ctx, updated); err != nil {
		return addr, fmt.Errorf("save wildfire data: %w", err)
	}

	e.logger.Info("wildfire data saved",
		"address_id", updated.ID,
		"count", data.Count,
		"bbox", data.BBox,
	)
	e.publish(ctx, updated)
	return updated, nil
}

// publish is best-effort; a failure never undoes the saved enrichment.
func (e *Enricher) publish(ctx context.Context, addr domain.Address) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishEnrichment(ctx, addr); err != nil {
		e.metrics.PublishErrors.Inc()
		e.logger.Warn("publish enrichment failed", "address_id", addr.ID, "error", err)
		return
	}
	e.metrics.EventsPublished.Inc()
}
