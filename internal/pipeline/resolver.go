package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
	"github.com/couchcryptid/wildfire-geo-service/internal/observability"
)

// Resolver implements the cache-aside address flow: look up by normalized
// text, otherwise geocode, persist, and enrich.
type Resolver struct {
	store    domain.AddressStore
	geocoder domain.Geocoder
	enricher *Enricher
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewResolver creates a Resolver.
func NewResolver(store domain.AddressStore, geocoder domain.Geocoder, enricher *Enricher, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{
		store:    store,
		geocoder: geocoder,
		enricher: enricher,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Create returns the stored record for addressText, creating it on a miss.
// A hit makes no provider calls. A wildfire enrichment failure is logged and
// the record is returned with its placeholder wildfire data.
func (r *Resolver) Create(ctx context.Context, addressText string) (domain.Address, error) {
	if strings.TrimSpace(addressText) == "" {
		return domain.Address{}, fmt.Errorf("%w: address is required", domain.ErrInvalidInput)
	}
	normalized := domain.NormalizeAddress(addressText)
	if normalized == "" {
		return domain.Address{}, fmt.Errorf("%w: address could not be normalized", domain.ErrInvalidInput)
	}

	existing, err := r.store.FindByNormalizedText(ctx, normalized)
	switch {
	case err == nil:
		r.metrics.AddressLookups.WithLabelValues("hit").Inc()
		r.logger.Info("cache hit", "address_id", existing.ID, "address_normalized", normalized)
		return existing, nil
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Address{}, fmt.Errorf("%w: lookup address: %w", domain.ErrInternal, err)
	}
	r.metrics.AddressLookups.WithLabelValues("miss").Inc()
	r.logger.Info("cache miss, geocoding", "address_normalized", normalized)

	geo, err := r.geocoder.Geocode(ctx, addressText)
	if err != nil {
		r.logger.Error("geocode failed", "address_normalized", normalized, "kind", domain.Kind(err), "error", err)
		return domain.Address{}, fmt.Errorf("geocode address: %w", err)
	}
	if err := domain.ValidateCoordinates(geo.Lat, geo.Lng); err != nil {
		r.logger.Warn("geocoder returned invalid coordinates",
			"address_normalized", normalized, "lat", geo.Lat, "lng", geo.Lng)
		return domain.Address{}, err
	}

	now := r.clock.Now().UTC()
	lat, lng := geo.Lat, geo.Lng
	created, err := r.store.Create(ctx, domain.Address{
		Address:           addressText,
		AddressNormalized: normalized,
		Latitude:          &lat,
		Longitude:         &lng,
		GeocodeRaw:        geo.Raw,
		WildfireData:      domain.EmptyWildfireData(),
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if errors.Is(err, domain.ErrConflict) {
		// A concurrent request created the same key first; return its record.
		winner, ferr := r.store.FindByNormalizedText(ctx, normalized)
		if ferr != nil {
			return domain.Address{}, fmt.Errorf("%w: reload after conflict: %w", domain.ErrInternal, ferr)
		}
		r.logger.Info("concurrent create, returning existing record", "address_id", winner.ID)
		return winner, nil
	}
	if err != nil {
		return domain.Address{}, fmt.Errorf("%w: persist address: %w", domain.ErrInternal, err)
	}
	if created.ID == "" {
		return domain.Address{}, fmt.Errorf("%w: store returned a record without an id", domain.ErrInternal)
	}
	r.metrics.AddressesCreated.Inc()
	r.logger.Info("address created", "address_id", created.ID, "lat", lat, "lng", lng)

	enriched, err := r.enricher.Enrich(ctx, created)
	if err != nil {
		r.metrics.EnrichmentFailures.WithLabelValues("create").Inc()
		r.logger.Error("wildfire enrichment failed",
			"address_id", created.ID, "kind", domain.Kind(err), "error", err)
		return created, nil
	}
	return enriched, nil
}

// List returns one newest-first page of addresses.
func (r *Resolver) List(ctx context.Context, limit, offset int) (domain.Page, error) {
	if limit <= 0 || offset < 0 {
		return domain.Page{}, fmt.Errorf("%w: limit must be positive and offset non-negative", domain.ErrInvalidInput)
	}

	items, total, err := r.store.FindPage(ctx, limit, offset)
	if err != nil {
		return domain.Page{}, fmt.Errorf("%w: list addresses: %w", domain.ErrInternal, err)
	}
	return domain.Page{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// Get returns a single address by id.
func (r *Resolver) Get(ctx context.Context, id string) (domain.Address, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Address{}, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}

	addr, err := r.store.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		r.logger.Info("address not found", "address_id", id)
		return domain.Address{}, fmt.Errorf("address %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Address{}, fmt.Errorf("%w: get address: %w", domain.ErrInternal, err)
	}
	return addr, nil
}
