package pipeline_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wildfire-geo-service/internal/adapter/memory"
	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
	"github.com/couchcryptid/wildfire-geo-service/internal/observability"
	"github.com/couchcryptid/wildfire-geo-service/internal/pipeline"
)

var testNow = time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)

// --- mocks ---

type mockGeocoder struct {
	calls  atomic.Int64
	result domain.GeocodeResult
	err    error
}

func (m *mockGeocoder) Geocode(_ context.Context, _ string) (domain.GeocodeResult, error) {
	m.calls.Add(1)
	return m.result, m.err
}

type mockWildfires struct {
	mu      sync.Mutex
	calls   int
	failLat map[float64]bool
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (m *mockWildfires) FetchWildfires(ctx context.Context, lat, lng float64) (domain.WildfireData, error) {
	m.mu.Lock()
	m.calls++
	fail := m.failLat[lat]
	err := m.err
	m.mu.Unlock()

	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return domain.WildfireData{}, ctx.Err()
		}
	}
	if err != nil {
		return domain.WildfireData{}, err
	}
	if fail {
		return domain.WildfireData{}, domain.ErrUpstreamUnavailable
	}
	return domain.WildfireData{
		Count:     1,
		Records:   []domain.FireDetection{{"latitude": "1", "longitude": "2"}},
		BBox:      "bbox",
		RangeDays: domain.DefaultRangeDays,
		Source:    "VIIRS_SNPP_NRT",
	}, nil
}

func (m *mockWildfires) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockPublisher struct {
	mu        sync.Mutex
	published []domain.Address
	err       error
}

func (m *mockPublisher) PublishEnrichment(_ context.Context, addr domain.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, addr)
	return nil
}

type countingRunner struct {
	calls atomic.Int64
}

func (r *countingRunner) RefreshStale(context.Context) (int, error) {
	r.calls.Add(1)
	return 0, nil
}

// --- fixtures ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	clock     *clockwork.FakeClock
	store     *memory.Store
	geocoder  *mockGeocoder
	wildfires *mockWildfires
	publisher *mockPublisher
	metrics   *observability.Metrics
	enricher  *pipeline.Enricher
	resolver  *pipeline.Resolver
}

func newFixture() *fixture {
	f := &fixture{
		clock: clockwork.NewFakeClockAt(testNow),
		store: memory.New(),
		geocoder: &mockGeocoder{result: domain.GeocodeResult{
			Lat: 37.4224, Lng: -122.0842, Raw: json.RawMessage(`{"status":"OK"}`),
		}},
		wildfires: &mockWildfires{},
		publisher: &mockPublisher{},
		metrics:   observability.NewMetricsForTesting(),
	}
	f.enricher = pipeline.NewEnricher(f.store, f.wildfires, f.publisher, f.clock, discardLogger(), f.metrics)
	f.resolver = pipeline.NewResolver(f.store, f.geocoder, f.enricher, f.clock, discardLogger(), f.metrics)
	return f
}

func (f *fixture) refresher(staleAfter time.Duration, batchSize int) *pipeline.Refresher {
	return pipeline.NewRefresher(f.store, f.enricher, f.clock, discardLogger(), f.metrics, staleAfter, batchSize)
}

// seed inserts an address with coordinates (lat, lat) created createdAgo
// before testNow and optionally fetched fetchedAgo before testNow.
func (f *fixture) seed(ctx context.Context, text string, lat float64, createdAgo time.Duration, fetchedAgo *time.Duration) domain.Address {
	lng := lat
	created := testNow.Add(-createdAgo)
	addr, err := f.store.Create(ctx, domain.Address{
		Address:           text,
		AddressNormalized: domain.NormalizeAddress(text),
		Latitude:          &lat,
		Longitude:         &lng,
		WildfireData:      domain.EmptyWildfireData(),
		CreatedAt:         created,
		UpdatedAt:         created,
	})
	if err != nil {
		panic(err)
	}
	if fetchedAgo != nil {
		at := testNow.Add(-*fetchedAgo)
		addr.WildfireFetchedAt = &at
		addr.UpdatedAt = at
		if err := f.store.Save(ctx, addr); err != nil {
			panic(err)
		}
	}
	return addr
}

func ago(d time.Duration) *time.Duration { return &d }

// conflictStore simulates losing a create race: the first lookup misses,
// Create reports a conflict, and later lookups see the winner.
type conflictStore struct {
	*memory.Store
	winner  domain.Address
	lookups atomic.Int64
}

func (s *conflictStore) FindByNormalizedText(ctx context.Context, normalized string) (domain.Address, error) {
	if s.lookups.Add(1) == 1 {
		return domain.Address{}, domain.ErrNotFound
	}
	return s.winner, nil
}

func (s *conflictStore) Create(context.Context, domain.Address) (domain.Address, error) {
	return domain.Address{}, domain.ErrConflict
}
