package main

import (
	"context"
	"fmt"
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wildfire-geo-service/internal/adapter/firms"
	"github.com/couchcryptid/wildfire-geo-service/internal/adapter/google"
	kafkaadapter "github.com/couchcryptid/wildfire-geo-service/internal/adapter/kafka"
	"github.com/couchcryptid/wildfire-geo-service/internal/adapter/memory"
	"github.com/couchcryptid/wildfire-geo-service/internal/adapter/postgres"
	"github.com/couchcryptid/wildfire-geo-service/internal/adapter/sqlite"
	"github.com/couchcryptid/wildfire-geo-service/internal/config"
	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
	"github.com/couchcryptid/wildfire-geo-service/internal/observability"
	"github.com/couchcryptid/wildfire-geo-service/internal/pipeline"
)

// readyStore is a store that can also report readiness.
type readyStore interface {
	domain.AddressStore
	sharedobs.ReadinessChecker
}

// app holds the wired service graph shared by every subcommand.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	store     readyStore
	resolver  *pipeline.Resolver
	refresher *pipeline.Refresher

	closers []func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return nil, err
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
		clock:   clockwork.NewRealClock(),
	}

	if err := a.openStore(ctx); err != nil {
		a.close()
		return nil, err
	}

	var geocoder domain.Geocoder = google.NewClient(google.Config{
		APIKey:  cfg.GoogleAPIKey,
		BaseURL: cfg.GoogleBaseURL,
		Timeout: cfg.GeocodeTimeout,
	}, a.metrics, logger)
	if cfg.GeocodeCacheSize > 0 {
		geocoder = google.NewCachedGeocoder(geocoder, cfg.GeocodeCacheSize, a.metrics)
	}
	if cfg.GoogleAPIKey == "" {
		logger.Warn("GOOGLE_GEOCODING_API_KEY is not set; address creation will fail")
	}

	wildfires := firms.NewClient(firms.Config{
		MapKey:    cfg.FirmsMapKey,
		BaseURL:   cfg.FirmsBaseURL,
		Source:    cfg.FirmsSource,
		BBoxDelta: cfg.FirmsBBoxDelta,
		Timeout:   cfg.FirmsTimeout,
	}, a.metrics, logger)
	if cfg.FirmsMapKey == "" {
		logger.Warn("FIRMS_MAP_KEY is not set; wildfire enrichment will fail")
	}

	// Left as a nil interface when Kafka is disabled.
	var publisher pipeline.EnrichmentPublisher
	if cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		a.closers = append(a.closers, w.Close)
		publisher = w
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	}

	enricher := pipeline.NewEnricher(a.store, wildfires, publisher, a.clock, logger, a.metrics)
	a.resolver = pipeline.NewResolver(a.store, geocoder, enricher, a.clock, logger, a.metrics)
	a.refresher = pipeline.NewRefresher(a.store, enricher, a.clock, logger, a.metrics, cfg.RefreshStaleAfter, cfg.RefreshBatchSize)

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreDriver {
	case config.StoreDriverPostgres:
		s, err := postgres.New(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { s.Close(); return nil })
		if err := s.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		a.store = s
	case config.StoreDriverSQLite:
		s, err := sqlite.Open(ctx, a.cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		a.store = s
	case config.StoreDriverMemory:
		a.store = memory.New()
	default:
		return fmt.Errorf("unknown store driver %q", a.cfg.StoreDriver)
	}
	a.logger.Info("store ready", "driver", a.cfg.StoreDriver)
	return nil
}

// close releases resources in reverse acquisition order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("close error", "error", err)
		}
	}
	a.closers = nil
}
