package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	StoreDriver string
	DatabaseURL string
	SQLitePath  string

	// Google geocoding configuration.
	GoogleAPIKey     string
	GoogleBaseURL    string
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int

	// NASA FIRMS configuration.
	FirmsMapKey    string
	FirmsBaseURL   string
	FirmsSource    string
	FirmsBBoxDelta float64
	FirmsTimeout   time.Duration

	// Staleness refresh batch.
	RefreshEnabled    bool
	RefreshInterval   time.Duration
	RefreshStaleAfter time.Duration
	RefreshBatchSize  int

	// Kafka publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first if present; real
// environment variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	geocodeTimeout, err := parsePositiveDuration("GEOCODE_TIMEOUT", "8s")
	if err != nil {
		return nil, err
	}
	firmsTimeout, err := parsePositiveDuration("FIRMS_TIMEOUT", "8s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parsePositiveDuration("WILDFIRE_REFRESH_INTERVAL", "6h")
	if err != nil {
		return nil, err
	}

	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("GEOCODE_CACHE_SIZE", "1000"))
	if err != nil || cacheSize < 0 {
		return nil, errors.New("invalid GEOCODE_CACHE_SIZE")
	}

	bboxDelta, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("FIRMS_BBOX_DELTA", "0.1"), 64)
	if err != nil || bboxDelta <= 0 || bboxDelta > 10 {
		return nil, errors.New("invalid FIRMS_BBOX_DELTA")
	}

	staleHours, err := strconv.Atoi(sharedcfg.EnvOrDefault("WILDFIRE_REFRESH_STALE_HOURS", "24"))
	if err != nil || staleHours <= 0 {
		return nil, errors.New("invalid WILDFIRE_REFRESH_STALE_HOURS")
	}

	batchSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("WILDFIRE_REFRESH_BATCH_SIZE", "25"))
	if err != nil || batchSize < 1 || batchSize > 1000 {
		return nil, errors.New("invalid WILDFIRE_REFRESH_BATCH_SIZE: must be between 1 and 1000")
	}

	refreshEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("WILDFIRE_REFRESH_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid WILDFIRE_REFRESH_ENABLED")
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StoreDriver: sharedcfg.EnvOrDefault("STORE_DRIVER", StoreDriverPostgres),
		DatabaseURL: sharedcfg.EnvOrDefault("DATABASE_URL", "postgres://localhost:5432/wildfire_geo?sslmode=disable"),
		SQLitePath:  sharedcfg.EnvOrDefault("SQLITE_PATH", "wildfire-geo.db"),

		GoogleAPIKey:     os.Getenv("GOOGLE_GEOCODING_API_KEY"),
		GoogleBaseURL:    sharedcfg.EnvOrDefault("GOOGLE_GEOCODING_URL", "https://maps.googleapis.com/maps/api/geocode/json"),
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: cacheSize,

		FirmsMapKey:    os.Getenv("FIRMS_MAP_KEY"),
		FirmsBaseURL:   sharedcfg.EnvOrDefault("FIRMS_BASE_URL", "https://firms.modaps.eosdis.nasa.gov"),
		FirmsSource:    sharedcfg.EnvOrDefault("FIRMS_SOURCE", "VIIRS_SNPP_NRT"),
		FirmsBBoxDelta: bboxDelta,
		FirmsTimeout:   firmsTimeout,

		RefreshEnabled:    refreshEnabled,
		RefreshInterval:   refreshInterval,
		RefreshStaleAfter: time.Duration(staleHours) * time.Hour,
		RefreshBatchSize:  batchSize,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "address-wildfire-enrichments"),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required")
		}
	case StoreDriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLITE_PATH is required")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: must be postgres, sqlite, or memory", cfg.StoreDriver)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

// KafkaEnabled reports whether enrichment events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
