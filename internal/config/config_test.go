package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGoogleKey = "AIza-test-key"
	testFirmsKey  = "firms-test-key"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("GOOGLE_GEOCODING_API_KEY", "")
	t.Setenv("FIRMS_MAP_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "postgres://localhost:5432/wildfire_geo?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "wildfire-geo.db", cfg.SQLitePath)

	assert.Empty(t, cfg.GoogleAPIKey)
	assert.Equal(t, "https://maps.googleapis.com/maps/api/geocode/json", cfg.GoogleBaseURL)
	assert.Equal(t, 8*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, 1000, cfg.GeocodeCacheSize)

	assert.Empty(t, cfg.FirmsMapKey)
	assert.Equal(t, "https://firms.modaps.eosdis.nasa.gov", cfg.FirmsBaseURL)
	assert.Equal(t, "VIIRS_SNPP_NRT", cfg.FirmsSource)
	assert.InDelta(t, 0.1, cfg.FirmsBBoxDelta, 1e-9)
	assert.Equal(t, 8*time.Second, cfg.FirmsTimeout)

	assert.True(t, cfg.RefreshEnabled)
	assert.Equal(t, 6*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 24*time.Hour, cfg.RefreshStaleAfter)
	assert.Equal(t, 25, cfg.RefreshBatchSize)

	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "address-wildfire-enrichments", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/geo.db")
	t.Setenv("GOOGLE_GEOCODING_API_KEY", testGoogleKey)
	t.Setenv("GEOCODE_TIMEOUT", "3s")
	t.Setenv("GEOCODE_CACHE_SIZE", "0")
	t.Setenv("FIRMS_MAP_KEY", testFirmsKey)
	t.Setenv("FIRMS_SOURCE", "MODIS_NRT")
	t.Setenv("FIRMS_BBOX_DELTA", "0.25")
	t.Setenv("FIRMS_TIMEOUT", "12s")
	t.Setenv("WILDFIRE_REFRESH_ENABLED", "false")
	t.Setenv("WILDFIRE_REFRESH_INTERVAL", "30m")
	t.Setenv("WILDFIRE_REFRESH_STALE_HOURS", "48")
	t.Setenv("WILDFIRE_REFRESH_BATCH_SIZE", "100")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-enrichments")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/geo.db", cfg.SQLitePath)
	assert.Equal(t, testGoogleKey, cfg.GoogleAPIKey)
	assert.Equal(t, 3*time.Second, cfg.GeocodeTimeout)
	assert.Equal(t, 0, cfg.GeocodeCacheSize)
	assert.Equal(t, testFirmsKey, cfg.FirmsMapKey)
	assert.Equal(t, "MODIS_NRT", cfg.FirmsSource)
	assert.InDelta(t, 0.25, cfg.FirmsBBoxDelta, 1e-9)
	assert.Equal(t, 12*time.Second, cfg.FirmsTimeout)
	assert.False(t, cfg.RefreshEnabled)
	assert.Equal(t, 30*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 48*time.Hour, cfg.RefreshStaleAfter)
	assert.Equal(t, 100, cfg.RefreshBatchSize)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-enrichments", cfg.KafkaTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"GEOCODE_TIMEOUT", "soon"},
		{"GEOCODE_TIMEOUT", "-1s"},
		{"FIRMS_TIMEOUT", "0s"},
		{"WILDFIRE_REFRESH_INTERVAL", "often"},
		{"GEOCODE_CACHE_SIZE", "-5"},
		{"GEOCODE_CACHE_SIZE", "lots"},
		{"FIRMS_BBOX_DELTA", "0"},
		{"FIRMS_BBOX_DELTA", "-0.1"},
		{"FIRMS_BBOX_DELTA", "wide"},
		{"WILDFIRE_REFRESH_STALE_HOURS", "0"},
		{"WILDFIRE_REFRESH_BATCH_SIZE", "0"},
		{"WILDFIRE_REFRESH_BATCH_SIZE", "1001"},
		{"WILDFIRE_REFRESH_ENABLED", "maybe"},
		{"STORE_DRIVER", "mongo"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_BatchSizeBounds(t *testing.T) {
	t.Setenv("WILDFIRE_REFRESH_BATCH_SIZE", "1")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.RefreshBatchSize)

	t.Setenv("WILDFIRE_REFRESH_BATCH_SIZE", "1000")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.RefreshBatchSize)
}
