package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_MemoryStore(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("KAFKA_BROKERS", "")

	a, err := newApp(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.close)

	// The shared logger installs itself as the process default.
	assert.Same(t, slog.Default(), a.logger)
	assert.True(t, a.logger.Enabled(context.Background(), slog.LevelDebug))
	require.NoError(t, a.store.CheckReadiness(context.Background()))
	assert.NotNil(t, a.resolver)
	assert.NotNil(t, a.refresher)
}
