package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/scry-bootstrap/internal/config"
	"github.com/phrazzld/scry-bootstrap/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := logger.ParseLevel(tt.name)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	capture := &logger.Capture{}
	log, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "warn"}, capture)
	require.NoError(t, err)
	require.NotNil(t, log)

	log.Info("filtered out")
	log.Warn("kept", "component", "test")

	records, err := capture.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0]["msg"])
	assert.Equal(t, "test", records[0]["component"])

	_, found := capture.Find("filtered out")
	assert.False(t, found)
	assert.Same(t, log, slog.Default())
}

func TestFromContext(t *testing.T) {
	t.Run("returns stored logger", func(t *testing.T) {
		_, log := logger.NewCapture(slog.LevelDebug)
		ctx := logger.WithLogger(context.Background(), log)
		assert.Same(t, log, logger.FromContext(ctx))
	})

	t.Run("falls back to default", func(t *testing.T) {
		assert.Same(t, slog.Default(), logger.FromContext(context.Background()))
	})
}
