package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		level         []string
		expectedLevel slog.Level
	}{
		{name: "local environment", env: EnvLocal, expectedLevel: slog.LevelDebug},
		{name: "dev environment", env: EnvDev, expectedLevel: slog.LevelDebug},
		{name: "prod environment", env: EnvProd, expectedLevel: slog.LevelInfo},
		{name: "prod with override", env: EnvProd, level: []string{"debug"}, expectedLevel: slog.LevelDebug},
		{name: "local with override", env: EnvLocal, level: []string{"error"}, expectedLevel: slog.LevelError},
		{name: "dev with override", env: EnvDev, level: []string{"warn"}, expectedLevel: slog.LevelWarn},
		{name: "unknown override keeps default", env: EnvProd, level: []string{"loud"}, expectedLevel: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.env, tt.level...)
			require.NotNil(t, log)
			ctx := context.Background()
			assert.Equal(t, tt.expectedLevel <= slog.LevelDebug, log.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.expectedLevel <= slog.LevelInfo, log.Enabled(ctx, slog.LevelInfo))
			assert.True(t, log.Enabled(ctx, slog.LevelError))
		})
	}
}

func TestPrettyHandler_WritesMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.With(slog.String("component", "todo_service")).
		WithGroup("todo").
		Info("created", slog.String("id", "abc"), Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "created")
	assert.Contains(t, out, `"component": "todo_service"`)
	assert.Contains(t, out, `"todo.id": "abc"`)
	assert.Contains(t, out, `"todo.error": "boom"`)
}

func TestPrettyHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
