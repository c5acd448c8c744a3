package logger

import (
	"os"
	"strings"

	"golang.org/x/exp/slog"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// New builds the process logger for env. level, when set, overrides the
// env-derived minimum level ("debug", "info", "warn", "error").
func New(env string, level ...string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case EnvLocal:
		log = setupPrettySlog(levelOr(level, slog.LevelDebug))
	case EnvProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: levelOr(level, slog.LevelInfo)}))
	default:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: levelOr(level, slog.LevelDebug)}))
	}

	return log
}

func setupPrettySlog(level slog.Level) *slog.Logger {
	h := NewPrettyHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

func levelOr(level []string, def slog.Level) slog.Level {
	if len(level) == 0 {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(level[0])) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return def
}

// Err is a shorthand attribute for errors.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
