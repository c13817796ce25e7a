package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/fracbond-investment-ledger/internal/config"
)

// NewLogger builds the process-wide JSON logger. Both the API server and
// the audit worker log structured JSON to stdout so log shippers can pick
// the records up without extra parsing.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		// Source locations are only worth the log volume when debugging.
		AddSource: level == slog.LevelDebug,
	})

	log := slog.New(handler)
	log.Info("logging configured", "level", level)
	return log
}

// parseLevel maps the configured level name onto slog, defaulting to info
// for anything it does not recognize.
func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
