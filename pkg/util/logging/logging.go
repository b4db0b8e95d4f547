package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"textot/pkg/config"
)

var logLevelMapping = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Init installs the default logger. LOG_LEVEL, when set, overrides the
// configured level.
func Init(cfg config.LoggingConfig, siteID string) *slog.Logger {
	logger := New(os.Stdout, cfg, siteID)
	slog.SetDefault(logger)
	return logger
}

func New(w io.Writer, cfg config.LoggingConfig, siteID string) *slog.Logger {
	level := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = strings.ToLower(cfg.Level)
	}

	logLevel, ok := logLevelMapping[level]
	if !ok {
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("site_id", siteID)
}
