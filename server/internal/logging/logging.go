// Package logging configures the process-wide slog logger.
//
// Logs are JSON lines on stdout, or on a size-rotated file when
// LogConfig.File is set. The level lives in a slog.LevelVar so a config
// reload can change it without rebuilding the handler.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/seisplot/seisplot/server/internal/config"
)

// Logger is the configured logger plus the handle used to change its level.
type Logger struct {
	*slog.Logger
	Level *slog.LevelVar

	closer io.Closer
}

// New builds a JSON logger from cfg. stdout is used when cfg.File is empty.
func New(cfg config.LogConfig, stdout io.Writer) *Logger {
	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())

	out := stdout
	var closer io.Closer
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		out, closer = lj, lj
	}

	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})),
		Level:  level,
		closer: closer,
	}
}

// Setup builds a logger from cfg and installs it as the slog default.
func Setup(cfg config.LogConfig) *Logger {
	l := New(cfg, os.Stdout)
	slog.SetDefault(l.Logger)
	return l
}

// Apply updates the level from a reloaded config. The output target is fixed
// for the life of the process.
func (l *Logger) Apply(cfg config.LogConfig) {
	if prev := l.Level.Level(); prev != cfg.SlogLevel() {
		l.Level.Set(cfg.SlogLevel())
		l.Info("logging: level changed", "from", prev.String(), "to", cfg.SlogLevel().String())
	}
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
