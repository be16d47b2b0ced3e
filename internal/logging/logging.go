// Package logging builds the structured logger shared by all fpchecker components.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects where log records go and which are kept. The zero value
// logs warnings and errors as text to stderr.
type Config struct {
	Output io.Writer
	Level  slog.Level
	// Debug forces slog.LevelDebug regardless of Level.
	Debug bool
	// Format is "text" or "json".
	Format string
}

func DefaultConfig() *Config {
	return &Config{Output: os.Stderr, Level: slog.LevelWarn, Format: "text"}
}

// New builds the logger for cfg. fpchecker logs each classified and
// rewritten trace line at debug, record and replay milestones at info, and
// state database problems at warn.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.level(), ReplaceAttr: renameTime}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

func (c *Config) level() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return c.Level
}

func renameTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		a.Key = "ts"
	}
	return a
}

// NewFromEnv returns the default logger, at debug when FPCHECKER_DEBUG=1.
func NewFromEnv() *slog.Logger {
	cfg := DefaultConfig()
	cfg.Debug = os.Getenv("FPCHECKER_DEBUG") == "1"
	return New(cfg)
}

// ParseLevel maps a level name to a slog level. Unknown names map to warn.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
