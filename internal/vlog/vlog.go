// Package vlog is the structured logger used by the grid package: a single package-level zerolog.Logger writing to stderr,
// unix-time timestamps.
package vlog

import (
	"os"

	"github.com/rs/zerolog"
)

var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// Get returns the shared logger.
func Get() *zerolog.Logger {
	return &Logger
}

// Level sets the minimum level the shared logger emits.
func Level(l zerolog.Level) {
	Logger = Logger.Level(l)
}

// Component returns a logger scoped to a subsystem name via a
// "component" field, so every log line a package emits carries its
// origin without repeating Str("component", ...) at each call site.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}
