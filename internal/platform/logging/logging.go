// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"go.elastic.co/ecszerolog"
)

const appName = "eessp"

// New returns a logger writing to w at level in the given format:
// "console" (human readable), "json" (zerolog native) or "ecs" (Elastic
// Common Schema).
func New(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parse log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	switch format {
	case "console":
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	case "json", "":
		logger = zerolog.New(w).With().Timestamp().Logger()
	case "ecs":
		logger = ecszerolog.New(w)
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}

	return logger.Level(lvl).With().Str("app", appName).Logger(), nil
}
