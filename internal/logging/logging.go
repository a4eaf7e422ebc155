// Package logging builds the slog loggers used by the CLI and the generation
// pipeline, rendered by charmbracelet/log.
package logging

import (
	"io"
	"log/slog"
	"time"

	charmlog "github.com/charmbracelet/log"
)

const prefix = "openapi2sdk"

// New returns a logger writing to w. Verbose lowers the level to debug and
// adds timestamps.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := charmlog.InfoLevel
	if verbose {
		level = charmlog.DebugLevel
	}
	charmLogger := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: verbose,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
	})
	return slog.New(charmLogger)
}
