// Package logging builds the process-wide zerolog logger the examload
// subcommands write their phase progress through.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns a logger for the requested --log-format. "text" wraps
// stderr in a console writer for interactive ingest runs; any other value
// emits raw JSON lines for log collectors.
func Setup(format string) zerolog.Logger {
	if format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
