// Package logger configures the process-wide zerolog logger. CLI output
// goes to stdout; logs go to stderr so they never pollute piped results.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a console logger at info level, or debug when verbose
func New(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// Nop returns a disabled logger for tests and library callers that do
// not want output
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
