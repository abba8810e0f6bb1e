// Package logger provides a configured zerolog logger.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a JSON logger tagged with serviceName. An unknown level falls
// back to info.
func New(serviceName, level string) zerolog.Logger {
	return newWithWriter(os.Stdout, serviceName, level)
}

// NewConsole returns a human-readable logger on stderr for interactive use.
func NewConsole(serviceName, level string) zerolog.Logger {
	w := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	return newWithWriter(w, serviceName, level)
}

func newWithWriter(w io.Writer, serviceName, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
