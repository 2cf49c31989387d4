// Package opshell holds what the container packages share: the console
// logger the CLI hands to the store, shell, lifecycle runner and assistant,
// and the build information printed by `opshell version`.
package opshell

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates the console logger for one opshell invocation. Records
// carry lib=opshell; packages add their own component field on top.
func NewLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("lib", "opshell").
		Logger()
}

// VerbosityLevel maps the -v count of the CLI to a level. Without -v only
// warnings show (failed saves, assistant errors); -v adds lifecycle steps,
// -vv every shell command, -vvv everything.
func VerbosityLevel(verbose int) zerolog.Level {
	switch {
	case verbose <= 0:
		return zerolog.WarnLevel
	case verbose == 1:
		return zerolog.InfoLevel
	case verbose == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// NewTestLogger creates a logger for tests, usually writing to a buffer the
// test inspects.
func NewTestLogger(w io.Writer, verbose int) zerolog.Logger {
	return NewLogger(w, VerbosityLevel(verbose))
}

// LogLevelFromString parses the log_level config key or --log-level flag.
func LogLevelFromString(levelStr string) (zerolog.Level, error) {
	return zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(levelStr)))
}

// DefaultLogger is the logger used before configuration is loaded.
func DefaultLogger() zerolog.Logger {
	return NewLogger(os.Stderr, zerolog.WarnLevel)
}

// Component tags logger with the package that owns it, such as "store" or
// "assistant".
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
