// pkg/logging/logging.go
package logging

import (
	"fmt"
	"io"
	stdLog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options selects the global logging behavior.
type Options struct {
	Level  string // debug, info, warn, error (default error)
	Format string // "json" or "text" (default text)
	File   string // optional log file path; empty means stdout
}

// stdLogWriter reformats stdlog output into zerolog events so libraries
// that log through the standard library land in the same stream.
type stdLogWriter struct {
	logger zerolog.Logger
}

func (w *stdLogWriter) Write(p []byte) (n int, err error) {
	message := strings.TrimSuffix(string(p), "\n")
	w.logger.Debug().Msg(message)
	return len(p), nil
}

func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
}

// ConfigureGlobal configures the global zerolog logger. It is called once
// from the CLI bootstrap, after configuration has been loaded.
func ConfigureGlobal(opts Options) error {
	level := parseLogLevel(opts.Level)
	zerolog.SetGlobalLevel(level)

	w, err := buildWriter(opts)
	if err != nil {
		return err
	}

	logContext := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	// Route stdlog (used by some dependencies, e.g. the ping library)
	// through zerolog.
	stdLog.SetFlags(0)
	stdLog.SetOutput(&stdLogWriter{logger: log.Logger})

	return nil
}

// NewLogger returns a component-scoped logger at the given level, writing
// to stdout.
func NewLogger(component string, level zerolog.Level) zerolog.Logger {
	return NewLoggerWithWriter(component, level, os.Stdout)
}

// NewLoggerWithWriter returns a component-scoped logger writing to w.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).With().
		Timestamp().
		Str("component", component).
		Logger()
}

// buildWriter resolves the destination and format for global logging.
func buildWriter(opts Options) (io.Writer, error) {
	var out io.Writer = os.Stdout
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", opts.File, err)
		}
		out = f
	}

	switch strings.ToLower(opts.Format) {
	case "json":
		return out, nil
	default:
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}, nil
	}
}

// parseLogLevel converts a string log level to zerolog.Level.
func parseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		levelString = "error"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		log.Error().Err(err).
			Str("logLevel", levelString).
			Msg("Invalid log level provided. Defaulting to error level.")
		return zerolog.ErrorLevel
	}
	return level
}
