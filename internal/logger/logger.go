// Package logger configures the global zerolog logger and hands out
// component loggers.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string // trace, debug, info, warn, error, fatal, panic
	Format     string // json, console
	TimeFormat string // RFC3339, Unix, or a time layout
	Output     string // stdout, stderr, or file path
}

// logFile is the file the global logger writes to, nil for stdout and stderr.
var logFile *os.File

// DefaultConfig is info-level console output on stdout.
func DefaultConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     "console",
		TimeFormat: time.RFC3339,
		Output:     "stdout",
	}
}

// Setup replaces the global logger. A log file opened by an earlier Setup is
// closed.
func Setup(cfg LogConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return err
	}

	file, err := openOutput(cfg.Output)
	if err != nil {
		return err
	}
	var out io.Writer = os.Stdout
	switch {
	case file != nil:
		out = file
	case cfg.Output == "stderr":
		out = os.Stderr
	}
	if !strings.EqualFold(cfg.Format, "json") {
		// No ANSI colors in log files.
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat, NoColor: file != nil}
	}

	zerolog.SetGlobalLevel(level)
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	if logFile != nil {
		logFile.Close()
	}
	logFile = file
	return nil
}

// openOutput opens target for appending. It returns nil for stdout and
// stderr.
func openOutput(target string) (*os.File, error) {
	switch target {
	case "", "stdout", "stderr":
		return nil, nil
	}
	return os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

// WithComponent returns a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// WithDocument returns a component logger tagged with the PDF being handled.
func WithDocument(component, path string) zerolog.Logger {
	return log.Logger.With().
		Str("component", component).
		Str("file", filepath.Base(path)).
		Logger()
}

// WithRequestID tags a logger with the HTTP request ID.
func WithRequestID(requestID string) zerolog.Logger {
	return log.Logger.With().Str("request_id", requestID).Logger()
}
