// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Component names used across the service.
const (
	ComponentPixabay   = "pixabay-client"
	ComponentRateLimit = "ratelimit"
	ComponentSession   = "session"
	ComponentWeb       = "web"
	ComponentServer    = "server"
	ComponentTerminal  = "terminal"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Outbound Pixabay request parameters (query, page, per_page)
//   - View operations sent to a browser connection
//   - Rate limit state reads
//
// Info: Normal operation events
//   - Completed search / load-more actions with hit counts
//   - Browser connections opened and closed
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Rate limit throttling
//   - Rejected re-entrant actions
//   - Failed writes to a view surface
//
// Error: Error conditions requiring attention
//   - Failed Pixabay requests (network or service)
//   - Critical rate limit blocks
//   - Configuration errors
//
// Context Fields:
//   - component: emitting package
//   - conn_id: browser connection id
//   - query: search query
//   - page: 1-based page number
//   - status: HTTP status returned by Pixabay
//   - error_class: client, server, rate_limit, network
//   - remaining: requests left in the current rate limit window
//   - state: session state after an action
