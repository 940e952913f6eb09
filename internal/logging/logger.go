// Package logging configures the charmbracelet/log loggers used by mdsync.
//
// One-shot commands log through the package default, which writes plain
// lines to stderr. The preview host uses a service logger with timestamps
// and a component prefix, carried to the server through the context.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

//nolint:gochecknoglobals // process-wide default logger
var (
	defaultMu     sync.RWMutex
	defaultLogger = newLogger(os.Stderr, log.InfoLevel, false)
)

// ParseLevel maps a level name to a log.Level. Unknown or empty names
// fall back to info; "warning" is accepted as an alias of "warn".
func ParseLevel(name string) log.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	level, err := log.ParseLevel(name)
	if err != nil || level > log.ErrorLevel {
		return log.InfoLevel
	}
	return level
}

// New creates a stderr logger at the named level.
func New(level string) *log.Logger {
	return newLogger(os.Stderr, ParseLevel(level), false)
}

// NewService creates a logger for long-running processes: timestamped,
// prefixed with component, and writing to w.
func NewService(w io.Writer, component string, debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	logger := newLogger(w, level, true)
	if component != "" {
		logger.SetPrefix(component)
	}
	return logger
}

func newLogger(w io.Writer, level log.Level, timestamps bool) *log.Logger {
	opts := log.Options{Level: level, ReportTimestamp: timestamps}
	if timestamps {
		opts.TimeFormat = "15:04:05"
	}
	return log.NewWithOptions(w, opts)
}

// Default returns the process-wide logger.
func Default() *log.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger and makes it the
// charmbracelet default as well, so packages logging through log.Default
// see the same settings.
func SetDefault(logger *log.Logger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
	log.SetDefault(logger)
}

// SetLevel changes the level of the process-wide logger.
func SetLevel(level string) {
	Default().SetLevel(ParseLevel(level))
}
