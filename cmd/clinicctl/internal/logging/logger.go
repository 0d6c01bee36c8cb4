// Package logging holds the process logger for clinicctl.
//
// Initialise once in the root command with Init, then retrieve with Get.
// Diagnostics go to stderr so command output on stdout stays pipeable.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Defaults to "warn" when empty or unrecognised.
	Level string
	// Pretty enables coloured console output instead of JSON.
	Pretty bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

var (
	mu       sync.Mutex
	instance = zerolog.Nop()
	inited   bool
)

// Init builds the process logger. Only the first call has any effect.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if inited {
		return instance
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	instance = zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("component", "clinicctl").
		Logger()
	inited = true
	return instance
}

// Get returns the process logger, or a no-op logger before Init.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return instance
}

// Reset discards the logger so the next Init rebuilds it. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = zerolog.Nop()
	inited = false
}

// ParseLevel converts a level name to a zerolog.Level.
//
//	"trace" → TraceLevel
//	"debug" → DebugLevel
//	"info"  → InfoLevel
//	"warn"  → WarnLevel  ← default
//	"error" → ErrorLevel
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}
