// Package assetlog provides the structured logging used across the asset
// runtime. It wraps zerolog the same way the rest of this codebase's
// sibling services do: a package-global logger configured once at startup,
// with per-subsystem child loggers carrying typed fields.
package assetlog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance. Subsystems should derive a child
// logger from it via the With* helpers rather than logging through it
// directly.
var Logger zerolog.Logger

// Level is a logging verbosity threshold.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// zerolog resolves the level to its zerolog equivalent, defaulting to
// InfoLevel for an empty or unrecognized value.
func (l Level) zerolog() zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case InfoLevel:
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

// Config holds logging configuration. The host engine is responsible for
// loading this from wherever it keeps configuration; the core never reads
// a file or flag itself.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger. Safe to call once at host startup;
// packages in this module log through Logger (or a derived child logger)
// lazily, so Init may run after package init without losing messages as
// long as it runs before the first tick.
func Init(cfg Config) {
	zerolog.SetGlobalLevel(cfg.Level.zerolog())
	Logger = zerolog.New(writerFor(cfg)).With().Timestamp().Logger()
}

// writerFor picks the console or JSON writer a Config asks for, falling
// back to stdout when no Output was given.
func writerFor(cfg Config) io.Writer {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.JSONOutput {
		return output
	}
	return zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
}

func init() {
	// Sensible default so packages that log before Init runs (e.g. in
	// tests) still produce readable output instead of silence.
	Logger = zerolog.New(writerFor(Config{})).With().Timestamp().Logger()
}

// WithComponent creates a child logger tagged with a subsystem name
// (tracker, queue, storage, registry, ...).
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithAssetID creates a child logger tagged with an asset identifier.
func WithAssetID(assetID fmt.Stringer) zerolog.Logger {
	return Logger.With().Stringer("asset_id", assetID).Logger()
}

// WithTypeID creates a child logger tagged with a type identifier.
func WithTypeID(typeID fmt.Stringer) zerolog.Logger {
	return Logger.With().Stringer("type_id", typeID).Logger()
}

// WithHandle creates a child logger tagged with a load handle.
func WithHandle(handle uint32) zerolog.Logger {
	return Logger.With().Uint32("load_handle", handle).Logger()
}
