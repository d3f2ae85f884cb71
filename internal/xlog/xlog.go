// Package xlog provides the package-wide zerolog wiring shared by every
// component in tempusutil. It mirrors the Init/WithComponent pattern used
// by cuemby-warren's pkg/log: a single process-wide logger, with
// per-component child loggers carrying a "component" field.
package xlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level is a subset of zerolog levels exposed to callers who do not want
// to import zerolog directly just to configure tempusutil.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	// DisabledLevel silences all output. This is the default so that
	// embedding an otherwise silent library doesn't surprise callers with
	// unexpected stderr noise.
	DisabledLevel Level = "disabled"
)

// Config configures the package-wide logger.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

var base = zerolog.New(io.Discard).With().Timestamp().Logger()

// Init (re)configures the global logger used by every tempusutil
// component. Call it before constructing any cache/pool/task-group:
// each constructor resolves its own component logger via Component at
// construction time and stores it on the struct, so a component built
// before Init runs keeps the disabled default for its lifetime.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	case DisabledLevel, "":
		level = zerolog.Disabled
	default:
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		base = zerolog.New(output).Level(level).With().Timestamp().Logger()
	} else {
		base = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).Level(level).With().Timestamp().Logger()
	}
}

// Component returns a child logger tagged with the given component name,
// e.g. xlog.Component("cache"), xlog.Component("pool").
func Component(name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}
