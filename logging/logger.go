// SPDX-License-Identifier: MIT

// Package logging configures the module-wide zerolog base logger and hands
// out component-scoped children.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the knobs for the process-wide logger. Every field is
// optional; the zero value yields info-level JSON on stderr.
type Config struct {
	Level   string    // "debug", "info", ... ; CAMCORE_LOG_LEVEL when empty
	Output  io.Writer // defaults to os.Stderr
	Service string    // service name stamped on every entry
}

var (
	once sync.Once
	base zerolog.Logger
)

// Configure wins exactly once per process; later calls, including the
// implicit one from the first log site, are ignored. Embedders that want
// control must therefore call it before logging anything.
func Configure(cfg Config) {
	once.Do(func() {
		level := zerolog.InfoLevel
		if cfg.Level != "" {
			if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
				level = parsed
			}
		} else if env := os.Getenv("CAMCORE_LOG_LEVEL"); env != "" {
			if parsed, err := zerolog.ParseLevel(env); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		writer := cfg.Output
		if writer == nil {
			writer = os.Stderr
		}

		service := cfg.Service
		if service == "" {
			service = "camcore"
		}

		base = zerolog.New(writer).With().
			Timestamp().
			Str("service", service).
			Logger()
	})
}

func logger() zerolog.Logger {
	Configure(Config{})
	return base
}

// Base returns the shared logger, configuring defaults on first use.
func Base() zerolog.Logger {
	return logger()
}

// WithComponent derives a child logger tagged with a component name so
// entries can be filtered per package.
func WithComponent(component string) zerolog.Logger {
	return logger().With().Str(FieldComponent, component).Logger()
}
