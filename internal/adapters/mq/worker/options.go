// Package worker drains the resolution task queue at a fixed pace.
package worker

import (
	"time"

	"github.com/minseo-lab/guildmain/pkg/logger"
)

// Option applies a configuration option to the PacedWorker.
type Option func(*PacedWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *PacedWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(log logger.Logger) Option {
	return func(w *PacedWorker) {
		if log != nil {
			w.logger = log
		}
	}
}

// WithPacing sets the fixed delay applied after every task.
func WithPacing(d time.Duration) Option {
	return func(w *PacedWorker) {
		if d >= 0 {
			w.pacing = d
		}
	}
}
