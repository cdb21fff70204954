// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Default upstream and pacing values mirror the documented Nexon Open
// API contract: fixed 3 s backoff on 429, three total attempts, 20 ms
// between member lookups.
const (
	defaultAddr         = ":3141"
	defaultAPIBaseURL   = "https://open.api.nexon.com/maplestory/v1"
	defaultTimeoutMS    = 10_000
	defaultMaxAttempts  = 3
	defaultBackoffMS    = 3_000
	defaultPacingMS     = 20
	defaultQueueSize    = 1_024
	defaultWorkerCount  = 1
	defaultMaxBatchWait = 600_000
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":3141".
	Addr string `koanf:"addr"`

	// APIBaseURL is the Nexon Open API base endpoint.
	APIBaseURL string `koanf:"api_base_url"`

	// APIKey is the per-process x-nxopen-api-key header value.
	APIKey string `koanf:"api_key"`

	// RequestTimeoutMS bounds a single upstream HTTP call.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// RetryMaxAttempts is the total attempt budget for rate-limited lookups.
	RetryMaxAttempts int `koanf:"retry_max_attempts"`

	// RetryBackoffMS is the fixed wait between rate-limited attempts.
	RetryBackoffMS int `koanf:"retry_backoff_ms"`

	// PacingMS is the fixed delay after every resolution task.
	PacingMS int `koanf:"pacing_ms"`

	// QueueSize bounds the in-memory resolution task queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of resolution workers. The pacing
	// guarantee is per worker; the default of 1 keeps upstream calls
	// strictly sequential.
	WorkerCount int `koanf:"worker_count"`

	// MaxBatchWaitMS caps how long a request waits for its batch.
	MaxBatchWaitMS int `koanf:"max_batch_wait_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             defaultAddr,
		APIBaseURL:       defaultAPIBaseURL,
		RequestTimeoutMS: defaultTimeoutMS,
		RetryMaxAttempts: defaultMaxAttempts,
		RetryBackoffMS:   defaultBackoffMS,
		PacingMS:         defaultPacingMS,
		QueueSize:        defaultQueueSize,
		WorkerCount:      defaultWorkerCount,
		MaxBatchWaitMS:   defaultMaxBatchWait,
	}
}
