// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects json or console output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MLBaseURL is the root of the external prediction service.
	MLBaseURL string `koanf:"ml_base_url"`

	// MLHealthTimeoutMS bounds the availability probe.
	MLHealthTimeoutMS int `koanf:"ml_health_timeout_ms"`

	// MLPredictTimeoutMS bounds each inference call. Zero disables the deadline.
	MLPredictTimeoutMS int `koanf:"ml_predict_timeout_ms"`

	// MLMaxRetries retries transport errors and 5xx responses.
	MLMaxRetries int `koanf:"ml_max_retries"`

	// MLRequestsPerSecond and MLBurst shape outbound traffic.
	MLRequestsPerSecond float64 `koanf:"ml_requests_per_second"`
	MLBurst             int     `koanf:"ml_burst"`

	// WorkerCount sets the number of batch prediction workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory batch job queue.
	QueueSize int `koanf:"queue_size"`

	// MaxBatchSize caps the number of inputs in one batch request.
	MaxBatchSize int `koanf:"max_batch_size"`

	// DatasetPath points at the census CSV served by the summary endpoint.
	DatasetPath string `koanf:"dataset_path"`

	// CurrencyLocale and CurrencySymbol format salary amounts in breakdowns.
	CurrencyLocale string `koanf:"currency_locale"`
	CurrencySymbol string `koanf:"currency_symbol"`

	// Overrides for the estimator lookup tables.
	OccupationSalaries   map[string]float64 `koanf:"occupation_salaries"`
	EducationMultipliers map[string]float64 `koanf:"education_multipliers"`
	RegionMultipliers    map[string]float64 `koanf:"region_multipliers"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "json",
		Addr:                ":9080",
		MLBaseURL:           "http://localhost:8080",
		MLHealthTimeoutMS:   5000,
		MLPredictTimeoutMS:  15000,
		MLMaxRetries:        0,
		MLRequestsPerSecond: 20,
		MLBurst:             5,
		WorkerCount:         runtime.NumCPU() * 2,
		QueueSize:           1024,
		MaxBatchSize:        100,
		CurrencyLocale:      "en-IN",
		CurrencySymbol:      "₹",
	}
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.MLBaseURL) == "":
		return fmt.Errorf("%w: ml_base_url must not be empty", ErrInvalidConfig)
	case c.MLHealthTimeoutMS <= 0:
		return fmt.Errorf("%w: ml_health_timeout_ms must be positive", ErrInvalidConfig)
	case c.MLPredictTimeoutMS < 0:
		return fmt.Errorf("%w: ml_predict_timeout_ms must not be negative", ErrInvalidConfig)
	case c.MLMaxRetries < 0:
		return fmt.Errorf("%w: ml_max_retries must not be negative", ErrInvalidConfig)
	case c.MaxBatchSize < 1:
		return fmt.Errorf("%w: max_batch_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// HealthTimeout returns the probe deadline.
func (c *Config) HealthTimeout() time.Duration {
	return time.Duration(c.MLHealthTimeoutMS) * time.Millisecond
}

// PredictTimeout returns the inference deadline.
func (c *Config) PredictTimeout() time.Duration {
	return time.Duration(c.MLPredictTimeoutMS) * time.Millisecond
}
