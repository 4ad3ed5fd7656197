// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and BIZBOARD_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Supported store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches the log handler to JSON output.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the document store: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// PostgresDSN is the connection string used by the postgres driver.
	PostgresDSN string `koanf:"postgres_dsn"`

	// WorkerCount bounds concurrent row upserts within one run.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds rows buffered between the decoder and the upsert workers.
	QueueSize int `koanf:"queue_size"`

	// WriteRatePerSec caps store writes per second across workers (0 disables the limit).
	WriteRatePerSec float64 `koanf:"write_rate_per_sec"`

	// WriteBurst is the token bucket size used with WriteRatePerSec.
	WriteBurst int `koanf:"write_burst"`

	// UpsertMaxAttempts bounds attempts for a single store write.
	UpsertMaxAttempts int `koanf:"upsert_max_attempts"`

	// UpsertBackoffMS is the initial backoff between attempts; it doubles per retry.
	UpsertBackoffMS int `koanf:"upsert_backoff_ms"`

	// FailureSampleSize caps how many row failures a run report keeps verbatim.
	FailureSampleSize int `koanf:"failure_sample_size"`

	// MaxUploadBytes caps HTTP uploads.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// RunTimeoutSeconds is the wall-clock budget of an uploaded run. Client disconnects do not cut it short.
	RunTimeoutSeconds int `koanf:"run_timeout_seconds"`

	// WatchEnabled turns on the directory watcher trigger.
	WatchEnabled bool `koanf:"watch_enabled"`

	// WatchBookingsDir and WatchProposalsDir are the watched "buckets".
	WatchBookingsDir  string `koanf:"watch_bookings_dir"`
	WatchProposalsDir string `koanf:"watch_proposals_dir"`

	// WatchSettleMS is how long a file must stay quiet before it is ingested.
	WatchSettleMS int `koanf:"watch_settle_ms"`

	// WatchQueueSize bounds pending watcher triggers.
	WatchQueueSize int `koanf:"watch_queue_size"`

	// PasscodeLength is the number of characters in an issued passcode.
	PasscodeLength int `koanf:"passcode_length"`

	// PasscodeTTLSeconds bounds how long an issued passcode stays valid.
	PasscodeTTLSeconds int `koanf:"passcode_ttl_seconds"`

	// PasscodeMaxAttempts is the number of wrong guesses tolerated before a passcode is revoked.
	PasscodeMaxAttempts int `koanf:"passcode_max_attempts"`

	// MetricsEnabled registers the prometheus collectors served on /healthz.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace and MetricsPrefix shape metric names: <namespace>_<subsystem>_<prefix>_<name>.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsPrefix    string `koanf:"metrics_prefix"`

	// MetricsLabels are constant labels added to every metric.
	MetricsLabels map[string]string `koanf:"metrics_labels"`

	// MetricsRefreshSeconds is how often runtime and watcher gauges are refreshed.
	MetricsRefreshSeconds int `koanf:"metrics_refresh_seconds"`

	// MailFrom and MailTemplateID feed the passcode e-mail.
	MailFrom       string `koanf:"mail_from"`
	MailTemplateID string `koanf:"mail_template_id"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		StoreDriver:           DriverMemory,
		SQLitePath:            "data/bizboard.db",
		WorkerCount:           runtime.NumCPU() * 2,
		QueueSize:             1024,
		WriteRatePerSec:       0,
		WriteBurst:            50,
		UpsertMaxAttempts:     3,
		UpsertBackoffMS:       50,
		FailureSampleSize:     10,
		MaxUploadBytes:        64 << 20,
		RunTimeoutSeconds:     600,
		WatchEnabled:          false,
		WatchBookingsDir:      "buckets/bookings",
		WatchProposalsDir:     "buckets/proposals",
		WatchSettleMS:         500,
		WatchQueueSize:        64,
		MetricsEnabled:        true,
		MetricsNamespace:      "bizboard",
		MetricsRefreshSeconds: 10,
		PasscodeLength:        6,
		PasscodeTTLSeconds:    600,
		PasscodeMaxAttempts:   5,
		MailFrom:              "noreply@bizboard.local",
		MailTemplateID:        "passcode",
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.UpsertMaxAttempts < 1:
		return fmt.Errorf("%w: upsert_max_attempts must be at least 1", ErrInvalidConfig)
	case c.WriteRatePerSec < 0:
		return fmt.Errorf("%w: write_rate_per_sec must not be negative", ErrInvalidConfig)
	case c.RunTimeoutSeconds < 1:
		return fmt.Errorf("%w: run_timeout_seconds must be positive", ErrInvalidConfig)
	case c.MetricsRefreshSeconds < 1:
		return fmt.Errorf("%w: metrics_refresh_seconds must be positive", ErrInvalidConfig)
	case c.PasscodeLength < 4:
		return fmt.Errorf("%w: passcode_length must be at least 4", ErrInvalidConfig)
	}

	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite driver", ErrInvalidConfig)
		}
	case DriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("%w: postgres_dsn is required for the postgres driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	if c.WatchEnabled && (c.WatchBookingsDir == "" || c.WatchProposalsDir == "") {
		return fmt.Errorf("%w: watch directories are required when watch_enabled is set", ErrInvalidConfig)
	}
	return nil
}
