package config

import (
	"strings"
	"time"

	"github.com/marmos91/rhc-coord/pkg/lease"
)

// DefaultConfig returns a Config with every field set to its compiled-in
// default, used when no config file is present.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields of cfg with defaults. Explicit
// values from file/environment are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyNodeDefaults(&cfg.Node)
	applyLeaseDefaults(&cfg.Lease)
	applyMigrationDefaults(&cfg.Migration)
	applyStoreDefaults(&cfg.Store)
	applyAPIDefaults(&cfg.API)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

func applyNodeDefaults(cfg *NodeConfig) {
	if cfg.MaxClockDriftMs == 0 {
		cfg.MaxClockDriftMs = 60_000
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyLeaseDefaults(cfg *LeaseConfig) {
	if cfg.DefaultDuration == 0 {
		cfg.DefaultDuration = lease.DefaultDuration
	}
	if cfg.RenewMargin == 0 {
		cfg.RenewMargin = lease.RecommendedRenewMargin
	}
}

func applyMigrationDefaults(cfg *MigrationConfig) {
	if cfg.SamplesAtFactor10 == 0 {
		cfg.SamplesAtFactor10 = 3
	}
	if cfg.SamplesAtFactor5 == 0 {
		cfg.SamplesAtFactor5 = 5
	}
	if cfg.SamplesAtFactor2 == 0 {
		cfg.SamplesAtFactor2 = 10
	}
}

func applyStoreDefaults(cfg *StoreConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
	if cfg.Backend == "badger" && cfg.BadgerDir == "" {
		cfg.BadgerDir = "./data/statemachine"
	}
}

func applyAPIDefaults(cfg *APIConfig) {
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:8600"
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "rhc-coord"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:9600"
	}
}
