// Package config loads coordd's static configuration from a layered
// source: CLI flags, then DITTOFS_-style environment variables (here
// COORD_-prefixed), then a YAML config file, then compiled-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is coordd's full static configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Node      NodeConfig      `mapstructure:"node" yaml:"node"`
	Group     GroupConfig     `mapstructure:"group" yaml:"group"`
	Lease     LeaseConfig     `mapstructure:"lease" yaml:"lease"`
	Migration MigrationConfig `mapstructure:"migration" yaml:"migration"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	API       APIConfig       `mapstructure:"api" yaml:"api"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// NodeConfig identifies this process within its consensus group.
type NodeConfig struct {
	ID              string        `mapstructure:"id" validate:"required" yaml:"id"`
	MaxClockDriftMs uint64        `mapstructure:"max_clock_drift_ms" yaml:"max_clock_drift_ms"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// GroupConfig describes the consensus group this node participates in.
type GroupConfig struct {
	Members []string `mapstructure:"members" validate:"required,min=1" yaml:"members"`
	Quorum  int      `mapstructure:"quorum" validate:"required,gt=0" yaml:"quorum"`
	// ThresholdSharePath points at this node's BLS threshold share file,
	// produced out of band by a key-generation ceremony.
	ThresholdSharePath string `mapstructure:"threshold_share_path" validate:"required" yaml:"threshold_share_path"`
	// ThresholdPublicPath points at the group's shared public material.
	ThresholdPublicPath string `mapstructure:"threshold_public_path" validate:"required" yaml:"threshold_public_path"`
	// Listen is the address this node's consensus transport accepts
	// Propose/ThresholdShare messages on.
	Listen string `mapstructure:"listen" validate:"required" yaml:"listen"`
	// PeerAddrs maps every other member's id to its consensus transport
	// address.
	PeerAddrs map[string]string `mapstructure:"peer_addrs" yaml:"peer_addrs"`
}

// LeaseConfig tunes lease durations. Duration choice is a tunable, not a
// protocol constant.
type LeaseConfig struct {
	DefaultDuration   time.Duration `mapstructure:"default_duration" yaml:"default_duration"`
	RenewMargin       time.Duration `mapstructure:"renew_margin" yaml:"renew_margin"`
}

// MigrationConfig holds sample counts for the latency-driven migration
// policy's adaptive table. Zero values are filled with N=3 at k>=10, N=5
// at 5<=k<10, N=10 at 2<=k<5. The values are loaded and defaulted but
// nothing reads them: pkg/lease's table is fixed at those same counts.
type MigrationConfig struct {
	SamplesAtFactor10 int `mapstructure:"samples_at_factor_10" yaml:"samples_at_factor_10"`
	SamplesAtFactor5  int `mapstructure:"samples_at_factor_5" yaml:"samples_at_factor_5"`
	SamplesAtFactor2  int `mapstructure:"samples_at_factor_2" yaml:"samples_at_factor_2"`
}

// StoreConfig selects and configures the state machine's backend.
type StoreConfig struct {
	// Backend is one of "memory", "badger", "postgres".
	Backend string `mapstructure:"backend" validate:"required,oneof=memory badger postgres" yaml:"backend"`
	// BadgerDir is the data directory when Backend is "badger".
	BadgerDir string `mapstructure:"badger_dir" yaml:"badger_dir"`
	// PostgresDSN is the connection string when Backend is "postgres".
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
}

// APIConfig controls the operator-facing HTTP status/debug API.
type APIConfig struct {
	// Enabled controls whether the status API is started. Default: true.
	Enabled   *bool  `mapstructure:"enabled" yaml:"enabled"`
	Listen    string `mapstructure:"listen" yaml:"listen"`
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32" yaml:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
}

// IsEnabled returns whether the status API is enabled. Defaults to true.
func (c *APIConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
}

// Load reads the YAML config file (configPath, or config.yaml in the
// default config directory). COORD_-prefixed environment variables
// override keys the file sets; zero fields are then filled from defaults
// and the result is validated. CLI flags are applied by the caller on top
// of the returned Config. When no config file is found, Load returns
// DefaultConfig() unvalidated and does not consult the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg := DefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("COORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.StringToTimeDurationHookFunc()
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "coordd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".coordd"
	}
	return filepath.Join(home, ".config", "coordd")
}

// DefaultConfigPath returns the config file path Load uses when none is
// given explicitly.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}
