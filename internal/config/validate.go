package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks cfg's struct tags and cross-field invariants specific
// to the coordination core (quorum bounds, store backend requirements).
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("struct validation: %w", err)
	}

	if cfg.Group.Quorum > len(cfg.Group.Members) {
		return fmt.Errorf("group quorum %d exceeds member count %d", cfg.Group.Quorum, len(cfg.Group.Members))
	}
	minQuorum := (len(cfg.Group.Members)*2)/3 + 1
	if cfg.Group.Quorum < minQuorum {
		return fmt.Errorf("group quorum %d is below the minimum safe threshold 2f+1=%d for %d members", cfg.Group.Quorum, minQuorum, len(cfg.Group.Members))
	}

	if cfg.Store.Backend == "postgres" && cfg.Store.PostgresDSN == "" {
		return fmt.Errorf("store.postgres_dsn is required when store.backend is \"postgres\"")
	}
	if cfg.Store.Backend == "badger" && cfg.Store.BadgerDir == "" {
		return fmt.Errorf("store.badger_dir is required when store.backend is \"badger\"")
	}

	return nil
}
