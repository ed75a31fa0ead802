package config

import (
	"fmt"
	"net"

	"github.com/alttch/roboger/internal/constants"
)

// ValidateStatic checks everything that can be verified without touching
// external systems. Called once at load time.
func ValidateStatic(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", cfg.Server.Port)
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}

	if cfg.Limits.Enabled {
		if cfg.Database.Redis.Host == "" {
			return fmt.Errorf("limits require database.redis.host")
		}
		if cfg.Limits.ReserveFraction < 0 || cfg.Limits.ReserveFraction >= 1 {
			return fmt.Errorf("limits.reserve_fraction must be in [0, 1), got %f",
				cfg.Limits.ReserveFraction)
		}
		if cfg.Limits.Period <= 0 {
			return fmt.Errorf("limits.period must be positive")
		}
		switch cfg.Limits.OnStoreError {
		case "", constants.FallbackAllow, constants.FallbackDeny:
		default:
			return fmt.Errorf("limits.on_store_error must be %q or %q",
				constants.FallbackAllow, constants.FallbackDeny)
		}
	}

	if cfg.Dispatch.Workers < 0 {
		return fmt.Errorf("dispatch.workers must not be negative")
	}
	if cfg.Dispatch.QueueDepth < 0 {
		return fmt.Errorf("dispatch.queue_depth must not be negative")
	}

	for _, cidr := range cfg.Master.AllowCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("master.allow_cidrs: invalid CIDR %q: %w", cidr, err)
		}
	}

	if len(cfg.Audit.Brokers) > 0 && cfg.Audit.Topic == "" {
		return fmt.Errorf("audit.topic is required when audit.brokers is set")
	}

	seen := make(map[string]bool)
	for _, p := range cfg.Plugins {
		if p.Name == "" {
			return fmt.Errorf("plugins: name is required")
		}
		if seen[p.Name] {
			return fmt.Errorf("plugins: duplicate entry %q", p.Name)
		}
		seen[p.Name] = true
	}

	return nil
}
