package tsreturnnotify

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled            bool          `mapstructure:"enabled"`
	MaxJobsActive      int           `mapstructure:"max_jobs_active"`
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxConcurrentSends int           `mapstructure:"max_concurrent_sends"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:            true,
		MaxJobsActive:      5,
		Timeout:            30 * time.Second,
		MaxConcurrentSends: 8,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.MaxConcurrentSends <= 0 {
		return fmt.Errorf("max_concurrent_sends must be positive")
	}
	return nil
}
