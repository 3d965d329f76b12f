package scheduler

import (
	"time"

	"github.com/smallbiznis/agencydesk/internal/config"
)

// Config controls the sweep interval and batch sizes.
type Config struct {
	RunInterval time.Duration
	BatchSize   int
	// StaleAfter is how long an assignment may go without a recompute
	// before the sweep picks it up.
	StaleAfter time.Duration
	JobTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: 5 * time.Minute,
		BatchSize:   50,
		StaleAfter:  time.Hour,
		JobTimeout:  2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = defaults.StaleAfter
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: time.Duration(cfg.Scheduler.IntervalSeconds) * time.Second,
		BatchSize:   cfg.Scheduler.BatchSize,
		StaleAfter:  time.Duration(cfg.Scheduler.RecomputeStaleAfterSeconds) * time.Second,
	}.withDefaults()
}
