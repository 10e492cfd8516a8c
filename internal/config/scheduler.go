package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Scheduler defaults. The refresh sweep is off unless enabled explicitly;
// when on, it re-scrapes a small batch of the oldest stale records each run.
const (
	DefaultSchedulerSchedule  = "0 * * * *" // hourly, on the hour
	DefaultSchedulerBatchSize = 10
)

// SchedulerConfig represents stale-record refresh configuration settings.
type SchedulerConfig struct {
	// Enabled turns the background refresh sweep on
	Enabled bool `env:"SCHEDULER_ENABLED" yaml:"enabled"`
	// Schedule is a standard 5-field cron expression
	Schedule string `env:"SCHEDULER_SCHEDULE" yaml:"schedule"`
	// BatchSize is the maximum records refreshed per run
	BatchSize int `yaml:"batch_size"`
}

// schedulerFromViper loads scheduler settings from Viper and environment.
func schedulerFromViper(v *viper.Viper) *SchedulerConfig {
	cfg := &SchedulerConfig{
		Enabled:   v.GetBool("scheduler.enabled"),
		Schedule:  getConfigValue("SCHEDULER_SCHEDULE", "scheduler.schedule", DefaultSchedulerSchedule, v),
		BatchSize: v.GetInt("scheduler.batch_size"),
	}

	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultSchedulerBatchSize
	}

	return cfg
}

// Validate checks if the configuration is valid.
func (c *SchedulerConfig) Validate() error {
	if c.Enabled && c.Schedule == "" {
		return errors.New("scheduler schedule cannot be empty when enabled")
	}
	if c.BatchSize < 1 {
		return errors.New("scheduler batch size must be at least 1")
	}
	return nil
}
