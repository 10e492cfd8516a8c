// Package config provides configuration management for the regcheck
// application. Sections load from Viper with environment variables taking
// precedence over file values, and every section carries defaults so the
// service runs with an empty config file.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	// App holds application-level settings
	App *AppConfig `yaml:"app"`
	// Server holds HTTP server settings
	Server *ServerConfig `yaml:"server"`
	// Database holds PostgreSQL connection settings
	Database *DatabaseConfig `yaml:"database"`
	// Scraper holds fast-extraction settings
	Scraper *ScraperConfig `yaml:"scraper"`
	// Automation holds browser-automation settings
	Automation *AutomationConfig `yaml:"automation"`
	// Cache holds record freshness settings
	Cache *CacheConfig `yaml:"cache"`
	// Scheduler holds stale-record refresh settings
	Scheduler *SchedulerConfig `yaml:"scheduler"`
}

// Load builds the configuration from the global Viper instance. Viper must
// already be initialized (config file read, env bindings applied) by the
// command layer before Load is called.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds the configuration from the given Viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App:        appFromViper(v),
		Server:     serverFromViper(v),
		Database:   databaseFromViper(v),
		Scraper:    scraperFromViper(v),
		Automation: automationFromViper(v),
		Cache:      cacheFromViper(v),
		Scheduler:  schedulerFromViper(v),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates every configuration section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Scraper.Validate(); err != nil {
		return fmt.Errorf("scraper: %w", err)
	}
	if err := c.Automation.Validate(); err != nil {
		return fmt.Errorf("automation: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}

// getConfigValue retrieves a configuration value from environment or Viper,
// with a default fallback. Environment variables take precedence so deploys
// can override file values without editing the config.
func getConfigValue(envKey, viperKey, defaultValue string, v *viper.Viper) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if val := v.GetString(viperKey); val != "" {
		return val
	}
	return defaultValue
}

// AppConfig represents application-level settings.
type AppConfig struct {
	// Name is the application name used in logs
	Name string `yaml:"name"`
	// Environment is the runtime environment (development, production)
	Environment string `env:"APP_ENV" yaml:"environment"`
	// Debug enables debug logging regardless of logger level
	Debug bool `env:"APP_DEBUG" yaml:"debug"`
}

// appFromViper loads application settings from Viper and environment.
func appFromViper(v *viper.Viper) *AppConfig {
	return &AppConfig{
		Name:        getConfigValue("APP_NAME", "app.name", "regcheck", v),
		Environment: getConfigValue("APP_ENV", "app.environment", "development", v),
		Debug:       v.GetBool("app.debug"),
	}
}

// IsDevelopment reports whether the app runs in a development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
