package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Automation defaults. Timeouts mirror the browser driver's page-load and
// element-wait bounds; the overall lookup ceiling caps the whole request
// including every automation attempt.
const (
	DefaultAutomationMaxAttempts        = 3
	DefaultAutomationMaxConcurrent      = 2
	DefaultAutomationPageLoadTimeout    = 20 * time.Second
	DefaultAutomationElementWaitTimeout = 15 * time.Second
	DefaultAutomationPollInterval       = 500 * time.Millisecond
	DefaultLookupOverallTimeout         = 60 * time.Second
)

// AutomationConfig represents browser-automation configuration settings.
type AutomationConfig struct {
	// Enabled turns the browser-automation fallback tier on or off
	Enabled bool `env:"AUTOMATION_ENABLED" yaml:"enabled"`
	// Headless runs the browser without a display
	Headless bool `yaml:"headless"`
	// MaxAttempts bounds internal retries within one automation extraction
	MaxAttempts int `env:"AUTOMATION_MAX_ATTEMPTS" yaml:"max_attempts"`
	// MaxConcurrent bounds simultaneous browser sessions process-wide
	MaxConcurrent int `env:"AUTOMATION_MAX_CONCURRENT" yaml:"max_concurrent"`
	// PageLoadTimeout bounds navigation within one attempt
	PageLoadTimeout time.Duration `yaml:"page_load_timeout"`
	// ElementWaitTimeout bounds waiting for the registration input and results
	ElementWaitTimeout time.Duration `yaml:"element_wait_timeout"`
	// PollInterval is the delay between page-ready checks
	PollInterval time.Duration `yaml:"poll_interval"`
	// OverallTimeout is the whole-lookup ceiling across all tiers
	OverallTimeout time.Duration `env:"LOOKUP_OVERALL_TIMEOUT" yaml:"overall_timeout"`
}

// automationFromViper loads automation settings from Viper and environment.
func automationFromViper(v *viper.Viper) *AutomationConfig {
	cfg := &AutomationConfig{
		Enabled:            true,
		Headless:           true,
		MaxAttempts:        v.GetInt("automation.max_attempts"),
		MaxConcurrent:      v.GetInt("automation.max_concurrent"),
		PageLoadTimeout:    v.GetDuration("automation.page_load_timeout"),
		ElementWaitTimeout: v.GetDuration("automation.element_wait_timeout"),
		PollInterval:       v.GetDuration("automation.poll_interval"),
		OverallTimeout:     v.GetDuration("automation.overall_timeout"),
	}

	if v.IsSet("automation.enabled") {
		cfg.Enabled = v.GetBool("automation.enabled")
	}
	if v.IsSet("automation.headless") {
		cfg.Headless = v.GetBool("automation.headless")
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultAutomationMaxAttempts
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = DefaultAutomationMaxConcurrent
	}
	if cfg.PageLoadTimeout == 0 {
		cfg.PageLoadTimeout = DefaultAutomationPageLoadTimeout
	}
	if cfg.ElementWaitTimeout == 0 {
		cfg.ElementWaitTimeout = DefaultAutomationElementWaitTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultAutomationPollInterval
	}
	if cfg.OverallTimeout == 0 {
		cfg.OverallTimeout = DefaultLookupOverallTimeout
	}

	return cfg
}

// Validate checks if the configuration is valid.
func (c *AutomationConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return errors.New("automation max attempts must be at least 1")
	}
	if c.MaxConcurrent < 1 {
		return errors.New("automation max concurrent must be at least 1")
	}
	if c.PageLoadTimeout <= 0 || c.ElementWaitTimeout <= 0 || c.PollInterval <= 0 {
		return errors.New("automation timeouts must be positive")
	}
	if c.OverallTimeout <= 0 {
		return errors.New("lookup overall timeout must be positive")
	}
	return nil
}
