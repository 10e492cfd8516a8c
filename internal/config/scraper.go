package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Scraper defaults. The user agent matches a desktop Chrome build; the
// source site serves a cut-down challenge page to unknown agents.
const (
	DefaultScraperBaseURL     = "https://www.checkcardetails.co.uk/"
	DefaultScraperUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultScraperFastTimeout = 10 * time.Second
	DefaultScraperRateLimit   = 1 * time.Second
	DefaultScraperRateBurst   = 2
	DefaultScraperMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// ScraperConfig represents fast-extraction configuration settings.
type ScraperConfig struct {
	// BaseURL is the source site root; lookups fetch {BaseURL}cardetails/{REG}
	BaseURL string `env:"SCRAPER_BASE_URL" yaml:"base_url"`
	// UserAgent is sent on every fast-extraction request
	UserAgent string `env:"SCRAPER_USER_AGENT" yaml:"user_agent"`
	// FastTimeout bounds a single fast-extraction request
	FastTimeout time.Duration `env:"SCRAPER_FAST_TIMEOUT" yaml:"fast_timeout"`
	// RateLimit is the minimum interval between outbound requests
	RateLimit time.Duration `env:"SCRAPER_RATE_LIMIT" yaml:"rate_limit"`
	// RateBurst is the number of requests allowed to exceed the rate briefly
	RateBurst int `yaml:"rate_burst"`
	// MaxBodySize caps how much of a response body is read
	MaxBodySize int64 `yaml:"max_body_size"`
}

// scraperFromViper loads scraper settings from Viper and environment.
func scraperFromViper(v *viper.Viper) *ScraperConfig {
	cfg := &ScraperConfig{
		BaseURL:     getConfigValue("SCRAPER_BASE_URL", "scraper.base_url", DefaultScraperBaseURL, v),
		UserAgent:   getConfigValue("SCRAPER_USER_AGENT", "scraper.user_agent", DefaultScraperUserAgent, v),
		FastTimeout: v.GetDuration("scraper.fast_timeout"),
		RateLimit:   v.GetDuration("scraper.rate_limit"),
		RateBurst:   v.GetInt("scraper.rate_burst"),
		MaxBodySize: v.GetInt64("scraper.max_body_size"),
	}

	if cfg.FastTimeout == 0 {
		cfg.FastTimeout = DefaultScraperFastTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultScraperRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = DefaultScraperRateBurst
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultScraperMaxBodySize
	}

	return cfg
}

// Validate checks if the configuration is valid.
func (c *ScraperConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("scraper base URL cannot be empty")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return errors.New("scraper base URL must be an absolute http(s) URL")
	}
	if c.FastTimeout <= 0 {
		return errors.New("scraper fast timeout must be positive")
	}
	if c.MaxBodySize <= 0 {
		return errors.New("scraper max body size must be positive")
	}
	return nil
}
