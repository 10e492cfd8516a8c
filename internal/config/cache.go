package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// DefaultCacheTTL is the record freshness window. A record older than this
// triggers a re-scrape; the stale row stays servable as last-known-good
// until a successful extraction replaces it.
const DefaultCacheTTL = 24 * time.Hour

// CacheConfig represents record freshness configuration settings.
type CacheConfig struct {
	// TTL is the freshness window measured from scraped_at
	TTL time.Duration `env:"CACHE_TTL" yaml:"ttl"`
}

// cacheFromViper loads cache settings from Viper and environment.
func cacheFromViper(v *viper.Viper) *CacheConfig {
	cfg := &CacheConfig{
		TTL: v.GetDuration("cache.ttl"),
	}

	if cfg.TTL == 0 {
		cfg.TTL = DefaultCacheTTL
	}

	return cfg
}

// Validate checks if the configuration is valid.
func (c *CacheConfig) Validate() error {
	if c.TTL <= 0 {
		return errors.New("cache TTL must be positive")
	}
	return nil
}
