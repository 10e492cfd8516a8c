package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Server defaults.
const (
	DefaultServerAddress           = ":8080"
	DefaultServerReadTimeout       = 30 * time.Second
	DefaultServerWriteTimeout      = 90 * time.Second
	DefaultServerIdleTimeout       = 60 * time.Second
	DefaultServerReadHeaderTimeout = 10 * time.Second
)

// ServerConfig represents HTTP server configuration settings.
// WriteTimeout defaults above the lookup ceiling so a slow browser-automation
// lookup can still write its response.
type ServerConfig struct {
	// Address is the address to listen on (e.g., ":8080")
	Address string `env:"SERVER_ADDRESS" yaml:"address"`
	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" yaml:"read_timeout"`
	// WriteTimeout is the maximum duration before timing out response writes
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" yaml:"write_timeout"`
	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" yaml:"idle_timeout"`
	// ReadHeaderTimeout is the maximum duration for reading request headers
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

// serverFromViper loads server settings from Viper and environment.
func serverFromViper(v *viper.Viper) *ServerConfig {
	cfg := &ServerConfig{
		Address:           getConfigValue("SERVER_ADDRESS", "server.address", DefaultServerAddress, v),
		ReadTimeout:       v.GetDuration("server.read_timeout"),
		WriteTimeout:      v.GetDuration("server.write_timeout"),
		IdleTimeout:       v.GetDuration("server.idle_timeout"),
		ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
	}

	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultServerIdleTimeout
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = DefaultServerReadHeaderTimeout
	}

	return cfg
}

// Validate checks if the configuration is valid.
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return errors.New("server address cannot be empty")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	return nil
}
