package config

import (
	"github.com/spf13/viper"
)

// Database defaults.
const (
	DefaultDBHost    = "localhost"
	DefaultDBPort    = "5432"
	DefaultDBUser    = "postgres"
	DefaultDBName    = "regcheck"
	DefaultDBSSLMode = "disable"
)

// DatabaseConfig represents PostgreSQL configuration settings.
type DatabaseConfig struct {
	Host     string `env:"DB_HOST"     yaml:"host"`
	Port     string `env:"DB_PORT"     yaml:"port"`
	User     string `env:"DB_USER"     yaml:"user"`
	Password string `env:"DB_PASSWORD" yaml:"password"`
	DBName   string `env:"DB_NAME"     yaml:"dbname"`
	SSLMode  string `env:"DB_SSLMODE"  yaml:"sslmode"`
}

// databaseFromViper loads database configuration from Viper and environment
// variables. Environment variables take precedence over file configuration.
func databaseFromViper(v *viper.Viper) *DatabaseConfig {
	return &DatabaseConfig{
		Host:     getConfigValue("DB_HOST", "database.host", DefaultDBHost, v),
		Port:     getConfigValue("DB_PORT", "database.port", DefaultDBPort, v),
		User:     getConfigValue("DB_USER", "database.user", DefaultDBUser, v),
		Password: getConfigValue("DB_PASSWORD", "database.password", "", v),
		DBName:   getConfigValue("DB_NAME", "database.dbname", DefaultDBName, v),
		SSLMode:  getConfigValue("DB_SSLMODE", "database.sslmode", DefaultDBSSLMode, v),
	}
}
