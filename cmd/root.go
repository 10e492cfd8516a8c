// Package cmd implements the command-line interface for regcheck.
// It provides the root command and subcommands for the lookup service.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdhistory "github.com/jonesrussell/regcheck/cmd/history"
	"github.com/jonesrussell/regcheck/cmd/httpd"
	cmdlookup "github.com/jonesrussell/regcheck/cmd/lookup"
	cmdvehicles "github.com/jonesrussell/regcheck/cmd/vehicles"
	"github.com/jonesrussell/regcheck/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands
	Debug bool

	// rootCmd represents the root command for the regcheck CLI.
	rootCmd = &cobra.Command{
		Use:   "regcheck",
		Short: "A UK vehicle registration lookup service",
		Long: `A UK vehicle registration lookup service. Looks registrations up
against checkcardetails.co.uk with a PostgreSQL cache, escalating from
cached records to direct scraping to browser automation as needed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	// Load .env file early so environment variables are available
	_ = godotenv.Load()

	// Parse flags early to get debug flag before creating logger
	_ = rootCmd.ParseFlags(os.Args[1:])

	// Initialize configuration
	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	// Execute the root command with a fresh context
	return rootCmd.ExecuteContext(context.Background())
}

// init initializes the root command and its subcommands.
func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("regcheck version %s\n", "1.0.0")
		},
	})

	// Add subcommands
	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(cmdlookup.Command())
	rootCmd.AddCommand(cmdhistory.Command())
	rootCmd.AddCommand(cmdvehicles.Command())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	// Set config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	// Load .env file first, before setting defaults and reading config.
	// godotenv.Load() is idempotent and won't overwrite existing variables.
	if err := godotenv.Load(); err != nil {
		// .env file not found, that's ok - we'll use environment variables
		fmt.Fprintf(os.Stderr, "Warning: .env file not found: %v\n", err)
	}

	// Enable automatic environment variable reading BEFORE setting defaults
	// so environment variables take precedence over defaults
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults (only used if environment variables or config file don't provide values)
	setDefaults()

	// Read config file. The file is optional: configuration can come from
	// file, environment variables, or defaults.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Config file not found: %v (using defaults and environment variables)\n", err)
	}

	// Bind command-line flags to Viper
	if err := bindCommandLineFlags(); err != nil {
		return err
	}

	// Map environment variables to config keys
	if err := bindAppEnvVars(); err != nil {
		return err
	}

	// Bind lookup pipeline environment variables
	if err := bindLookupEnvVars(); err != nil {
		return err
	}

	// Set development logging settings
	setupDevelopmentLogging()

	return nil
}

// bindCommandLineFlags binds command-line flags to Viper.
func bindCommandLineFlags() error {
	if err := viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		return fmt.Errorf("failed to bind config flag: %w", err)
	}
	return nil
}

// bindAppEnvVars binds application and logger environment variables to config keys.
func bindAppEnvVars() error {
	if err := viper.BindEnv("app.environment", "APP_ENV"); err != nil {
		return fmt.Errorf("failed to bind APP_ENV: %w", err)
	}
	if err := viper.BindEnv("app.debug", "APP_DEBUG"); err != nil {
		return fmt.Errorf("failed to bind APP_DEBUG: %w", err)
	}
	if err := viper.BindEnv("logger.level", "LOG_LEVEL"); err != nil {
		return fmt.Errorf("failed to bind LOG_LEVEL: %w", err)
	}
	if err := viper.BindEnv("logger.encoding", "LOG_FORMAT"); err != nil {
		return fmt.Errorf("failed to bind LOG_FORMAT: %w", err)
	}
	return nil
}

// bindLookupEnvVars binds lookup pipeline environment variables to config keys.
func bindLookupEnvVars() error {
	if err := viper.BindEnv("automation.enabled", "AUTOMATION_ENABLED"); err != nil {
		return fmt.Errorf("failed to bind AUTOMATION_ENABLED: %w", err)
	}
	if err := viper.BindEnv("automation.max_attempts", "AUTOMATION_MAX_ATTEMPTS"); err != nil {
		return fmt.Errorf("failed to bind AUTOMATION_MAX_ATTEMPTS: %w", err)
	}
	if err := viper.BindEnv("automation.max_concurrent", "AUTOMATION_MAX_CONCURRENT"); err != nil {
		return fmt.Errorf("failed to bind AUTOMATION_MAX_CONCURRENT: %w", err)
	}
	if err := viper.BindEnv("automation.overall_timeout", "LOOKUP_OVERALL_TIMEOUT"); err != nil {
		return fmt.Errorf("failed to bind LOOKUP_OVERALL_TIMEOUT: %w", err)
	}
	if err := viper.BindEnv("cache.ttl", "CACHE_TTL"); err != nil {
		return fmt.Errorf("failed to bind CACHE_TTL: %w", err)
	}
	if err := viper.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED"); err != nil {
		return fmt.Errorf("failed to bind SCHEDULER_ENABLED: %w", err)
	}
	return nil
}

// setupDevelopmentLogging configures development logging settings based on environment and debug flag.
func setupDevelopmentLogging() {
	// Check both the flag variable and Viper to ensure we catch the debug flag
	debugFlag := Debug || viper.GetBool("app.debug")
	isDev := viper.GetString("app.environment") == "development"

	// Only set debug level if explicitly requested via flag or APP_DEBUG
	if debugFlag {
		viper.Set("logger.level", "debug")
	}

	// Set development mode features (formatting, colors) if in development
	// environment, but do not change log level unless explicitly requested
	if isDev {
		viper.Set("logger.development", true)
		viper.Set("logger.enable_color", true)
		viper.Set("logger.encoding", "console")
		if debugFlag {
			viper.Set("logger.level", "debug")
		}
	}

	// Synchronize global Debug variable with Viper's value
	Debug = debugFlag
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults - production safe
	viper.SetDefault("app", map[string]any{
		"name":        "regcheck",
		"version":     "1.0.0",
		"environment": "production",
		"debug":       false,
	})

	// Logger defaults - production safe
	viper.SetDefault("logger", map[string]any{
		"level":        "info",
		"development":  false,
		"encoding":     "json",
		"output_paths": []string{"stdout"},
		"enable_color": false,
	})

	// Server defaults. The write timeout sits above the lookup ceiling so
	// a browser-automation lookup can still write its response.
	viper.SetDefault("server", map[string]any{
		"address":             config.DefaultServerAddress,
		"read_timeout":        config.DefaultServerReadTimeout.String(),
		"write_timeout":       config.DefaultServerWriteTimeout.String(),
		"idle_timeout":        config.DefaultServerIdleTimeout.String(),
		"read_header_timeout": config.DefaultServerReadHeaderTimeout.String(),
	})

	// Database defaults - production safe
	viper.SetDefault("database", map[string]any{
		"host":    config.DefaultDBHost,
		"port":    config.DefaultDBPort,
		"user":    config.DefaultDBUser,
		"dbname":  config.DefaultDBName,
		"sslmode": config.DefaultDBSSLMode,
	})

	// Scraper defaults
	viper.SetDefault("scraper", map[string]any{
		"base_url":      config.DefaultScraperBaseURL,
		"user_agent":    config.DefaultScraperUserAgent,
		"fast_timeout":  config.DefaultScraperFastTimeout.String(),
		"rate_limit":    config.DefaultScraperRateLimit.String(),
		"rate_burst":    config.DefaultScraperRateBurst,
		"max_body_size": config.DefaultScraperMaxBodySize,
	})

	// Automation defaults
	viper.SetDefault("automation", map[string]any{
		"enabled":              true,
		"headless":             true,
		"max_attempts":         config.DefaultAutomationMaxAttempts,
		"max_concurrent":       config.DefaultAutomationMaxConcurrent,
		"page_load_timeout":    config.DefaultAutomationPageLoadTimeout.String(),
		"element_wait_timeout": config.DefaultAutomationElementWaitTimeout.String(),
		"poll_interval":        config.DefaultAutomationPollInterval.String(),
		"overall_timeout":      config.DefaultLookupOverallTimeout.String(),
	})

	// Cache defaults
	viper.SetDefault("cache", map[string]any{
		"ttl": config.DefaultCacheTTL.String(),
	})

	// Scheduler defaults - refresh sweep off unless enabled explicitly
	viper.SetDefault("scheduler", map[string]any{
		"enabled":    false,
		"schedule":   config.DefaultSchedulerSchedule,
		"batch_size": config.DefaultSchedulerBatchSize,
	})
}
