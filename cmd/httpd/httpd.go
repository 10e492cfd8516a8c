// Package httpd implements the HTTP server for the lookup service.
package httpd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/regcheck/cmd/common"
	"github.com/jonesrussell/regcheck/internal/api"
	"github.com/jonesrussell/regcheck/internal/scheduler"
)

// Command returns the httpd command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Start the HTTP server for vehicle lookups",
		Long: `This command starts an HTTP server that serves the lookup API.
The server connects to PostgreSQL, applies pending migrations, starts the
browser automation pool and the optional refresh scheduler, and handles
graceful shutdown on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Start()
		},
	}
}

// Start starts the HTTP server and runs until interrupted.
// It handles graceful shutdown on SIGINT or SIGTERM signals.
func Start() error {
	// Phase 1: Initialize dependencies
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	// Phase 2: Connect database and apply migrations
	db, err := common.ConnectDatabase(deps)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close()

	// Phase 3: Build the lookup pipeline
	services, err := common.BuildServices(deps, db)
	if err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}

	// Phase 4: Start the automation pool
	if err := services.Pool.Start(); err != nil {
		return fmt.Errorf("failed to start automation pool: %w", err)
	}

	// Phase 5: Start the refresh scheduler
	refresher := scheduler.NewRefresher(
		deps.Config.Scheduler,
		deps.Config.Cache.TTL,
		services.Vehicles,
		services.Lookup,
		deps.Logger,
	)
	if err := refresher.Start(); err != nil {
		return fmt.Errorf("failed to start refresh scheduler: %w", err)
	}

	// Phase 6: Start HTTP server
	server, errChan := startHTTPServer(deps, db, services)

	// Phase 7: Run server until interrupted
	return runServerUntilInterrupt(deps.Logger, server, refresher, services.Pool, errChan)
}

// buildHandlers assembles the API handler set from the service bundle.
func buildHandlers(deps common.CommandDeps, db api.Pinger, services *common.Services) api.Handlers {
	return api.Handlers{
		Lookup:   api.NewLookupHandler(services.Lookup, deps.Config.Cache.TTL, deps.Logger),
		Vehicles: api.NewVehiclesHandler(services.Vehicles, deps.Logger),
		History:  api.NewHistoryHandler(services.History, deps.Logger),
		Stats:    api.NewStatsHandler(services.Metrics, services.Pool, services.Vehicles, services.History, deps.Logger),
		Export:   api.NewExportHandler(services.Vehicles, deps.Logger),
		Health:   api.NewHealthHandler(db),
	}
}
