package httpd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/regcheck/cmd/common"
	"github.com/jonesrussell/regcheck/internal/api"
	"github.com/jonesrussell/regcheck/internal/constants"
	"github.com/jonesrussell/regcheck/internal/logger"
	"github.com/jonesrussell/regcheck/internal/scheduler"
	"github.com/jonesrussell/regcheck/internal/worker"
)

const (
	signalChannelBufferSize = 1
	errorChannelBufferSize  = 1
)

// startHTTPServer creates the HTTP server and starts serving in a goroutine.
// Returns the server and an error channel for server errors.
func startHTTPServer(deps common.CommandDeps, db *sqlx.DB, services *common.Services) (*http.Server, chan error) {
	router := api.SetupRouter(deps.Logger, buildHandlers(deps, db, services))
	server := api.NewHTTPServer(deps.Config.Server, router)

	deps.Logger.Info("Starting HTTP server", "addr", deps.Config.Server.Address)
	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	return server, errChan
}

// runServerUntilInterrupt runs the server until interrupted by signal or error.
func runServerUntilInterrupt(
	log logger.Interface,
	server *http.Server,
	refresher *scheduler.Refresher,
	pool *worker.Pool,
	errChan chan error,
) error {
	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, signalChannelBufferSize)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for interrupt signal or error
	select {
	case serverErr := <-errChan:
		log.Error("Server error", "error", serverErr)
		return fmt.Errorf("server error: %w", serverErr)
	case sig := <-sigChan:
		return shutdownServer(log, server, refresher, pool, sig)
	}
}

// shutdownServer performs graceful shutdown of the server, scheduler, and
// automation pool. The scheduler stops first so no new lookups enter the
// pipeline, then in-flight requests drain, then the pool releases its
// browser sessions.
func shutdownServer(
	log logger.Interface,
	server *http.Server,
	refresher *scheduler.Refresher,
	pool *worker.Pool,
	sig os.Signal,
) error {
	log.Info("Shutdown signal received", "signal", sig.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()

	// Stop scheduler first
	log.Info("Stopping refresh scheduler")
	refresher.Stop()

	// Stop HTTP server
	log.Info("Stopping HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to stop server", "error", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// Drain the automation pool
	log.Info("Stopping automation pool")
	if err := pool.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop automation pool", "error", err)
	}

	log.Info("Server stopped successfully")
	return nil
}
