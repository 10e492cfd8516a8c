// Package constants provides shared process-level constants used across
// the regcheck application.
package constants

import "time"

const (
	// DefaultShutdownTimeout is the timeout for graceful shutdown. It must
	// cover draining the automation pool, whose workers can hold a browser
	// session for most of a lookup.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultStartupTimeout is the timeout for startup operations such as
	// connecting to the database and running migrations.
	DefaultStartupTimeout = 30 * time.Second
)
