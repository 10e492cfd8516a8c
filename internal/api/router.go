package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/regcheck/internal/logger"
)

// Handlers groups the route handlers wired into the router.
type Handlers struct {
	Lookup   *LookupHandler
	Vehicles *VehiclesHandler
	History  *HistoryHandler
	Stats    *StatsHandler
	Export   *ExportHandler
	Health   *HealthHandler
}

// SetupRouter creates and configures the Gin router with all routes.
func SetupRouter(log logger.Interface, h Handlers) *gin.Engine {
	// Disable Gin's default logging
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	router.GET("/health", h.Health.Health)

	v1 := router.Group("/api/v1")
	v1.POST("/lookup", h.Lookup.Lookup)
	v1.GET("/vehicles", h.Vehicles.ListVehicles)
	v1.GET("/vehicles/:registration", h.Vehicles.GetVehicle)
	v1.GET("/history", h.History.ListHistory)
	v1.GET("/stats", h.Stats.GetStats)
	v1.GET("/export/csv", h.Export.ExportCSV)
	v1.GET("/export/json", h.Export.ExportJSON)

	return router
}

// loggingMiddleware creates a middleware that logs HTTP requests
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP Request",
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", statusCode,
			"latency", latency,
		)
	}
}

// corsMiddleware adds CORS headers to allow frontend access
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, "+
				"Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
