package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/regcheck/internal/config"
)

// NewHTTPServer builds the http.Server around a configured router. The
// write timeout must stay above the lookup ceiling so browser-automation
// lookups can still write their response.
func NewHTTPServer(cfg *config.ServerConfig, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
