package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/regcheck/internal/database"
	"github.com/jonesrussell/regcheck/internal/logger"
)

const defaultHistoryLimit = 50

// HistoryHandler serves the append-only search history log.
type HistoryHandler struct {
	history database.SearchHistoryRepositoryInterface
	log     logger.Interface
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(history database.SearchHistoryRepositoryInterface, log logger.Interface) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		log:     log,
	}
}

// ListHistory handles GET /api/v1/history.
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	limit := parseLimit(c, defaultHistoryLimit, maxListLimit)

	entries, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("list history failed", "error", err)
		respondInternalError(c, "failed to list history")
		return
	}

	c.JSON(http.StatusOK, HistoryListResponse{
		History: entries,
		Count:   len(entries),
	})
}
