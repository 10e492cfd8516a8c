package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/regcheck/internal/domain"
)

// parseLimit parses the limit query param with a default and a hard cap.
func parseLimit(c *gin.Context, defaultLimit, maxLimit int) int {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(defaultLimit))
	limit, _ := strconv.Atoi(limitStr)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

// statusForErrorType maps a lookup error class to an HTTP status code.
func statusForErrorType(errType domain.ErrorType) int {
	switch errType {
	case domain.ErrorTypeInvalidFormat:
		return http.StatusBadRequest
	case domain.ErrorTypeVehicleNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusServiceUnavailable
	}
}

// publicMessage returns the client-facing message for a lookup error
// class. Internal diagnostics never leave the server.
func publicMessage(errType domain.ErrorType) string {
	switch errType {
	case domain.ErrorTypeInvalidFormat:
		return "invalid registration format"
	case domain.ErrorTypeVehicleNotFound:
		return "vehicle not found"
	case domain.ErrorTypeTimeout:
		return "lookup timed out"
	default:
		return "lookup service unavailable"
	}
}

// respondLookupError sends the failure envelope for a lookup error.
func respondLookupError(c *gin.Context, err error) {
	errType := domain.ClassifyError(err)
	c.JSON(statusForErrorType(errType), ErrorResponse{
		Success:   false,
		Error:     publicMessage(errType),
		ErrorType: string(errType),
	})
}

// respondError sends a JSON error response.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondNotFound sends a 404 with resource not found message.
func respondNotFound(c *gin.Context, resource string) {
	respondError(c, http.StatusNotFound, resource+" not found")
}

// respondBadRequest sends a 400 with message.
func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

// respondInternalError sends a 500 with message.
func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, message)
}
