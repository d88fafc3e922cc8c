package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phishguard/internal/apperr"
)

// respondError maps the stable error kinds onto HTTP statuses. Unknown
// errors are logged in full and reported generically so no storage or
// stack detail leaks to the caller.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "status": "invalid_input"})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "status": "not_found"})
	case errors.Is(err, apperr.ErrConflict):
		logger.Warn("Request lost an aggregate-update race", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporary conflict, please retry", "status": "conflict"})
	case errors.Is(err, apperr.ErrUnavailable):
		logger.Error("Storage unavailable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage unavailable", "status": "unavailable"})
	default:
		logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "status": "error"})
	}
}
