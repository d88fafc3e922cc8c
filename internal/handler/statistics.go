package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phishguard/internal/apperr"
	"phishguard/internal/repository"
)

type StatisticsHandler interface {
	GetByUser(c *gin.Context)
}

type statisticsHandler struct {
	stats  repository.StatsRepository
	logger *zap.Logger
}

func NewStatisticsHandler(stats repository.StatsRepository, logger *zap.Logger) StatisticsHandler {
	return &statisticsHandler{stats: stats, logger: logger}
}

// GetByUser handles GET /api/statistics/:user_id
func (h *statisticsHandler) GetByUser(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		respondError(c, h.logger, apperr.InvalidInput("user_id is required"))
		return
	}

	stats, err := h.stats.GetByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"statistics": stats, "status": "success"})
}
