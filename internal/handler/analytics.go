package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phishguard/internal/service"
)

type AnalyticsHandler interface {
	Dashboard(c *gin.Context)
	Trends(c *gin.Context)
	Volume(c *gin.Context)
	Histogram(c *gin.Context)
	TopUsers(c *gin.Context)
	Accuracy(c *gin.Context)
	DailyMetrics(c *gin.Context)
}

type analyticsHandler struct {
	analytics service.AnalyticsService
	logger    *zap.Logger
}

func NewAnalyticsHandler(analytics service.AnalyticsService, logger *zap.Logger) AnalyticsHandler {
	return &analyticsHandler{analytics: analytics, logger: logger}
}

// Dashboard handles GET /api/analytics/dashboard
func (h *analyticsHandler) Dashboard(c *gin.Context) {
	stats, err := h.analytics.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Trends handles GET /api/analytics/trends?days=30
func (h *analyticsHandler) Trends(c *gin.Context) {
	days, err := intQuery(c, "days", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	points, err := h.analytics.Trend(c.Request.Context(), days)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": points})
}

// Volume handles GET /api/analytics/volume?days=7&bucket=hour
func (h *analyticsHandler) Volume(c *gin.Context) {
	days, err := intQuery(c, "days", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	buckets, err := h.analytics.Volume(c.Request.Context(), days, c.Query("bucket"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"volume": buckets})
}

// Histogram handles GET /api/analytics/histogram?bins=10
func (h *analyticsHandler) Histogram(c *gin.Context) {
	bins, err := intQuery(c, "bins", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	buckets, err := h.analytics.Histogram(c.Request.Context(), bins)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"histogram": buckets})
}

// TopUsers handles GET /api/analytics/top-users?limit=10
func (h *analyticsHandler) TopUsers(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	users, err := h.analytics.TopUsers(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Accuracy handles GET /api/analytics/accuracy?model_version=v1.0.0
func (h *analyticsHandler) Accuracy(c *gin.Context) {
	accuracy, err := h.analytics.Accuracy(c.Request.Context(), c.Query("model_version"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, accuracy)
}

// DailyMetrics handles GET /api/analytics/metrics?model_version=&limit=
func (h *analyticsHandler) DailyMetrics(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	rows, err := h.analytics.DailyMetrics(c.Request.Context(), c.Query("model_version"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": rows})
}
