package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phishguard/internal/apperr"
	"phishguard/internal/service"
)

type ScanHandler interface {
	Scan(c *gin.Context)
	History(c *gin.Context)
	Duplicates(c *gin.Context)
}

type scanHandler struct {
	scans  service.ScanService
	logger *zap.Logger
}

func NewScanHandler(scans service.ScanService, logger *zap.Logger) ScanHandler {
	return &scanHandler{scans: scans, logger: logger}
}

type ScanRequest struct {
	Message  string `json:"message"`
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
}

// Scan handles POST /api/scan
func (h *scanHandler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "status": "invalid_input"})
		return
	}

	result, err := h.scans.Scan(c.Request.Context(), service.ScanInput{
		Message:   req.Message,
		UserID:    req.UserID,
		DeviceID:  req.DeviceID,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// History handles GET /api/history
// Query parameters:
// - user_id: filter by user (required)
// - limit: number of records (default 50, max 200)
// - offset: pagination offset (default 0)
// - phishing_only: return only phishing verdicts (true/false)
func (h *scanHandler) History(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	phishingOnly := c.Query("phishing_only") == "true"

	page, err := h.scans.History(c.Request.Context(), c.Query("user_id"), limit, offset, phishingOnly)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Duplicates handles GET /api/duplicates
func (h *scanHandler) Duplicates(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	groups, err := h.scans.Duplicates(c.Request.Context(), c.Query("user_id"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"duplicates": groups})
}

func intQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidInput("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}
