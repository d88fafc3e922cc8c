package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"phishguard/internal/apperr"
	"phishguard/internal/config"
	"phishguard/internal/service"
)

type AdminHandler interface {
	Cleanup(c *gin.Context)
	Anonymize(c *gin.Context)
	Export(c *gin.Context)
}

type adminHandler struct {
	lifecycle service.LifecycleService
	retention config.RetentionConfig
	exportDir string
	logger    *zap.Logger
}

// NewAdminHandler creates the retention/export handler. exportDir is
// where CSV exports are written before optional upload.
func NewAdminHandler(lifecycle service.LifecycleService, retention config.RetentionConfig, exportDir string, logger *zap.Logger) AdminHandler {
	return &adminHandler{
		lifecycle: lifecycle,
		retention: retention,
		exportDir: exportDir,
		logger:    logger,
	}
}

type RetentionRequest struct {
	Days int `json:"days"`
}

// Cleanup handles POST /api/admin/retention/cleanup
func (h *adminHandler) Cleanup(c *gin.Context) {
	days, ok := h.retentionDays(c, h.retention.DeleteDays)
	if !ok {
		return
	}

	deleted, err := h.lifecycle.Cleanup(c.Request.Context(), days)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "days": days, "status": "success"})
}

// Anonymize handles POST /api/admin/retention/anonymize
func (h *adminHandler) Anonymize(c *gin.Context) {
	days, ok := h.retentionDays(c, h.retention.AnonymizeDays)
	if !ok {
		return
	}

	anonymized, err := h.lifecycle.Anonymize(c.Request.Context(), days)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"anonymized": anonymized, "days": days, "status": "success"})
}

type ExportRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Export handles POST /api/admin/export. Dates are inclusive calendar
// days in UTC, formatted 2006-01-02.
func (h *adminHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "status": "invalid_input"})
		return
	}

	start, err := parseDay(req.StartDate, "start_date")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	end, err := parseDay(req.EndDate, "end_date")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	// Include the whole end day.
	end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)

	path := filepath.Join(h.exportDir, "scan-export-"+uuid.NewString()+".csv")
	result, err := h.lifecycle.Export(c.Request.Context(), path, start, end)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"export": result, "status": "success"})
}

// retentionDays binds the optional {days} body; an absent body (EOF
// regardless of Content-Length, so chunked requests work too) falls
// back to the configured default.
func (h *adminHandler) retentionDays(c *gin.Context, fallback int) (int, bool) {
	var req RetentionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "status": "invalid_input"})
		return 0, false
	}
	if req.Days == 0 {
		req.Days = fallback
	}
	return req.Days, true
}

func parseDay(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperr.InvalidInput("%s is required", name)
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, apperr.InvalidInput("%s must be formatted 2006-01-02, got %q", name, raw)
	}
	return day, nil
}
