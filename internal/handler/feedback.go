package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phishguard/internal/service"
)

type FeedbackHandler interface {
	Submit(c *gin.Context)
}

type feedbackHandler struct {
	feedback service.FeedbackService
	logger   *zap.Logger
}

func NewFeedbackHandler(feedback service.FeedbackService, logger *zap.Logger) FeedbackHandler {
	return &feedbackHandler{feedback: feedback, logger: logger}
}

type FeedbackRequest struct {
	ScanID   int64  `json:"scan_id"`
	Feedback string `json:"feedback"`
}

// Submit handles POST /api/feedback
func (h *feedbackHandler) Submit(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "status": "invalid_input"})
		return
	}

	scan, err := h.feedback.Submit(c.Request.Context(), req.ScanID, req.Feedback)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"scan_id":  scan.ID,
		"feedback": scan.UserFeedback,
		"status":   "success",
	})
}
