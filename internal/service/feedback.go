package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"phishguard/internal/apperr"
	"phishguard/internal/models"
	"phishguard/internal/repository"
)

// FeedbackService records user feedback on past verdicts. The label,
// the user's aggregate and the historical model-metrics row commit as
// one unit inside the repository.
type FeedbackService interface {
	Submit(ctx context.Context, scanID int64, label string) (*models.ScanRecord, error)
}

type feedbackService struct {
	repo   repository.ScanRepository
	logger *zap.Logger
}

// NewFeedbackService creates a FeedbackService.
func NewFeedbackService(repo repository.ScanRepository, logger *zap.Logger) FeedbackService {
	return &feedbackService{repo: repo, logger: logger}
}

func (s *feedbackService) Submit(ctx context.Context, scanID int64, label string) (*models.ScanRecord, error) {
	if !models.ValidFeedback(label) {
		return nil, apperr.InvalidInput("feedback must be CORRECT, INCORRECT or UNSURE, got %q", label)
	}

	scan, err := s.repo.SubmitFeedback(ctx, scanID, label, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.logger.Info("Feedback recorded",
		zap.Int64("scan_id", scanID),
		zap.String("feedback", label))
	return scan, nil
}
