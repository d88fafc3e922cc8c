package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"phishguard/internal/apperr"
	"phishguard/internal/models"
	"phishguard/internal/repository"
)

const exportBatchSize = 500

// Uploader pushes a finished export file to external storage.
type Uploader interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// ExportResult describes a completed export.
type ExportResult struct {
	Count       int64  `json:"exported"`
	Path        string `json:"path"`
	ArtifactURL string `json:"artifact_url,omitempty"`
}

// LifecycleService owns retention pruning, anonymization and export of
// historical scans. Aggregates are never modified here.
type LifecycleService interface {
	// Cleanup permanently removes scans older than the given number of
	// days and returns how many were deleted.
	Cleanup(ctx context.Context, days int) (int64, error)
	// Anonymize clears message text and client metadata on scans older
	// than the given number of days; idempotent.
	Anonymize(ctx context.Context, days int) (int64, error)
	// Export streams scans created within [start, end] to a CSV file
	// at path, optionally uploading the finished file.
	Export(ctx context.Context, path string, start, end time.Time) (*ExportResult, error)
}

type lifecycleService struct {
	repo     repository.LifecycleRepository
	uploader Uploader
	logger   *zap.Logger
}

// NewLifecycleService creates a LifecycleService. uploader may be nil.
func NewLifecycleService(repo repository.LifecycleRepository, uploader Uploader, logger *zap.Logger) LifecycleService {
	return &lifecycleService{repo: repo, uploader: uploader, logger: logger}
}

func (s *lifecycleService) Cleanup(ctx context.Context, days int) (int64, error) {
	cutoff, err := cutoffFor(days)
	if err != nil {
		return 0, err
	}
	return s.repo.DeleteOlderThan(ctx, cutoff)
}

func (s *lifecycleService) Anonymize(ctx context.Context, days int) (int64, error) {
	cutoff, err := cutoffFor(days)
	if err != nil {
		return 0, err
	}
	return s.repo.AnonymizeOlderThan(ctx, cutoff)
}

// exportHeader keeps the column order of the historical export format.
var exportHeader = []string{
	"id", "user_id", "device_id", "message_text", "is_phishing",
	"risk_score", "confidence_level", "model_version",
	"prediction_time_ms", "created_at", "user_feedback",
}

func (s *lifecycleService) Export(ctx context.Context, path string, start, end time.Time) (*ExportResult, error) {
	if path == "" {
		return nil, apperr.InvalidInput("export path is required")
	}
	if end.Before(start) {
		return nil, apperr.InvalidInput("end date is before start date")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}

	var count int64
	err = s.repo.StreamRange(ctx, start, end, exportBatchSize, func(batch []*models.ScanRecord) error {
		for _, scan := range batch {
			if err := w.Write(exportRow(scan)); err != nil {
				return fmt.Errorf("failed to write export row: %w", err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export file: %w", err)
	}

	result := &ExportResult{Count: count, Path: path}
	if s.uploader != nil {
		key := "exports/" + uuid.NewString() + ".csv"
		url, err := s.uploader.Upload(ctx, path, key)
		if err != nil {
			// The local file is complete; the upload is best effort.
			s.logger.Error("Failed to upload export artifact", zap.Error(err))
		} else {
			result.ArtifactURL = url
		}
	}

	s.logger.Info("Export finished",
		zap.Int64("exported", count),
		zap.String("path", path))
	return result, nil
}

func exportRow(scan *models.ScanRecord) []string {
	return []string{
		strconv.FormatInt(scan.ID, 10),
		deref(scan.UserID),
		deref(scan.DeviceID),
		scan.MessageText,
		strconv.FormatBool(scan.IsPhishing),
		strconv.FormatFloat(scan.RiskScore, 'f', 4, 64),
		scan.ConfidenceLevel,
		scan.ModelVersion,
		strconv.FormatInt(scan.PredictionTimeMs, 10),
		scan.CreatedAt.UTC().Format(time.RFC3339),
		deref(scan.UserFeedback),
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func cutoffFor(days int) (time.Time, error) {
	if days <= 0 {
		return time.Time{}, apperr.InvalidInput("days must be positive, got %d", days)
	}
	return time.Now().UTC().AddDate(0, 0, -days), nil
}
