package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"phishguard/internal/apperr"
	"phishguard/internal/classifier"
	"phishguard/internal/models"
	"phishguard/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
	maxUserAgentLen     = 200
)

// Notifier is told about high-confidence phishing detections after the
// scan has committed. Implementations must not block the scan path.
type Notifier interface {
	AlertPhishing(scan *models.ScanRecord)
}

// ScanInput is one inbound message to classify. Empty optional fields
// mean absent.
type ScanInput struct {
	Message   string
	UserID    string
	DeviceID  string
	ClientIP  string
	UserAgent string
}

// ScanResult is the caller-facing outcome of one scan.
type ScanResult struct {
	ScanID           int64     `json:"scan_id"`
	IsPhishing       bool      `json:"is_phishing"`
	RiskScore        float64   `json:"risk_score"`
	Confidence       string    `json:"confidence"`
	PredictionTimeMs int64     `json:"prediction_time_ms"`
	Message          string    `json:"message"`
	Timestamp        time.Time `json:"timestamp"`
}

// HistoryPage is one page of a user's scan history, newest first.
type HistoryPage struct {
	Scans      []*models.ScanRecord `json:"scans"`
	TotalCount int64                `json:"total_count"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
	HasMore    bool                 `json:"has_more"`
}

// ScanService is the scan ingestion pipeline: validate, fingerprint,
// classify, persist atomically with the aggregate updates.
type ScanService interface {
	Scan(ctx context.Context, in ScanInput) (*ScanResult, error)
	History(ctx context.Context, userID string, limit, offset int, phishingOnly bool) (*HistoryPage, error)
	Duplicates(ctx context.Context, userID string, limit int) ([]*models.DuplicateGroup, error)
}

type scanService struct {
	repo     repository.ScanRepository
	clf      classifier.Classifier
	notifier Notifier
	logger   *zap.Logger
}

// NewScanService creates the ingestion pipeline. notifier may be nil.
func NewScanService(repo repository.ScanRepository, clf classifier.Classifier, notifier Notifier, logger *zap.Logger) ScanService {
	return &scanService{repo: repo, clf: clf, notifier: notifier, logger: logger}
}

func (s *scanService) Scan(ctx context.Context, in ScanInput) (*ScanResult, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, apperr.InvalidInput("message cannot be empty")
	}

	result := s.clf.Classify(message)

	scan := &models.ScanRecord{
		UserID:           optional(in.UserID),
		DeviceID:         optional(in.DeviceID),
		MessageText:      message,
		MessageHash:      Fingerprint(message),
		IsPhishing:       result.IsPhishing,
		RiskScore:        result.RiskScore,
		ConfidenceLevel:  result.ConfidenceLevel,
		ModelVersion:     result.ModelVersion,
		PredictionTimeMs: result.PredictionTimeMs,
		IPAddress:        optional(in.ClientIP),
		UserAgent:        optional(truncate(in.UserAgent, maxUserAgentLen)),
	}

	if err := s.repo.Create(ctx, scan); err != nil {
		return nil, err
	}

	s.logger.Info("Scan recorded",
		zap.Int64("scan_id", scan.ID),
		zap.Bool("is_phishing", scan.IsPhishing),
		zap.Float64("risk_score", scan.RiskScore),
		zap.String("confidence", scan.ConfidenceLevel))

	// Alert only after commit, off the request path.
	if s.notifier != nil && scan.IsPhishing && scan.ConfidenceLevel == models.ConfidenceHigh {
		go s.notifier.AlertPhishing(scan)
	}

	responseMessage := "Message appears safe"
	if scan.IsPhishing {
		responseMessage = "Phishing detected - High risk!"
	}

	return &ScanResult{
		ScanID:           scan.ID,
		IsPhishing:       scan.IsPhishing,
		RiskScore:        scan.RiskScore,
		Confidence:       scan.ConfidenceLevel,
		PredictionTimeMs: scan.PredictionTimeMs,
		Message:          responseMessage,
		Timestamp:        scan.CreatedAt,
	}, nil
}

func (s *scanService) History(ctx context.Context, userID string, limit, offset int, phishingOnly bool) (*HistoryPage, error) {
	if userID == "" {
		return nil, apperr.InvalidInput("user_id is required")
	}
	if limit < 0 || offset < 0 {
		return nil, apperr.InvalidInput("limit and offset must not be negative")
	}
	if limit == 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	scans, total, err := s.repo.History(ctx, userID, limit, offset, phishingOnly)
	if err != nil {
		return nil, err
	}

	return &HistoryPage{
		Scans:      scans,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    int64(offset+limit) < total,
	}, nil
}

func (s *scanService) Duplicates(ctx context.Context, userID string, limit int) ([]*models.DuplicateGroup, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.DuplicateGroups(ctx, userID, limit)
}

// Fingerprint is the deterministic dedup hash of normalized (trimmed)
// message text. Informational only: duplicates are still stored.
func Fingerprint(message string) string {
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// truncate caps v at max bytes without splitting a multi-byte rune, so
// the result is always valid UTF-8.
func truncate(v string, max int) string {
	if len(v) <= max {
		return v
	}
	v = v[:max]
	for len(v) > 0 && !utf8.ValidString(v) {
		v = v[:len(v)-1]
	}
	return v
}
