package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"phishguard/internal/apperr"
	"phishguard/internal/models"
	"phishguard/internal/repository"
)

const (
	maxTrailingDays   = 365
	maxHistogramBins  = 100
	maxTopUsers       = 100
	defaultTrendDays  = 30
	defaultVolumeDays = 7
	defaultBins       = 10
	defaultTopUsers   = 10
)

// AnalyticsService exposes the read-only derived views: volumes,
// trends, histograms, leaderboards, feedback-derived accuracy and the
// dashboard snapshot.
type AnalyticsService interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	Volume(ctx context.Context, days int, bucket string) ([]*models.VolumeBucket, error)
	Trend(ctx context.Context, days int) ([]*models.TrendPoint, error)
	Histogram(ctx context.Context, bins int) ([]*models.HistogramBucket, error)
	TopUsers(ctx context.Context, limit int) ([]*models.UserStatistics, error)
	Accuracy(ctx context.Context, modelVersion string) (*models.ModelAccuracy, error)
	// DailyMetrics lists recent per-day quality rows for a model
	// version, newest first. An empty version means the serving one.
	DailyMetrics(ctx context.Context, modelVersion string, limit int) ([]*models.ModelMetricsDaily, error)
}

type analyticsService struct {
	analytics    repository.AnalyticsRepository
	statsRepo    repository.StatsRepository
	metricsRepo  repository.MetricsRepository
	modelVersion string
	logger       *zap.Logger
}

// NewAnalyticsService creates an AnalyticsService. modelVersion is the
// currently serving version, reported in the dashboard snapshot.
func NewAnalyticsService(
	analytics repository.AnalyticsRepository,
	statsRepo repository.StatsRepository,
	metricsRepo repository.MetricsRepository,
	modelVersion string,
	logger *zap.Logger,
) AnalyticsService {
	return &analyticsService{
		analytics:    analytics,
		statsRepo:    statsRepo,
		metricsRepo:  metricsRepo,
		modelVersion: modelVersion,
		logger:       logger,
	}
}

func (s *analyticsService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.analytics.Dashboard(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	stats.ModelVersion = s.modelVersion
	return stats, nil
}

func (s *analyticsService) Volume(ctx context.Context, days int, bucket string) ([]*models.VolumeBucket, error) {
	if bucket == "" {
		bucket = "hour"
	}
	if bucket != "hour" && bucket != "day" {
		return nil, apperr.InvalidInput("bucket must be hour or day, got %q", bucket)
	}
	days, err := trailingDays(days, defaultVolumeDays)
	if err != nil {
		return nil, err
	}
	return s.analytics.VolumeBuckets(ctx, days, bucket)
}

func (s *analyticsService) Trend(ctx context.Context, days int) ([]*models.TrendPoint, error) {
	days, err := trailingDays(days, defaultTrendDays)
	if err != nil {
		return nil, err
	}
	return s.analytics.PhishingTrend(ctx, days)
}

func (s *analyticsService) Histogram(ctx context.Context, bins int) ([]*models.HistogramBucket, error) {
	if bins == 0 {
		bins = defaultBins
	}
	if bins < 1 || bins > maxHistogramBins {
		return nil, apperr.InvalidInput("bins must be between 1 and %d", maxHistogramBins)
	}
	return s.analytics.RiskHistogram(ctx, bins)
}

func (s *analyticsService) TopUsers(ctx context.Context, limit int) ([]*models.UserStatistics, error) {
	if limit == 0 {
		limit = defaultTopUsers
	}
	if limit < 1 || limit > maxTopUsers {
		return nil, apperr.InvalidInput("limit must be between 1 and %d", maxTopUsers)
	}
	return s.statsRepo.TopUsers(ctx, limit)
}

func (s *analyticsService) Accuracy(ctx context.Context, modelVersion string) (*models.ModelAccuracy, error) {
	return s.metricsRepo.Accuracy(ctx, modelVersion)
}

func (s *analyticsService) DailyMetrics(ctx context.Context, modelVersion string, limit int) ([]*models.ModelMetricsDaily, error) {
	if modelVersion == "" {
		modelVersion = s.modelVersion
	}
	if limit == 0 {
		limit = defaultTrendDays
	}
	if limit < 1 || limit > maxTrailingDays {
		return nil, apperr.InvalidInput("limit must be between 1 and %d", maxTrailingDays)
	}
	return s.metricsRepo.ListByVersion(ctx, modelVersion, limit)
}

func trailingDays(days, fallback int) (int, error) {
	if days == 0 {
		return fallback, nil
	}
	if days < 1 || days > maxTrailingDays {
		return 0, apperr.InvalidInput("days must be between 1 and %d", maxTrailingDays)
	}
	return days, nil
}
