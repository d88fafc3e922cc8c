package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"phishguard/internal/apperr"
	"phishguard/internal/models"
)

type fakeAnalyticsRepo struct {
	lastDays   int
	lastBucket string
	lastBins   int
}

func (f *fakeAnalyticsRepo) VolumeBuckets(_ context.Context, days int, bucket string) ([]*models.VolumeBucket, error) {
	f.lastDays, f.lastBucket = days, bucket
	return []*models.VolumeBucket{}, nil
}

func (f *fakeAnalyticsRepo) PhishingTrend(_ context.Context, days int) ([]*models.TrendPoint, error) {
	f.lastDays = days
	return []*models.TrendPoint{}, nil
}

func (f *fakeAnalyticsRepo) RiskHistogram(_ context.Context, bins int) ([]*models.HistogramBucket, error) {
	f.lastBins = bins
	return []*models.HistogramBucket{}, nil
}

func (f *fakeAnalyticsRepo) Dashboard(_ context.Context, _ time.Time) (*models.DashboardStats, error) {
	return &models.DashboardStats{TotalScans: 42}, nil
}

type fakeStatsRepo struct {
	lastLimit int
}

func (f *fakeStatsRepo) GetByUser(_ context.Context, userID string) (*models.UserStatistics, error) {
	return nil, apperr.NotFound("statistics for user %q", userID)
}

func (f *fakeStatsRepo) TopUsers(_ context.Context, limit int) ([]*models.UserStatistics, error) {
	f.lastLimit = limit
	return []*models.UserStatistics{}, nil
}

type fakeMetricsRepo struct {
	lastVersion string
	lastLimit   int
}

func (f *fakeMetricsRepo) ListByVersion(_ context.Context, version string, limit int) ([]*models.ModelMetricsDaily, error) {
	f.lastVersion, f.lastLimit = version, limit
	return []*models.ModelMetricsDaily{}, nil
}

func (f *fakeMetricsRepo) Accuracy(_ context.Context, version string) (*models.ModelAccuracy, error) {
	f.lastVersion = version
	return &models.ModelAccuracy{}, nil
}

func newTestAnalyticsService() (AnalyticsService, *fakeAnalyticsRepo, *fakeStatsRepo, *fakeMetricsRepo) {
	analytics := &fakeAnalyticsRepo{}
	statsRepo := &fakeStatsRepo{}
	metricsRepo := &fakeMetricsRepo{}
	svc := NewAnalyticsService(analytics, statsRepo, metricsRepo, "v1.0.0", zap.NewNop())
	return svc, analytics, statsRepo, metricsRepo
}

func TestDashboardCarriesModelVersion(t *testing.T) {
	svc, _, _, _ := newTestAnalyticsService()

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.ModelVersion != "v1.0.0" {
		t.Errorf("model version = %q, want v1.0.0", stats.ModelVersion)
	}
	if stats.TotalScans != 42 {
		t.Errorf("total scans = %d, want 42", stats.TotalScans)
	}
}

func TestVolumeDefaultsAndValidation(t *testing.T) {
	svc, analytics, _, _ := newTestAnalyticsService()
	ctx := context.Background()

	if _, err := svc.Volume(ctx, 0, ""); err != nil {
		t.Fatal(err)
	}
	if analytics.lastDays != defaultVolumeDays || analytics.lastBucket != "hour" {
		t.Errorf("defaults = %d/%q, want %d/hour", analytics.lastDays, analytics.lastBucket, defaultVolumeDays)
	}

	if _, err := svc.Volume(ctx, 7, "week"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bucket=week: error = %v, want invalid input", err)
	}
	if _, err := svc.Volume(ctx, 9999, "day"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("days=9999: error = %v, want invalid input", err)
	}
}

func TestTrendDefaultsAndValidation(t *testing.T) {
	svc, analytics, _, _ := newTestAnalyticsService()
	ctx := context.Background()

	if _, err := svc.Trend(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if analytics.lastDays != defaultTrendDays {
		t.Errorf("default days = %d, want %d", analytics.lastDays, defaultTrendDays)
	}

	if _, err := svc.Trend(ctx, -1); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("days=-1: error = %v, want invalid input", err)
	}
	if _, err := svc.Trend(ctx, maxTrailingDays+1); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("days over max: error = %v, want invalid input", err)
	}
}

func TestHistogramValidation(t *testing.T) {
	svc, analytics, _, _ := newTestAnalyticsService()
	ctx := context.Background()

	if _, err := svc.Histogram(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if analytics.lastBins != defaultBins {
		t.Errorf("default bins = %d, want %d", analytics.lastBins, defaultBins)
	}

	for _, bins := range []int{-3, maxHistogramBins + 1} {
		if _, err := svc.Histogram(ctx, bins); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("bins=%d: error = %v, want invalid input", bins, err)
		}
	}
}

func TestTopUsersValidation(t *testing.T) {
	svc, _, statsRepo, _ := newTestAnalyticsService()
	ctx := context.Background()

	if _, err := svc.TopUsers(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if statsRepo.lastLimit != defaultTopUsers {
		t.Errorf("default limit = %d, want %d", statsRepo.lastLimit, defaultTopUsers)
	}

	if _, err := svc.TopUsers(ctx, maxTopUsers+1); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("limit over max: error = %v, want invalid input", err)
	}
}

func TestDailyMetricsDefaultsToServingVersion(t *testing.T) {
	svc, _, _, metricsRepo := newTestAnalyticsService()
	ctx := context.Background()

	if _, err := svc.DailyMetrics(ctx, "", 0); err != nil {
		t.Fatal(err)
	}
	if metricsRepo.lastVersion != "v1.0.0" {
		t.Errorf("version = %q, want serving v1.0.0", metricsRepo.lastVersion)
	}
	if metricsRepo.lastLimit != defaultTrendDays {
		t.Errorf("limit = %d, want %d", metricsRepo.lastLimit, defaultTrendDays)
	}

	if _, err := svc.DailyMetrics(ctx, "v2.0.0", maxTrailingDays+1); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("limit over max: error = %v, want invalid input", err)
	}
}
