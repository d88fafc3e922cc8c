package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"phishguard/internal/models"
)

// AnalyticsRepository serves the read-only derived views over scan
// history. Every method is a pure read; nothing here mutates state.
type AnalyticsRepository interface {
	// VolumeBuckets groups scans of the trailing window by truncated
	// creation timestamp; bucket is "hour" or "day".
	VolumeBuckets(ctx context.Context, days int, bucket string) ([]*models.VolumeBucket, error)
	PhishingTrend(ctx context.Context, days int) ([]*models.TrendPoint, error)
	// RiskHistogram counts scans per score bin over [0,1]. A score of
	// exactly 1.0 lands in the last bin.
	RiskHistogram(ctx context.Context, bins int) ([]*models.HistogramBucket, error)
	Dashboard(ctx context.Context, now time.Time) (*models.DashboardStats, error)
}

type analyticsRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewAnalyticsRepository creates an AnalyticsRepository over the store.
func NewAnalyticsRepository(store *Store, logger *zap.Logger) AnalyticsRepository {
	return &analyticsRepository{store: store, logger: logger}
}

func (r *analyticsRepository) VolumeBuckets(ctx context.Context, days int, bucket string) ([]*models.VolumeBucket, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	out := []*models.VolumeBucket{}
	err := r.store.DB().SelectContext(ctx, &out, `
		SELECT date_trunc($1, created_at AT TIME ZONE 'UTC') AS bucket, COUNT(*) AS scan_count
		FROM scan_history
		WHERE created_at >= $2
		GROUP BY 1
		ORDER BY 1`,
		bucket, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan volume: %w", err)
	}
	return out, nil
}

func (r *analyticsRepository) PhishingTrend(ctx context.Context, days int) ([]*models.TrendPoint, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	points := []*models.TrendPoint{}
	err := r.store.DB().SelectContext(ctx, &points, `
		SELECT (created_at AT TIME ZONE 'UTC')::date AS day,
		       COUNT(*) AS total_scans,
		       COUNT(*) FILTER (WHERE is_phishing) AS phishing_count
		FROM scan_history
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day`,
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query phishing trend: %w", err)
	}
	for _, p := range points {
		if p.TotalScans > 0 {
			p.PhishingRate = float64(p.PhishingCount) / float64(p.TotalScans) * 100
		}
	}
	return points, nil
}

func (r *analyticsRepository) RiskHistogram(ctx context.Context, bins int) ([]*models.HistogramBucket, error) {
	rows := []struct {
		Bucket int   `db:"bucket"`
		Count  int64 `db:"count"`
	}{}
	err := r.store.DB().SelectContext(ctx, &rows, `
		SELECT width_bucket(risk_score, 0.0, 1.0, $1) AS bucket, COUNT(*) AS count
		FROM scan_history
		GROUP BY bucket`,
		bins)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk histogram: %w", err)
	}

	width := 1.0 / float64(bins)
	out := make([]*models.HistogramBucket, bins)
	for i := range out {
		out[i] = &models.HistogramBucket{
			RangeLow:  float64(i) * width,
			RangeHigh: float64(i+1) * width,
		}
	}
	for _, row := range rows {
		idx := row.Bucket - 1
		if row.Bucket > bins { // width_bucket puts exactly 1.0 past the end
			idx = bins - 1
		}
		if idx >= 0 && idx < bins {
			out[idx].Count += row.Count
		}
	}
	return out, nil
}

func (r *analyticsRepository) Dashboard(ctx context.Context, now time.Time) (*models.DashboardStats, error) {
	var row struct {
		TotalScans   int64   `db:"total_scans"`
		Phishing     int64   `db:"phishing"`
		AvgRisk      float64 `db:"avg_risk"`
		AvgInference float64 `db:"avg_inference"`
		Scans24h     int64   `db:"scans_24h"`
		Users24h     int64   `db:"users_24h"`
		TotalUsers   int64   `db:"total_users"`
	}
	yesterday := now.Add(-24 * time.Hour)
	err := r.store.DB().GetContext(ctx, &row, `
		SELECT COUNT(*) AS total_scans,
		       COUNT(*) FILTER (WHERE is_phishing) AS phishing,
		       COALESCE(AVG(risk_score), 0) AS avg_risk,
		       COALESCE(AVG(prediction_time_ms), 0) AS avg_inference,
		       COUNT(*) FILTER (WHERE created_at >= $1) AS scans_24h,
		       COUNT(DISTINCT user_id) FILTER (WHERE created_at >= $1 AND user_id IS NOT NULL) AS users_24h,
		       (SELECT COUNT(*) FROM user_statistics) AS total_users
		FROM scan_history`,
		yesterday)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboard stats: %w", err)
	}

	stats := &models.DashboardStats{
		TotalScans:             row.TotalScans,
		PhishingDetected:       row.Phishing,
		SafeMessages:           row.TotalScans - row.Phishing,
		AverageRiskScore:       row.AvgRisk,
		ScansLast24h:           row.Scans24h,
		DistinctUsersLast24h:   row.Users24h,
		TotalUsers:             row.TotalUsers,
		AverageInferenceTimeMs: row.AvgInference,
		Timestamp:              now,
	}
	if row.TotalScans > 0 {
		stats.PhishingRate = float64(row.Phishing) / float64(row.TotalScans) * 100
	}
	return stats, nil
}
