package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"phishguard/internal/modelmetrics"
	"phishguard/internal/models"
)

// MetricsRepository reads model-quality rows and feedback-derived
// accuracy summaries.
type MetricsRepository interface {
	// ListByVersion returns recent per-day rows, newest first.
	ListByVersion(ctx context.Context, version string, limit int) ([]*models.ModelMetricsDaily, error)
	// Accuracy sums the confusion matrix for one version across all
	// dates, or across every version when version is empty, and derives
	// precision/recall/F1 with the same ratios the daily rows use.
	Accuracy(ctx context.Context, version string) (*models.ModelAccuracy, error)
}

type metricsRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewMetricsRepository creates a MetricsRepository over the store.
func NewMetricsRepository(store *Store, logger *zap.Logger) MetricsRepository {
	return &metricsRepository{store: store, logger: logger}
}

func (r *metricsRepository) ListByVersion(ctx context.Context, version string, limit int) ([]*models.ModelMetricsDaily, error) {
	rows := []*models.ModelMetricsDaily{}
	err := r.store.DB().SelectContext(ctx, &rows,
		`SELECT `+metricsColumns+` FROM model_metrics
		 WHERE model_version = $1 ORDER BY metric_date DESC LIMIT $2`,
		version, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list model metrics: %w", err)
	}
	return rows, nil
}

func (r *metricsRepository) Accuracy(ctx context.Context, version string) (*models.ModelAccuracy, error) {
	query := `
		SELECT COALESCE(SUM(true_positives), 0)  AS tp,
		       COALESCE(SUM(false_positives), 0) AS fp,
		       COALESCE(SUM(true_negatives), 0)  AS tn,
		       COALESCE(SUM(false_negatives), 0) AS fn
		FROM model_metrics`
	args := []interface{}{}
	if version != "" {
		query += ` WHERE model_version = $1`
		args = append(args, version)
	}

	var row struct {
		TP int64 `db:"tp"`
		FP int64 `db:"fp"`
		TN int64 `db:"tn"`
		FN int64 `db:"fn"`
	}
	if err := r.store.DB().GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("failed to sum confusion matrix: %w", err)
	}

	acc := &models.ModelAccuracy{
		ModelVersion:   version,
		TruePositives:  row.TP,
		FalsePositives: row.FP,
		TrueNegatives:  row.TN,
		FalseNegatives: row.FN,
	}
	acc.Precision, acc.Recall, acc.F1Score = modelmetrics.Ratios(row.TP, row.FP, row.FN)
	return acc, nil
}
