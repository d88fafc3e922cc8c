package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"phishguard/internal/apperr"
	"phishguard/internal/modelmetrics"
	"phishguard/internal/models"
	"phishguard/internal/stats"
)

// ScanRepository persists classification events and applies the
// aggregate updates that must commit atomically with them.
type ScanRepository interface {
	// Create persists the scan and, in the same transaction, folds it
	// into the user's statistics and the day's model metrics row.
	// Either everything commits or nothing is visible.
	Create(ctx context.Context, scan *models.ScanRecord) error
	GetByID(ctx context.Context, id int64) (*models.ScanRecord, error)
	// History returns one newest-first page of a user's scans plus the
	// total number of matching rows.
	History(ctx context.Context, userID string, limit, offset int, phishingOnly bool) ([]*models.ScanRecord, int64, error)
	// SubmitFeedback stores the label on the scan and updates the
	// user's statistics and the historical (version, date) metrics row
	// in one transaction. Resubmitting the same label is a no-op.
	SubmitFeedback(ctx context.Context, scanID int64, label string, now time.Time) (*models.ScanRecord, error)
	DuplicateGroups(ctx context.Context, userID string, limit int) ([]*models.DuplicateGroup, error)
}

const scanColumns = `id, user_id, device_id, message_text, message_hash, is_phishing, risk_score,
	confidence_level, model_version, prediction_time_ms, created_at, user_feedback,
	feedback_timestamp, ip_address, user_agent`

const userStatsColumns = `user_id, total_scans, phishing_detected, safe_messages, average_risk_score,
	highest_risk_score, first_scan_date, last_scan_date, feedback_provided, correct_predictions,
	incorrect_predictions, updated_at`

const metricsColumns = `model_version, metric_date, total_predictions, phishing_predictions,
	safe_predictions, true_positives, false_positives, true_negatives, false_negatives,
	precision, recall, f1_score, avg_inference_time_ms, min_inference_time_ms,
	max_inference_time_ms, created_at`

type scanRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewScanRepository creates a ScanRepository over the store.
func NewScanRepository(store *Store, logger *zap.Logger) ScanRepository {
	return &scanRepository{store: store, logger: logger}
}

func (r *scanRepository) Create(ctx context.Context, scan *models.ScanRecord) error {
	return r.store.InTx(ctx, func(tx *sqlx.Tx) error {
		const insertScan = `
			INSERT INTO scan_history (user_id, device_id, message_text, message_hash, is_phishing,
			                          risk_score, confidence_level, model_version, prediction_time_ms,
			                          ip_address, user_agent)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, created_at`
		err := tx.QueryRowxContext(ctx, insertScan,
			scan.UserID, scan.DeviceID, scan.MessageText, scan.MessageHash, scan.IsPhishing,
			scan.RiskScore, scan.ConfidenceLevel, scan.ModelVersion, scan.PredictionTimeMs,
			scan.IPAddress, scan.UserAgent,
		).Scan(&scan.ID, &scan.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert scan: %w", err)
		}

		if scan.UserID != nil {
			if err := r.applyScanToStats(ctx, tx, *scan.UserID, scan); err != nil {
				return err
			}
		}
		return r.applyPrediction(ctx, tx, scan)
	})
}

// applyScanToStats ensures the user's aggregate row exists, locks it,
// and rewrites it with this scan folded in. The FOR UPDATE lock
// serializes concurrent scans for the same user so no update is lost.
func (r *scanRepository) applyScanToStats(ctx context.Context, tx *sqlx.Tx, userID string, scan *models.ScanRecord) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_statistics (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID); err != nil {
		return fmt.Errorf("failed to ensure user statistics row: %w", err)
	}

	var s models.UserStatistics
	if err := tx.GetContext(ctx, &s,
		`SELECT `+userStatsColumns+` FROM user_statistics WHERE user_id = $1 FOR UPDATE`,
		userID); err != nil {
		return fmt.Errorf("failed to lock user statistics: %w", err)
	}

	stats.ApplyScan(&s, userID, scan.RiskScore, scan.IsPhishing, scan.CreatedAt)
	return r.putUserStats(ctx, tx, &s)
}

func (r *scanRepository) putUserStats(ctx context.Context, tx *sqlx.Tx, s *models.UserStatistics) error {
	const q = `
		UPDATE user_statistics
		SET total_scans = $2, phishing_detected = $3, safe_messages = $4,
		    average_risk_score = $5, highest_risk_score = $6,
		    first_scan_date = $7, last_scan_date = $8,
		    feedback_provided = $9, correct_predictions = $10, incorrect_predictions = $11,
		    updated_at = $12
		WHERE user_id = $1`
	if _, err := tx.ExecContext(ctx, q,
		s.UserID, s.TotalScans, s.PhishingDetected, s.SafeMessages,
		s.AverageRiskScore, s.HighestRiskScore,
		s.FirstScanDate, s.LastScanDate,
		s.FeedbackProvided, s.CorrectPredictions, s.IncorrectPredictions,
		s.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to update user statistics: %w", err)
	}
	return nil
}

// applyPrediction folds the scan into the (model_version, day) metrics
// row, creating it on the first prediction of that version and day.
func (r *scanRepository) applyPrediction(ctx context.Context, tx *sqlx.Tx, scan *models.ScanRecord) error {
	date := metricDate(scan.CreatedAt)

	m, err := r.lockMetricsRow(ctx, tx, scan.ModelVersion, date, scan.CreatedAt)
	if err != nil {
		return err
	}
	modelmetrics.ApplyPrediction(m, scan.ModelVersion, date, scan.IsPhishing, scan.PredictionTimeMs, scan.CreatedAt)
	return r.putMetricsRow(ctx, tx, m)
}

func (r *scanRepository) lockMetricsRow(ctx context.Context, tx *sqlx.Tx, version string, date time.Time, now time.Time) (*models.ModelMetricsDaily, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO model_metrics (model_version, metric_date, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (model_version, metric_date) DO NOTHING`,
		version, date, now); err != nil {
		return nil, fmt.Errorf("failed to ensure model metrics row: %w", err)
	}

	var m models.ModelMetricsDaily
	if err := tx.GetContext(ctx, &m,
		`SELECT `+metricsColumns+` FROM model_metrics
		 WHERE model_version = $1 AND metric_date = $2 FOR UPDATE`,
		version, date); err != nil {
		return nil, fmt.Errorf("failed to lock model metrics: %w", err)
	}
	return &m, nil
}

func (r *scanRepository) putMetricsRow(ctx context.Context, tx *sqlx.Tx, m *models.ModelMetricsDaily) error {
	const q = `
		UPDATE model_metrics
		SET total_predictions = $3, phishing_predictions = $4, safe_predictions = $5,
		    true_positives = $6, false_positives = $7, true_negatives = $8, false_negatives = $9,
		    precision = $10, recall = $11, f1_score = $12,
		    avg_inference_time_ms = $13, min_inference_time_ms = $14, max_inference_time_ms = $15
		WHERE model_version = $1 AND metric_date = $2`
	if _, err := tx.ExecContext(ctx, q,
		m.ModelVersion, m.MetricDate,
		m.TotalPredictions, m.PhishingPredictions, m.SafePredictions,
		m.TruePositives, m.FalsePositives, m.TrueNegatives, m.FalseNegatives,
		m.Precision, m.Recall, m.F1Score,
		m.AvgInferenceTimeMs, m.MinInferenceTimeMs, m.MaxInferenceTimeMs,
	); err != nil {
		return fmt.Errorf("failed to update model metrics: %w", err)
	}
	return nil
}

func (r *scanRepository) GetByID(ctx context.Context, id int64) (*models.ScanRecord, error) {
	var scan models.ScanRecord
	err := r.store.DB().GetContext(ctx, &scan,
		`SELECT `+scanColumns+` FROM scan_history WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("scan %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	return &scan, nil
}

func (r *scanRepository) History(ctx context.Context, userID string, limit, offset int, phishingOnly bool) ([]*models.ScanRecord, int64, error) {
	where := `WHERE user_id = $1`
	if phishingOnly {
		where += ` AND is_phishing`
	}

	scans := []*models.ScanRecord{}
	err := r.store.DB().SelectContext(ctx, &scans,
		`SELECT `+scanColumns+` FROM scan_history `+where+`
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query scan history: %w", err)
	}

	var total int64
	err = r.store.DB().GetContext(ctx, &total,
		`SELECT COUNT(*) FROM scan_history `+where, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count scan history: %w", err)
	}
	return scans, total, nil
}

func (r *scanRepository) SubmitFeedback(ctx context.Context, scanID int64, label string, now time.Time) (*models.ScanRecord, error) {
	var out *models.ScanRecord
	err := r.store.InTx(ctx, func(tx *sqlx.Tx) error {
		var scan models.ScanRecord
		err := tx.GetContext(ctx, &scan,
			`SELECT `+scanColumns+` FROM scan_history WHERE id = $1 FOR UPDATE`, scanID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("scan %d", scanID)
		}
		if err != nil {
			return fmt.Errorf("failed to lock scan: %w", err)
		}

		previous := scan.UserFeedback
		if previous != nil && *previous == label {
			// Idempotent resubmission: nothing to count twice.
			out = &scan
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE scan_history SET user_feedback = $1, feedback_timestamp = $2 WHERE id = $3`,
			label, now, scanID); err != nil {
			return fmt.Errorf("failed to store feedback: %w", err)
		}

		if scan.UserID != nil {
			if err := r.applyFeedbackToStats(ctx, tx, *scan.UserID, previous, label, now); err != nil {
				return err
			}
		}

		// Delayed feedback addresses the row matching the original
		// prediction's date, not today's.
		m, err := r.lockMetricsRow(ctx, tx, scan.ModelVersion, metricDate(scan.CreatedAt), now)
		if err != nil {
			return err
		}
		if modelmetrics.ApplyFeedback(m, scan.IsPhishing, previous, label) {
			if err := r.putMetricsRow(ctx, tx, m); err != nil {
				return err
			}
		}

		scan.UserFeedback = &label
		scan.FeedbackTimestamp = &now
		out = &scan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scanRepository) applyFeedbackToStats(ctx context.Context, tx *sqlx.Tx, userID string, previous *string, label string, now time.Time) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_statistics (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID); err != nil {
		return fmt.Errorf("failed to ensure user statistics row: %w", err)
	}

	var s models.UserStatistics
	if err := tx.GetContext(ctx, &s,
		`SELECT `+userStatsColumns+` FROM user_statistics WHERE user_id = $1 FOR UPDATE`,
		userID); err != nil {
		return fmt.Errorf("failed to lock user statistics: %w", err)
	}

	if stats.ApplyFeedback(&s, previous, label, now) {
		return r.putUserStats(ctx, tx, &s)
	}
	return nil
}

func (r *scanRepository) DuplicateGroups(ctx context.Context, userID string, limit int) ([]*models.DuplicateGroup, error) {
	query := `
		SELECT message_hash, COUNT(id) AS count, MIN(created_at) AS first_scan
		FROM scan_history`
	args := []interface{}{limit}
	if userID != "" {
		query += ` WHERE user_id = $2`
		args = append(args, userID)
	}
	query += `
		GROUP BY message_hash
		HAVING COUNT(id) > 1
		ORDER BY COUNT(id) DESC
		LIMIT $1`

	groups := []*models.DuplicateGroup{}
	if err := r.store.DB().SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query duplicate groups: %w", err)
	}
	return groups, nil
}

// metricDate truncates a scan's creation timestamp to its UTC calendar
// date, the key of its model_metrics row.
func metricDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
