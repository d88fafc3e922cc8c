package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"phishguard/internal/models"
)

// LifecycleRepository carries the retention, anonymization and export
// operations. Aggregate tables are never touched here: pruning raw
// scans must leave historical statistics intact.
type LifecycleRepository interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// AnonymizeOlderThan clears message text and client metadata in
	// place. Already-anonymized rows (empty message text) are skipped,
	// which makes the operation idempotent.
	AnonymizeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// StreamRange hands matching scans to fn in created_at order, one
	// batch per query, so concurrent ingestion is never locked out for
	// longer than a single batch read.
	StreamRange(ctx context.Context, start, end time.Time, batchSize int, fn func([]*models.ScanRecord) error) error
}

type lifecycleRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewLifecycleRepository creates a LifecycleRepository over the store.
func NewLifecycleRepository(store *Store, logger *zap.Logger) LifecycleRepository {
	return &lifecycleRepository{store: store, logger: logger}
}

func (r *lifecycleRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.store.DB().ExecContext(ctx,
		`DELETE FROM scan_history WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old scans: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	r.logger.Info("Deleted old scan records",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff))
	return deleted, nil
}

func (r *lifecycleRepository) AnonymizeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.store.DB().ExecContext(ctx, `
		UPDATE scan_history
		SET message_text = '', ip_address = NULL, user_agent = NULL
		WHERE created_at < $1 AND message_text <> ''`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to anonymize old scans: %w", err)
	}
	anonymized, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	r.logger.Info("Anonymized old scan records",
		zap.Int64("anonymized", anonymized),
		zap.Time("cutoff", cutoff))
	return anonymized, nil
}

func (r *lifecycleRepository) StreamRange(ctx context.Context, start, end time.Time, batchSize int, fn func([]*models.ScanRecord) error) error {
	var afterTime time.Time
	var afterID int64

	for {
		batch := []*models.ScanRecord{}
		err := r.store.DB().SelectContext(ctx, &batch,
			`SELECT `+scanColumns+` FROM scan_history
			 WHERE created_at >= $1 AND created_at <= $2
			   AND (created_at > $3 OR (created_at = $3 AND id > $4))
			 ORDER BY created_at ASC, id ASC
			 LIMIT $5`,
			start, end, afterTime, afterID, batchSize)
		if err != nil {
			return fmt.Errorf("failed to read export batch: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		last := batch[len(batch)-1]
		afterTime, afterID = last.CreatedAt, last.ID
	}
}
