package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"phishguard/internal/apperr"
	"phishguard/internal/models"
)

// StatsRepository reads per-user aggregates. Writes happen only inside
// the scan/feedback transactions owned by ScanRepository.
type StatsRepository interface {
	GetByUser(ctx context.Context, userID string) (*models.UserStatistics, error)
	// TopUsers orders by scan volume, breaking ties by most recent
	// last-scan timestamp, then ascending user id for determinism.
	TopUsers(ctx context.Context, limit int) ([]*models.UserStatistics, error)
}

type statsRepository struct {
	store  *Store
	logger *zap.Logger
}

// NewStatsRepository creates a StatsRepository over the store.
func NewStatsRepository(store *Store, logger *zap.Logger) StatsRepository {
	return &statsRepository{store: store, logger: logger}
}

func (r *statsRepository) GetByUser(ctx context.Context, userID string) (*models.UserStatistics, error) {
	var s models.UserStatistics
	err := r.store.DB().GetContext(ctx, &s,
		`SELECT `+userStatsColumns+` FROM user_statistics WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("statistics for user %q", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user statistics: %w", err)
	}
	return &s, nil
}

func (r *statsRepository) TopUsers(ctx context.Context, limit int) ([]*models.UserStatistics, error) {
	users := []*models.UserStatistics{}
	err := r.store.DB().SelectContext(ctx, &users,
		`SELECT `+userStatsColumns+` FROM user_statistics
		 ORDER BY total_scans DESC, last_scan_date DESC NULLS LAST, user_id ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top users: %w", err)
	}
	return users, nil
}
