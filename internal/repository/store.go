package repository

import (
	"context"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // Required for file source
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"phishguard/internal/apperr"
)

// NewPostgresDB establishes a new connection to the PostgreSQL database.
func NewPostgresDB(dataSourceName string, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to the database!")
	return db, nil
}

// MigrateDB runs database migrations.
func MigrateDB(db *sqlx.DB, logger *zap.Logger) {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		logger.Fatal("Couldn't get database instance for running migrations", zap.Error(err))
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "phishguard", driver)
	if err != nil {
		logger.Fatal("Couldn't create migrate instance", zap.Error(err))
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Couldn't run database migration", zap.Error(err))
	}

	logger.Info("Database migration was run successfully")
}

// txAttempts bounds the retries on serialization conflicts before the
// error is surfaced as transient.
const txAttempts = 3

// Store wraps the database handle and runs functions transactionally.
// Aggregate rows are read fresh inside each transaction (SELECT ... FOR
// UPDATE); there is no in-process cache of aggregates anywhere.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStore creates a Store over an established connection.
func NewStore(db *sqlx.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// DB exposes the underlying handle for read-only queries that need no
// transaction.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// InTx runs fn inside a transaction. Serialization failures and
// deadlocks (pq codes 40001, 40P01) are retried up to txAttempts times;
// once exhausted the caller sees apperr.ErrConflict. Any rollback is
// complete: no partial state is ever visible.
func (s *Store) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= txAttempts; attempt++ {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return apperr.Unavailable(err)
		}

		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			if retryable(err) {
				lastErr = err
				s.logger.Warn("Transaction conflicted, retrying",
					zap.Int("attempt", attempt),
					zap.Error(err))
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if retryable(err) {
				lastErr = err
				s.logger.Warn("Commit conflicted, retrying",
					zap.Int("attempt", attempt),
					zap.Error(err))
				continue
			}
			return apperr.Unavailable(err)
		}
		return nil
	}
	return errors.Join(apperr.ErrConflict, lastErr)
}

func retryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
