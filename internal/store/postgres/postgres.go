// Package postgres implements the store contracts on PostgreSQL through
// sqlx. The (job_id, student_id) unique constraint and the conditional
// status UPDATE carry the concurrency guarantees.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Store wraps the shared connection pool and a per-query timeout.
type Store struct {
	db           *sqlx.DB
	logger       *slog.Logger
	queryTimeout time.Duration
}

// New creates a Store. A zero queryTimeout leaves deadlines to the caller.
func New(db *sqlx.DB, logger *slog.Logger, queryTimeout time.Duration) *Store {
	return &Store{
		db:           db,
		logger:       logger,
		queryTimeout: queryTimeout,
	}
}

// Stores exposes s through the store contracts.
func (s *Store) Stores() store.Stores {
	return store.Stores{
		Users:        &UserStore{s},
		Jobs:         &JobStore{s},
		Applications: &ApplicationStore{s},
		Ping:         s.Ping,
	}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	s.logger.Info("Database schema applied")
	return nil
}

// Ping checks the connection within the query timeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return domain.Unavailable("ping", err)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// translate maps driver errors onto the domain taxonomy. onDuplicate is
// returned for unique violations.
func (s *Store) translate(op string, err error, onDuplicate error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			if onDuplicate != nil {
				return onDuplicate
			}
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s references a missing row", domain.ErrNotFound, op)
		}
	}

	s.logger.Debug("Store operation failed",
		slog.String("op", op),
		slog.Any("error", err),
	)
	return domain.Unavailable(op, err)
}
