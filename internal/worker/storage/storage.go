// Package storage persists consumed events into the activity log.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/events"
)

// Storage handles all database operations for the worker
type Storage struct {
	db           *sqlx.DB
	logger       *slog.Logger
	queryTimeout time.Duration
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger, queryTimeout time.Duration) *Storage {
	return &Storage{
		db:           db,
		logger:       logger,
		queryTimeout: queryTimeout,
	}
}

// nullableID maps an absent id to SQL NULL.
func nullableID(id int64) interface{} {
	if id <= 0 {
		return nil
	}
	return id
}

// RecordEvent inserts e into activity_log. Redelivered events are ignored
// and reported with recorded=false. Database failures are wrapped in
// domain.ErrStoreUnavailable so the caller can requeue.
func (s *Storage) RecordEvent(ctx context.Context, e events.Event) (bool, error) {
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	query := `
		INSERT INTO activity_log (
			event_id, event_type, actor_id, job_id, application_id, student_id,
			from_status, to_status, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (event_id) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query,
		e.ID.String(),
		string(e.Type),
		e.ActorID,
		nullableID(e.JobID),
		nullableID(e.ApplicationID),
		nullableID(e.StudentID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.OccurredAt,
	)
	if err != nil {
		return false, domain.Unavailable("record event", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, domain.Unavailable("record event", fmt.Errorf("failed to get rows affected: %w", err))
	}

	if rowsAffected == 0 {
		s.logger.Debug("Event already recorded",
			slog.String("event_id", e.ID.String()),
			slog.String("event_type", string(e.Type)),
		)
		return false, nil
	}

	return true, nil
}
