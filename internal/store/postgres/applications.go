package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/cuongbtq/jobboard/internal/domain"
)

const applicationColumns = `
	application_id, job_id, student_id, resume_path, cover_letter,
	status, applied_at, reviewed_at, updated_at
`

// ApplicationStore implements store.ApplicationStore.
type ApplicationStore struct{ s *Store }

func (a *ApplicationStore) FindByID(ctx context.Context, id int64) (*domain.Application, error) {
	ctx, cancel := a.s.withTimeout(ctx)
	defer cancel()

	var app domain.Application
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE application_id = $1`
	if err := a.s.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, a.s.translate("find application", err, nil)
	}
	return &app, nil
}

func (a *ApplicationStore) ListByJob(ctx context.Context, jobID int64) ([]domain.Application, error) {
	return a.list(ctx, "list job applications", `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE job_id = $1
		ORDER BY applied_at DESC, application_id DESC
	`, jobID)
}

func (a *ApplicationStore) ListByStudent(ctx context.Context, studentID int64) ([]domain.Application, error) {
	return a.list(ctx, "list student applications", `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE student_id = $1
		ORDER BY applied_at DESC, application_id DESC
	`, studentID)
}

func (a *ApplicationStore) ExistsByJobAndStudent(ctx context.Context, jobID, studentID int64) (bool, error) {
	ctx, cancel := a.s.withTimeout(ctx)
	defer cancel()

	var found bool
	query := `SELECT EXISTS (SELECT 1 FROM applications WHERE job_id = $1 AND student_id = $2)`
	if err := a.s.db.GetContext(ctx, &found, query, jobID, studentID); err != nil {
		return false, a.s.translate("check application", err, nil)
	}
	return found, nil
}

// Create inserts the application. The applications_job_student_key
// constraint rejects a second row for the same pair, including one racing
// in from another connection.
func (a *ApplicationStore) Create(ctx context.Context, app *domain.Application) error {
	ctx, cancel := a.s.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO applications (
			job_id, student_id, resume_path, cover_letter, status
		) VALUES (
			$1, $2, $3, $4, $5
		)
		RETURNING application_id, applied_at, updated_at
	`

	err := a.s.db.QueryRowxContext(ctx, query,
		app.JobID,
		app.StudentID,
		app.ResumePath,
		app.CoverLetter,
		app.Status,
	).Scan(&app.ID, &app.AppliedAt, &app.UpdatedAt)

	return a.s.translate("create application", err, domain.ErrDuplicateApplication)
}

// UpdateStatus writes the new status only if the row still holds the
// expected one.
func (a *ApplicationStore) UpdateStatus(ctx context.Context, change domain.StatusChange) (*domain.Application, error) {
	ctx, cancel := a.s.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE applications
		SET status = $1,
		    reviewed_at = $2,
		    updated_at = $2
		WHERE application_id = $3
		  AND status = $4
		RETURNING ` + applicationColumns

	var app domain.Application
	err := a.s.db.GetContext(ctx, &app, query, change.Next, change.At, change.ApplicationID, change.Expected)
	if err == nil {
		return &app, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, a.s.translate("update application status", err, nil)
	}

	// Nothing matched: either the row is gone or someone moved it first.
	var found bool
	existsQuery := `SELECT EXISTS (SELECT 1 FROM applications WHERE application_id = $1)`
	if err := a.s.db.GetContext(ctx, &found, existsQuery, change.ApplicationID); err != nil {
		return nil, a.s.translate("update application status", err, nil)
	}
	if !found {
		return nil, domain.ErrNotFound
	}

	a.s.logger.Warn("Application status changed concurrently",
		slog.Int64("application_id", change.ApplicationID),
		slog.String("expected", string(change.Expected)),
		slog.String("next", string(change.Next)),
	)
	return nil, domain.ErrConcurrentModification
}

func (a *ApplicationStore) list(ctx context.Context, op, query string, arg int64) ([]domain.Application, error) {
	ctx, cancel := a.s.withTimeout(ctx)
	defer cancel()

	var apps []domain.Application
	if err := a.s.db.SelectContext(ctx, &apps, query, arg); err != nil {
		return nil, a.s.translate(op, err, nil)
	}
	return apps, nil
}
