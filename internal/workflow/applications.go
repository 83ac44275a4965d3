package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/policy"
)

// SubmitApplicationInput is what a student sends when applying.
type SubmitApplicationInput struct {
	JobID       int64
	StudentID   int64
	ResumePath  string
	CoverLetter string
}

func (in SubmitApplicationInput) validate() error {
	if in.JobID <= 0 {
		return domain.NewValidationError("job_id", "must be positive")
	}
	if in.StudentID <= 0 {
		return domain.NewValidationError("student_id", "must be positive")
	}
	if strings.TrimSpace(in.ResumePath) == "" {
		return domain.NewValidationError("resume_path", "is required")
	}
	return nil
}

// SubmitApplication creates a Pending application for the student.
//
// The HasApplied pre-check is advisory. When two submissions race past it,
// the store's uniqueness constraint rejects the loser and the caller gets
// domain.ErrDuplicateApplication.
func (e *Engine) SubmitApplication(ctx context.Context, actor domain.Actor, in SubmitApplicationInput) (*domain.Application, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionSubmitApplication, in.StudentID); err != nil {
		return nil, err
	}

	student, err := e.users.FindByID(ctx, in.StudentID)
	if err != nil {
		return nil, fmt.Errorf("student %d: %w", in.StudentID, err)
	}
	if student.Role != domain.RoleStudent {
		return nil, domain.NewValidationError("student_id", "does not reference a student account")
	}

	job, err := e.jobs.FindByID(ctx, in.JobID)
	if err != nil {
		return nil, fmt.Errorf("job %d: %w", in.JobID, err)
	}
	if !job.Active {
		return nil, fmt.Errorf("job %d: %w", in.JobID, domain.ErrInactiveJob)
	}

	applied, err := e.apps.ExistsByJobAndStudent(ctx, in.JobID, in.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}
	if applied {
		return nil, domain.ErrDuplicateApplication
	}

	app := &domain.Application{
		JobID:       in.JobID,
		StudentID:   in.StudentID,
		ResumePath:  strings.TrimSpace(in.ResumePath),
		CoverLetter: in.CoverLetter,
		Status:      domain.StatusPending,
	}
	if err := e.apps.Create(ctx, app); err != nil {
		if errors.Is(err, domain.ErrDuplicateApplication) {
			return nil, domain.ErrDuplicateApplication
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return app, nil
}

// TransitionStatus moves an application to next on behalf of the company
// owning its job (or an admin).
//
// The write is a compare-and-set against the status read here. A caller
// that loses a race gets a retryable domain.ErrConcurrentModification and
// should re-read before trying again.
func (e *Engine) TransitionStatus(ctx context.Context, actor domain.Actor, applicationID int64, next domain.ApplicationStatus) (*domain.Application, error) {
	move, err := e.MoveApplication(ctx, actor, applicationID, next)
	if err != nil {
		return nil, err
	}
	return move.Application, nil
}

// StatusMove is a committed transition: the status the compare-and-set
// matched and the application after the write.
type StatusMove struct {
	From        domain.ApplicationStatus
	Application *domain.Application
}

// MoveApplication is TransitionStatus that also reports the status the
// write replaced.
func (e *Engine) MoveApplication(ctx context.Context, actor domain.Actor, applicationID int64, next domain.ApplicationStatus) (StatusMove, error) {
	if applicationID <= 0 {
		return StatusMove{}, domain.NewValidationError("application_id", "must be positive")
	}
	if !next.Valid() {
		return StatusMove{}, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", next))
	}

	app, err := e.apps.FindByID(ctx, applicationID)
	if err != nil {
		return StatusMove{}, fmt.Errorf("application %d: %w", applicationID, err)
	}
	job, err := e.jobs.FindByID(ctx, app.JobID)
	if err != nil {
		return StatusMove{}, fmt.Errorf("job %d: %w", app.JobID, err)
	}
	if err := policy.Authorize(actor, policy.ActionUpdateApplicationStatus, job.CompanyID); err != nil {
		return StatusMove{}, err
	}

	if !app.Status.CanTransitionTo(next) {
		return StatusMove{}, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, app.Status, next)
	}

	updated, err := e.apps.UpdateStatus(ctx, domain.StatusChange{
		ApplicationID: app.ID,
		Expected:      app.Status,
		Next:          next,
		At:            e.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			return StatusMove{}, domain.NewRetryableError(fmt.Errorf("application %d: %w", app.ID, err))
		}
		return StatusMove{}, fmt.Errorf("failed to update application %d: %w", app.ID, err)
	}
	return StatusMove{From: app.Status, Application: updated}, nil
}

// ApplicationQuery selects applications by job or by student. Exactly one
// of the two must be set.
type ApplicationQuery struct {
	JobID     int64
	StudentID int64
}

// ListApplicationsFor returns the applications the actor may see for the
// query, most recently applied first.
func (e *Engine) ListApplicationsFor(ctx context.Context, actor domain.Actor, q ApplicationQuery) ([]domain.Application, error) {
	switch {
	case q.JobID > 0 && q.StudentID > 0:
		return nil, domain.NewValidationError("query", "set either job_id or student_id, not both")
	case q.JobID > 0:
		job, err := e.jobs.FindByID(ctx, q.JobID)
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", q.JobID, err)
		}
		if err := policy.Authorize(actor, policy.ActionReadJobApplications, job.CompanyID); err != nil {
			return nil, err
		}
		apps, err := e.apps.ListByJob(ctx, q.JobID)
		if err != nil {
			return nil, fmt.Errorf("failed to list applications for job %d: %w", q.JobID, err)
		}
		return apps, nil
	case q.StudentID > 0:
		if err := policy.Authorize(actor, policy.ActionReadStudentApplications, q.StudentID); err != nil {
			return nil, err
		}
		apps, err := e.apps.ListByStudent(ctx, q.StudentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list applications for student %d: %w", q.StudentID, err)
		}
		return apps, nil
	default:
		return nil, domain.NewValidationError("query", "job_id or student_id is required")
	}
}

// GetApplication returns one application to its student, the company
// owning the job, or an admin.
func (e *Engine) GetApplication(ctx context.Context, actor domain.Actor, applicationID int64) (*domain.Application, error) {
	if applicationID <= 0 {
		return nil, domain.NewValidationError("application_id", "must be positive")
	}
	app, err := e.apps.FindByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("application %d: %w", applicationID, err)
	}
	if policy.Can(actor, policy.ActionReadStudentApplications, app.StudentID) {
		return app, nil
	}
	job, err := e.jobs.FindByID(ctx, app.JobID)
	if err != nil {
		return nil, fmt.Errorf("job %d: %w", app.JobID, err)
	}
	if err := policy.Authorize(actor, policy.ActionReadJobApplications, job.CompanyID); err != nil {
		return nil, err
	}
	return app, nil
}

// HasApplied reports whether an application exists for the pair. It is a
// hint for callers; SubmitApplication does not rely on it for correctness.
func (e *Engine) HasApplied(ctx context.Context, jobID, studentID int64) (bool, error) {
	if jobID <= 0 || studentID <= 0 {
		return false, domain.NewValidationError("job_id/student_id", "must be positive")
	}
	applied, err := e.apps.ExistsByJobAndStudent(ctx, jobID, studentID)
	if err != nil {
		return false, fmt.Errorf("failed to check existing application: %w", err)
	}
	return applied, nil
}
