package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/policy"
)

const (
	// DefaultSearchLimit is applied when a search asks for no limit.
	DefaultSearchLimit = 20
	// MaxSearchLimit caps one page of search results.
	MaxSearchLimit = 100
)

func validateJob(job *domain.Job) error {
	job.Title = strings.TrimSpace(job.Title)
	job.Description = strings.TrimSpace(job.Description)
	job.Location = strings.TrimSpace(job.Location)

	switch {
	case job.Title == "":
		return domain.NewValidationError("title", "is required")
	case job.Description == "":
		return domain.NewValidationError("description", "is required")
	case job.Location == "":
		return domain.NewValidationError("location", "is required")
	case job.Deadline.IsZero():
		return domain.NewValidationError("deadline", "is required")
	case !job.JobType.Valid():
		return domain.NewValidationError("job_type", fmt.Sprintf("unknown job type %q", job.JobType))
	}
	return nil
}

// PostJob creates an active posting owned by job.CompanyID. The actor must
// be that company or an admin, and the company id must reference an
// existing company account.
func (e *Engine) PostJob(ctx context.Context, actor domain.Actor, job *domain.Job) error {
	if job.CompanyID <= 0 {
		return domain.NewValidationError("company_id", "must be positive")
	}
	if err := validateJob(job); err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ActionPostJob, job.CompanyID); err != nil {
		return err
	}

	company, err := e.users.FindByID(ctx, job.CompanyID)
	if err != nil {
		return fmt.Errorf("company %d: %w", job.CompanyID, err)
	}
	if company.Role != domain.RoleCompany {
		return domain.NewValidationError("company_id", "does not reference a company account")
	}

	job.ID = 0
	job.Active = true
	if err := e.jobs.Create(ctx, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// UpdateJob rewrites the editable fields of job. Ownership and the active
// flag are never changed through an update.
func (e *Engine) UpdateJob(ctx context.Context, actor domain.Actor, job *domain.Job) error {
	if job.ID <= 0 {
		return domain.NewValidationError("job_id", "must be positive")
	}
	existing, err := e.jobs.FindByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("job %d: %w", job.ID, err)
	}
	if err := policy.Authorize(actor, policy.ActionUpdateJob, existing.CompanyID); err != nil {
		return err
	}
	if job.CompanyID != 0 && job.CompanyID != existing.CompanyID {
		return domain.NewValidationError("company_id", "cannot be changed")
	}
	if err := validateJob(job); err != nil {
		return err
	}

	job.CompanyID = existing.CompanyID
	if err := e.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to update job %d: %w", job.ID, err)
	}
	return nil
}

// DeactivateJob soft-deletes a posting. Deactivating an inactive job is a
// no-op; changed reports whether this call deactivated it. The returned
// job is re-read after the write.
func (e *Engine) DeactivateJob(ctx context.Context, actor domain.Actor, jobID int64) (job *domain.Job, changed bool, err error) {
	if jobID <= 0 {
		return nil, false, domain.NewValidationError("job_id", "must be positive")
	}
	existing, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, false, fmt.Errorf("job %d: %w", jobID, err)
	}
	if err := policy.Authorize(actor, policy.ActionDeactivateJob, existing.CompanyID); err != nil {
		return nil, false, err
	}
	changed, err = e.jobs.Deactivate(ctx, jobID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to deactivate job %d: %w", jobID, err)
	}
	job, err = e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, false, fmt.Errorf("job %d: %w", jobID, err)
	}
	return job, changed, nil
}

// GetJob returns a posting by id. Postings are public.
func (e *Engine) GetJob(ctx context.Context, jobID int64) (*domain.Job, error) {
	if jobID <= 0 {
		return nil, domain.NewValidationError("job_id", "must be positive")
	}
	job, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %d: %w", jobID, err)
	}
	return job, nil
}

// ListJobsByCompany returns every posting of a company, newest first.
func (e *Engine) ListJobsByCompany(ctx context.Context, companyID int64) ([]domain.Job, error) {
	if companyID <= 0 {
		return nil, domain.NewValidationError("company_id", "must be positive")
	}
	jobs, err := e.jobs.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs for company %d: %w", companyID, err)
	}
	return jobs, nil
}

// SearchJobs runs a filtered, cursor-paginated search. A zero limit becomes
// DefaultSearchLimit and larger limits are capped at MaxSearchLimit.
func (e *Engine) SearchJobs(ctx context.Context, filter domain.JobSearch) ([]domain.Job, error) {
	if filter.JobType != "" && !filter.JobType.Valid() {
		return nil, domain.NewValidationError("job_type", fmt.Sprintf("unknown job type %q", filter.JobType))
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultSearchLimit
	case filter.Limit > MaxSearchLimit:
		filter.Limit = MaxSearchLimit
	}
	filter.Location = strings.TrimSpace(filter.Location)

	jobs, err := e.jobs.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search jobs: %w", err)
	}
	return jobs, nil
}
