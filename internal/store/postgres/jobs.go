package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuongbtq/jobboard/internal/domain"
)

const jobColumns = `
	job_id, company_id, title, description, requirements,
	location, job_type, salary_range, deadline, is_active,
	created_at, updated_at
`

// JobStore implements store.JobStore.
type JobStore struct{ s *Store }

func (j *JobStore) FindByID(ctx context.Context, id int64) (*domain.Job, error) {
	ctx, cancel := j.s.withTimeout(ctx)
	defer cancel()

	var job domain.Job
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1`
	if err := j.s.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, j.s.translate("find job", err, nil)
	}
	return &job, nil
}

func (j *JobStore) ListByCompany(ctx context.Context, companyID int64) ([]domain.Job, error) {
	ctx, cancel := j.s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE company_id = $1
		ORDER BY created_at DESC, job_id DESC
	`

	var jobs []domain.Job
	if err := j.s.db.SelectContext(ctx, &jobs, query, companyID); err != nil {
		return nil, j.s.translate("list company jobs", err, nil)
	}
	return jobs, nil
}

// likeEscaper makes a user filter match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (j *JobStore) Search(ctx context.Context, filter domain.JobSearch) ([]domain.Job, error) {
	ctx, cancel := j.s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.ActiveOnly {
		query += " AND is_active = TRUE"
	}

	if filter.Location != "" {
		query += fmt.Sprintf(` AND location ILIKE '%%' || $%d || '%%' ESCAPE '\'`, argIdx)
		args = append(args, likeEscaper.Replace(filter.Location))
		argIdx++
	}

	if filter.JobType != "" {
		query += fmt.Sprintf(" AND job_type = $%d", argIdx)
		args = append(args, filter.JobType)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, job_id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
	}

	var jobs []domain.Job
	if err := j.s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, j.s.translate("search jobs", err, nil)
	}
	return jobs, nil
}

func (j *JobStore) Create(ctx context.Context, job *domain.Job) error {
	ctx, cancel := j.s.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO jobs (
			company_id, title, description, requirements,
			location, job_type, salary_range, deadline, is_active
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9
		)
		RETURNING job_id, created_at, updated_at
	`

	err := j.s.db.QueryRowxContext(ctx, query,
		job.CompanyID,
		job.Title,
		job.Description,
		job.Requirements,
		job.Location,
		job.JobType,
		job.SalaryRange,
		job.Deadline,
		job.Active,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)

	return j.s.translate("create job", err, nil)
}

// Update rewrites the editable fields. company_id and is_active are not
// touched here.
func (j *JobStore) Update(ctx context.Context, job *domain.Job) error {
	ctx, cancel := j.s.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE jobs
		SET title = $1,
		    description = $2,
		    requirements = $3,
		    location = $4,
		    job_type = $5,
		    salary_range = $6,
		    deadline = $7,
		    updated_at = NOW()
		WHERE job_id = $8
		RETURNING ` + jobColumns

	err := j.s.db.GetContext(ctx, job, query,
		job.Title,
		job.Description,
		job.Requirements,
		job.Location,
		job.JobType,
		job.SalaryRange,
		job.Deadline,
		job.ID,
	)
	return j.s.translate("update job", err, nil)
}

// Deactivate clears is_active in one statement. changed is false when the
// job was already inactive, so concurrent callers see exactly one change.
func (j *JobStore) Deactivate(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := j.s.withTimeout(ctx)
	defer cancel()

	query := `
		WITH target AS (
			SELECT job_id FROM jobs WHERE job_id = $1
		), updated AS (
			UPDATE jobs
			SET is_active = FALSE, updated_at = NOW()
			WHERE job_id = $1 AND is_active
			RETURNING job_id
		)
		SELECT EXISTS (SELECT 1 FROM target) AS found,
		       EXISTS (SELECT 1 FROM updated) AS changed
	`

	var found, changed bool
	if err := j.s.db.QueryRowxContext(ctx, query, id).Scan(&found, &changed); err != nil {
		return false, j.s.translate("deactivate job", err, nil)
	}
	if !found {
		return false, domain.ErrNotFound
	}
	return changed, nil
}
