package domain

import (
	"strings"
	"time"
)

// JobType classifies a posting.
type JobType string

const (
	JobTypeFullTime   JobType = "FULL_TIME"
	JobTypePartTime   JobType = "PART_TIME"
	JobTypeInternship JobType = "INTERNSHIP"
	JobTypeContract   JobType = "CONTRACT"
)

// Valid reports whether t is one of the known job types.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeInternship, JobTypeContract:
		return true
	default:
		return false
	}
}

// ParseJobType accepts "full_time", "FULL-TIME", "Internship" and similar.
func ParseJobType(s string) (JobType, error) {
	t := JobType(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
	if !t.Valid() {
		return "", NewValidationError("job_type", "must be one of FULL_TIME, PART_TIME, INTERNSHIP, CONTRACT")
	}
	return t, nil
}

// Job is a posting owned by a company. Jobs are never deleted, only
// deactivated.
type Job struct {
	ID           int64     `db:"job_id"`
	CompanyID    int64     `db:"company_id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Requirements string    `db:"requirements"`
	Location     string    `db:"location"`
	JobType      JobType   `db:"job_type"`
	SalaryRange  string    `db:"salary_range"`
	Deadline     time.Time `db:"deadline"`
	Active       bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// JobSearch filters a job listing. Empty fields do not filter.
type JobSearch struct {
	Location   string
	JobType    JobType
	ActiveOnly bool
	Limit      int
	Cursor     *JobCursor
}

// JobCursor marks the last job of a page; the next page starts strictly
// after it in (created_at DESC, job_id DESC) order.
type JobCursor struct {
	CreatedAt time.Time
	JobID     int64
}
