package dto

import (
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
)

// DateLayout is the wire format of job deadlines.
const DateLayout = "2006-01-02"

// JobRequest is the body of both create and update. CompanyID may be
// omitted by a company posting for itself.
type JobRequest struct {
	CompanyID    int64  `json:"company_id"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description" binding:"required"`
	Requirements string `json:"requirements"`
	Location     string `json:"location" binding:"required"`
	JobType      string `json:"job_type" binding:"required"`
	SalaryRange  string `json:"salary_range"`
	Deadline     string `json:"deadline" binding:"required"`
}

type SearchJobsRequest struct {
	Location   string `form:"location"`
	JobType    string `form:"job_type"`
	ActiveOnly *bool  `form:"active_only"`
	PageSize   int    `form:"page_size"`
	Cursor     string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type JobDTO struct {
	JobID        int64  `json:"job_id"`
	CompanyID    int64  `json:"company_id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements,omitempty"`
	Location     string `json:"location"`
	JobType      string `json:"job_type"`
	SalaryRange  string `json:"salary_range,omitempty"`
	Deadline     string `json:"deadline"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func NewJobDTO(j *domain.Job) JobDTO {
	return JobDTO{
		JobID:        j.ID,
		CompanyID:    j.CompanyID,
		Title:        j.Title,
		Description:  j.Description,
		Requirements: j.Requirements,
		Location:     j.Location,
		JobType:      string(j.JobType),
		SalaryRange:  j.SalaryRange,
		Deadline:     j.Deadline.Format(DateLayout),
		Active:       j.Active,
		CreatedAt:    j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    j.UpdatedAt.Format(time.RFC3339),
	}
}

func NewJobDTOs(jobs []domain.Job) []JobDTO {
	out := make([]JobDTO, len(jobs))
	for i := range jobs {
		out[i] = NewJobDTO(&jobs[i])
	}
	return out
}
