package dto

import (
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
)

// SubmitApplicationRequest defaults StudentID to the caller.
type SubmitApplicationRequest struct {
	StudentID   int64  `json:"student_id"`
	ResumePath  string `json:"resume_path" binding:"required"`
	CoverLetter string `json:"cover_letter"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type HasAppliedResponse struct {
	JobID     int64 `json:"job_id"`
	StudentID int64 `json:"student_id"`
	Applied   bool  `json:"applied"`
}

type ListApplicationsResponse struct {
	Applications []ApplicationDTO `json:"applications"`
}

type ApplicationDTO struct {
	ApplicationID int64    `json:"application_id"`
	JobID         int64    `json:"job_id"`
	StudentID     int64    `json:"student_id"`
	ResumePath    string   `json:"resume_path"`
	CoverLetter   string   `json:"cover_letter,omitempty"`
	Status        string   `json:"status"`
	NextStatuses  []string `json:"next_statuses"`
	AppliedAt     string   `json:"applied_at"`
	ReviewedAt    string   `json:"reviewed_at,omitempty"`
	UpdatedAt     string   `json:"updated_at"`
}

func NewApplicationDTO(a *domain.Application) ApplicationDTO {
	next := a.Status.NextStatuses()
	nextStatuses := make([]string, len(next))
	for i, s := range next {
		nextStatuses[i] = string(s)
	}

	out := ApplicationDTO{
		ApplicationID: a.ID,
		JobID:         a.JobID,
		StudentID:     a.StudentID,
		ResumePath:    a.ResumePath,
		CoverLetter:   a.CoverLetter,
		Status:        string(a.Status),
		NextStatuses:  nextStatuses,
		AppliedAt:     a.AppliedAt.Format(time.RFC3339),
		UpdatedAt:     a.UpdatedAt.Format(time.RFC3339),
	}
	if a.ReviewedAt != nil {
		out.ReviewedAt = a.ReviewedAt.Format(time.RFC3339)
	}
	return out
}

func NewApplicationDTOs(apps []domain.Application) []ApplicationDTO {
	out := make([]ApplicationDTO, len(apps))
	for i := range apps {
		out[i] = NewApplicationDTO(&apps[i])
	}
	return out
}
