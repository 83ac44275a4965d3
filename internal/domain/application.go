package domain

import (
	"strings"
	"time"
)

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "PENDING"
	StatusReviewed  ApplicationStatus = "REVIEWED"
	StatusInterview ApplicationStatus = "INTERVIEW"
	StatusRejected  ApplicationStatus = "REJECTED"
	StatusAccepted  ApplicationStatus = "ACCEPTED"
)

// transitions lists the statuses reachable from each status. Terminal
// statuses have no entry.
var transitions = map[ApplicationStatus][]ApplicationStatus{
	StatusPending:   {StatusReviewed, StatusRejected, StatusInterview, StatusAccepted},
	StatusReviewed:  {StatusInterview, StatusRejected, StatusAccepted},
	StatusInterview: {StatusRejected, StatusAccepted},
}

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusInterview, StatusRejected, StatusAccepted:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible from s.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusRejected || s == StatusAccepted
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses returns a copy of the statuses reachable from s.
func (s ApplicationStatus) NextStatuses() []ApplicationStatus {
	return append([]ApplicationStatus(nil), transitions[s]...)
}

// ParseApplicationStatus accepts the status name in any case.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	status := ApplicationStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", NewValidationError("status", "must be one of PENDING, REVIEWED, INTERVIEW, REJECTED, ACCEPTED")
	}
	return status, nil
}

// Application is a student's application to a job. At most one exists per
// (JobID, StudentID) pair.
type Application struct {
	ID          int64             `db:"application_id"`
	JobID       int64             `db:"job_id"`
	StudentID   int64             `db:"student_id"`
	ResumePath  string            `db:"resume_path"`
	CoverLetter string            `db:"cover_letter"`
	Status      ApplicationStatus `db:"status"`
	AppliedAt   time.Time         `db:"applied_at"`
	ReviewedAt  *time.Time        `db:"reviewed_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
}

// StatusChange is a compare-and-set request: the store writes Next only if
// the stored status still equals Expected.
type StatusChange struct {
	ApplicationID int64
	Expected      ApplicationStatus
	Next          ApplicationStatus
	At            time.Time
}
