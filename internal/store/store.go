// Package store declares the persistence contracts the workflow consumes.
//
// Implementations return domain.ErrNotFound for missing rows and
// domain.ErrStoreUnavailable for infrastructure failures, including
// expired contexts.
package store

import (
	"context"

	"github.com/cuongbtq/jobboard/internal/domain"
)

// UserStore persists accounts. Username and email are unique; Create and
// Update return domain.ErrDuplicateUser when a constraint rejects the write.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
}

// JobStore persists postings. Jobs are never deleted. Deactivate reports
// whether the call flipped the job from active to inactive.
type JobStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Job, error)
	ListByCompany(ctx context.Context, companyID int64) ([]domain.Job, error)
	Search(ctx context.Context, filter domain.JobSearch) ([]domain.Job, error)
	Create(ctx context.Context, job *domain.Job) error
	Update(ctx context.Context, job *domain.Job) error
	Deactivate(ctx context.Context, id int64) (changed bool, err error)
}

// ApplicationStore persists applications.
//
// Create must be an atomic insert-if-absent on (JobID, StudentID) and return
// domain.ErrDuplicateApplication when the pair already exists. UpdateStatus
// must be a compare-and-set on the prior status and return
// domain.ErrConcurrentModification when the stored status no longer matches.
type ApplicationStore interface {
	FindByID(ctx context.Context, id int64) (*domain.Application, error)
	ListByJob(ctx context.Context, jobID int64) ([]domain.Application, error)
	ListByStudent(ctx context.Context, studentID int64) ([]domain.Application, error)
	ExistsByJobAndStudent(ctx context.Context, jobID, studentID int64) (bool, error)
	Create(ctx context.Context, app *domain.Application) error
	UpdateStatus(ctx context.Context, change domain.StatusChange) (*domain.Application, error)
}

// Stores bundles the three stores plus a health check.
type Stores struct {
	Users        UserStore
	Jobs         JobStore
	Applications ApplicationStore
	Ping         func(ctx context.Context) error
}
