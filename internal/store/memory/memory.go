// Package memory is an in-process implementation of the store contracts.
// A single mutex serialises every write, which gives Create its
// insert-if-absent guarantee and UpdateStatus its compare-and-set.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/store"
)

type pairKey struct {
	jobID     int64
	studentID int64
}

// Store holds all entities in maps.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users  map[int64]*domain.User
	jobs   map[int64]*domain.Job
	apps   map[int64]*domain.Application
	byPair map[pairKey]int64

	lastUserID int64
	lastJobID  int64
	lastAppID  int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		users:  make(map[int64]*domain.User),
		jobs:   make(map[int64]*domain.Job),
		apps:   make(map[int64]*domain.Application),
		byPair: make(map[pairKey]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stores exposes s through the store contracts.
func (s *Store) Stores() store.Stores {
	return store.Stores{
		Users:        s.Users(),
		Jobs:         s.Jobs(),
		Applications: s.Applications(),
		Ping:         s.Ping,
	}
}

// Users returns the user store view.
func (s *Store) Users() *UserStore { return &UserStore{s: s} }

// Jobs returns the job store view.
func (s *Store) Jobs() *JobStore { return &JobStore{s: s} }

// Applications returns the application store view.
func (s *Store) Applications() *ApplicationStore { return &ApplicationStore{s: s} }

// Ping fails only when ctx is done.
func (s *Store) Ping(ctx context.Context) error {
	return checkContext(ctx, "ping")
}

func checkContext(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return domain.Unavailable(op, err)
	}
	return nil
}

// UserStore implements store.UserStore.
type UserStore struct{ s *Store }

func (u *UserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return u.find(ctx, "find user by username", func(x *domain.User) bool { return x.Username == username })
}

func (u *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return u.find(ctx, "find user by email", func(x *domain.User) bool { return strings.EqualFold(x.Email, email) })
}

func (u *UserStore) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if err := checkContext(ctx, "find user"); err != nil {
		return nil, err
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	found, ok := u.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *found
	return &clone, nil
}

func (u *UserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := u.FindByUsername(ctx, username)
	return found(err)
}

func (u *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := u.FindByEmail(ctx, email)
	return found(err)
}

func (u *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := checkContext(ctx, "create user"); err != nil {
		return err
	}
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if u.s.conflictingUserLocked(0, user.Username, user.Email) {
		return domain.ErrDuplicateUser
	}
	u.s.lastUserID++
	now := u.s.now()
	user.ID = u.s.lastUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	u.s.users[user.ID] = &clone
	return nil
}

func (u *UserStore) Update(ctx context.Context, user *domain.User) error {
	if err := checkContext(ctx, "update user"); err != nil {
		return err
	}
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	existing, ok := u.s.users[user.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if u.s.conflictingUserLocked(user.ID, existing.Username, user.Email) {
		return domain.ErrDuplicateUser
	}
	existing.Email = user.Email
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.CompanyName = user.CompanyName
	existing.PhoneNumber = user.PhoneNumber
	if user.PasswordHash != "" {
		existing.PasswordHash = user.PasswordHash
	}
	existing.UpdatedAt = u.s.now()
	*user = *existing
	return nil
}

func (u *UserStore) find(ctx context.Context, op string, match func(*domain.User) bool) (*domain.User, error) {
	if err := checkContext(ctx, op); err != nil {
		return nil, err
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, x := range u.s.users {
		if match(x) {
			clone := *x
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) conflictingUserLocked(selfID int64, username, email string) bool {
	for id, x := range s.users {
		if id == selfID {
			continue
		}
		if x.Username == username || strings.EqualFold(x.Email, email) {
			return true
		}
	}
	return false
}

func found(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// JobStore implements store.JobStore.
type JobStore struct{ s *Store }

func (j *JobStore) FindByID(ctx context.Context, id int64) (*domain.Job, error) {
	if err := checkContext(ctx, "find job"); err != nil {
		return nil, err
	}
	j.s.mu.RLock()
	defer j.s.mu.RUnlock()
	found, ok := j.s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *found
	return &clone, nil
}

func (j *JobStore) ListByCompany(ctx context.Context, companyID int64) ([]domain.Job, error) {
	return j.collect(ctx, "list company jobs", func(x *domain.Job) bool { return x.CompanyID == companyID }, 0, nil)
}

func (j *JobStore) Search(ctx context.Context, filter domain.JobSearch) ([]domain.Job, error) {
	location := strings.ToLower(filter.Location)
	match := func(x *domain.Job) bool {
		if filter.ActiveOnly && !x.Active {
			return false
		}
		if location != "" && !strings.Contains(strings.ToLower(x.Location), location) {
			return false
		}
		if filter.JobType != "" && x.JobType != filter.JobType {
			return false
		}
		return true
	}
	return j.collect(ctx, "search jobs", match, filter.Limit, filter.Cursor)
}

func (j *JobStore) Create(ctx context.Context, job *domain.Job) error {
	if err := checkContext(ctx, "create job"); err != nil {
		return err
	}
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	if _, ok := j.s.users[job.CompanyID]; !ok {
		return domain.ErrNotFound
	}
	j.s.lastJobID++
	now := j.s.now()
	job.ID = j.s.lastJobID
	job.CreatedAt = now
	job.UpdatedAt = now
	clone := *job
	j.s.jobs[job.ID] = &clone
	return nil
}

func (j *JobStore) Update(ctx context.Context, job *domain.Job) error {
	if err := checkContext(ctx, "update job"); err != nil {
		return err
	}
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	existing, ok := j.s.jobs[job.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Title = job.Title
	existing.Description = job.Description
	existing.Requirements = job.Requirements
	existing.Location = job.Location
	existing.JobType = job.JobType
	existing.SalaryRange = job.SalaryRange
	existing.Deadline = job.Deadline
	existing.UpdatedAt = j.s.now()
	*job = *existing
	return nil
}

// Deactivate clears Active and reports whether this call changed it.
func (j *JobStore) Deactivate(ctx context.Context, id int64) (bool, error) {
	if err := checkContext(ctx, "deactivate job"); err != nil {
		return false, err
	}
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	existing, ok := j.s.jobs[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !existing.Active {
		return false, nil
	}
	existing.Active = false
	existing.UpdatedAt = j.s.now()
	return true, nil
}

func (j *JobStore) collect(ctx context.Context, op string, match func(*domain.Job) bool, limit int, cursor *domain.JobCursor) ([]domain.Job, error) {
	if err := checkContext(ctx, op); err != nil {
		return nil, err
	}
	j.s.mu.RLock()
	defer j.s.mu.RUnlock()
	var out []domain.Job
	for _, x := range j.s.jobs {
		if match(x) {
			out = append(out, *x)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID > out[b].ID
	})
	if cursor != nil {
		start := len(out)
		for i, x := range out {
			if x.CreatedAt.Before(cursor.CreatedAt) || (x.CreatedAt.Equal(cursor.CreatedAt) && x.ID < cursor.JobID) {
				start = i
				break
			}
		}
		out = out[start:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ApplicationStore implements store.ApplicationStore.
type ApplicationStore struct{ s *Store }

func (a *ApplicationStore) FindByID(ctx context.Context, id int64) (*domain.Application, error) {
	if err := checkContext(ctx, "find application"); err != nil {
		return nil, err
	}
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	found, ok := a.s.apps[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneApplication(found), nil
}

func (a *ApplicationStore) ListByJob(ctx context.Context, jobID int64) ([]domain.Application, error) {
	return a.collect(ctx, "list job applications", func(x *domain.Application) bool { return x.JobID == jobID })
}

func (a *ApplicationStore) ListByStudent(ctx context.Context, studentID int64) ([]domain.Application, error) {
	return a.collect(ctx, "list student applications", func(x *domain.Application) bool { return x.StudentID == studentID })
}

func (a *ApplicationStore) ExistsByJobAndStudent(ctx context.Context, jobID, studentID int64) (bool, error) {
	if err := checkContext(ctx, "check application"); err != nil {
		return false, err
	}
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	_, ok := a.s.byPair[pairKey{jobID: jobID, studentID: studentID}]
	return ok, nil
}

func (a *ApplicationStore) Create(ctx context.Context, app *domain.Application) error {
	if err := checkContext(ctx, "create application"); err != nil {
		return err
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	key := pairKey{jobID: app.JobID, studentID: app.StudentID}
	if _, taken := a.s.byPair[key]; taken {
		return domain.ErrDuplicateApplication
	}
	if _, ok := a.s.jobs[app.JobID]; !ok {
		return domain.ErrNotFound
	}
	if _, ok := a.s.users[app.StudentID]; !ok {
		return domain.ErrNotFound
	}
	a.s.lastAppID++
	now := a.s.now()
	app.ID = a.s.lastAppID
	app.AppliedAt = now
	app.UpdatedAt = now
	app.ReviewedAt = nil
	a.s.apps[app.ID] = cloneApplication(app)
	a.s.byPair[key] = app.ID
	return nil
}

func (a *ApplicationStore) UpdateStatus(ctx context.Context, change domain.StatusChange) (*domain.Application, error) {
	if err := checkContext(ctx, "update application status"); err != nil {
		return nil, err
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	existing, ok := a.s.apps[change.ApplicationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if existing.Status != change.Expected {
		return nil, domain.ErrConcurrentModification
	}
	at := change.At
	existing.Status = change.Next
	existing.ReviewedAt = &at
	existing.UpdatedAt = at
	return cloneApplication(existing), nil
}

func (a *ApplicationStore) collect(ctx context.Context, op string, match func(*domain.Application) bool) ([]domain.Application, error) {
	if err := checkContext(ctx, op); err != nil {
		return nil, err
	}
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	var out []domain.Application
	for _, x := range a.s.apps {
		if match(x) {
			out = append(out, *cloneApplication(x))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppliedAt.Equal(out[j].AppliedAt) {
			return out[i].AppliedAt.After(out[j].AppliedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func cloneApplication(app *domain.Application) *domain.Application {
	clone := *app
	if app.ReviewedAt != nil {
		reviewed := *app.ReviewedAt
		clone.ReviewedAt = &reviewed
	}
	return &clone
}
