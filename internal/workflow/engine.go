// Package workflow implements the job-board workflow: job posting guards,
// the application lifecycle and its authorization.
//
// The Engine holds no mutable state. Every call re-reads what it needs from
// the stores and passes the acting user explicitly, so one Engine can serve
// any number of concurrent callers. Uniqueness of (job, student) and the
// status compare-and-set are delegated to the stores; the Engine's own
// checks only produce a friendlier early rejection.
package workflow

import (
	"time"

	"github.com/cuongbtq/jobboard/internal/store"
)

// Engine runs workflow operations against the stores.
type Engine struct {
	users store.UserStore
	jobs  store.JobStore
	apps  store.ApplicationStore
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the timestamp source used for reviewed/updated times.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new Engine over stores.
func NewEngine(stores store.Stores, opts ...Option) *Engine {
	e := &Engine{
		users: stores.Users,
		jobs:  stores.Jobs,
		apps:  stores.Applications,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
