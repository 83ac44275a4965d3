// Package events describes the workflow events published after a state
// change commits, and the publishers that ship them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cuongbtq/jobboard/internal/domain"
)

// Type names an event. It doubles as the routing key.
type Type string

const (
	TypeApplicationSubmitted     Type = "application.submitted"
	TypeApplicationStatusChanged Type = "application.status_changed"
	TypeJobPosted                Type = "job.posted"
	TypeJobDeactivated           Type = "job.deactivated"
)

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	switch t {
	case TypeApplicationSubmitted, TypeApplicationStatusChanged, TypeJobPosted, TypeJobDeactivated:
		return true
	}
	return false
}

// Event is the JSON envelope on the wire.
type Event struct {
	ID            uuid.UUID                `json:"event_id"`
	Type          Type                     `json:"type"`
	OccurredAt    time.Time                `json:"occurred_at"`
	ActorID       int64                    `json:"actor_id"`
	JobID         int64                    `json:"job_id,omitempty"`
	ApplicationID int64                    `json:"application_id,omitempty"`
	StudentID     int64                    `json:"student_id,omitempty"`
	FromStatus    domain.ApplicationStatus `json:"from_status,omitempty"`
	ToStatus      domain.ApplicationStatus `json:"to_status,omitempty"`
}

func newEvent(t Type, actor domain.Actor, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: at.UTC(),
		ActorID:    actor.UserID,
	}
}

// ApplicationSubmitted builds the event for a new application.
func ApplicationSubmitted(actor domain.Actor, app *domain.Application) Event {
	e := newEvent(TypeApplicationSubmitted, actor, app.AppliedAt)
	e.JobID = app.JobID
	e.ApplicationID = app.ID
	e.StudentID = app.StudentID
	e.ToStatus = app.Status
	return e
}

// ApplicationStatusChanged builds the event for a committed transition.
func ApplicationStatusChanged(actor domain.Actor, from domain.ApplicationStatus, app *domain.Application) Event {
	e := newEvent(TypeApplicationStatusChanged, actor, app.UpdatedAt)
	e.JobID = app.JobID
	e.ApplicationID = app.ID
	e.StudentID = app.StudentID
	e.FromStatus = from
	e.ToStatus = app.Status
	return e
}

// JobPosted builds the event for a new posting.
func JobPosted(actor domain.Actor, job *domain.Job) Event {
	e := newEvent(TypeJobPosted, actor, job.CreatedAt)
	e.JobID = job.ID
	return e
}

// JobDeactivated builds the event for a deactivated posting.
func JobDeactivated(actor domain.Actor, job *domain.Job, at time.Time) Event {
	e := newEvent(TypeJobDeactivated, actor, at)
	e.JobID = job.ID
	return e
}

// Validate checks the fields every consumer relies on.
func (e Event) Validate() error {
	if e.ID == uuid.Nil {
		return fmt.Errorf("event_id is required")
	}
	if !e.Type.Valid() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}
	if e.JobID <= 0 {
		return fmt.Errorf("job_id is required")
	}
	switch e.Type {
	case TypeApplicationSubmitted, TypeApplicationStatusChanged:
		if e.ApplicationID <= 0 || e.StudentID <= 0 {
			return fmt.Errorf("application_id and student_id are required for %s", e.Type)
		}
		if !e.ToStatus.Valid() {
			return fmt.Errorf("to_status is required for %s", e.Type)
		}
	}
	if e.Type == TypeApplicationStatusChanged && !e.FromStatus.Valid() {
		return fmt.Errorf("from_status is required for %s", e.Type)
	}
	return nil
}

// Decode parses and validates one message body.
func Decode(body []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Event{}, fmt.Errorf("invalid event: %w", err)
	}
	return e, nil
}

// Publisher ships events after the state change they describe committed.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Discard is a Publisher that drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
