// Package policy decides whether an actor may perform an action on a
// resource. It is the single source of truth for permissions: callers pass
// the owner of the resource they are about to touch and act on the answer.
package policy

import (
	"fmt"

	"github.com/cuongbtq/jobboard/internal/domain"
)

// Action names something an actor wants to do.
type Action string

const (
	// Job actions. Owner is the job's company id.
	ActionPostJob       Action = "job.post"
	ActionUpdateJob     Action = "job.update"
	ActionDeactivateJob Action = "job.deactivate"

	// Application actions.
	// ActionSubmitApplication: owner is the applying student id.
	ActionSubmitApplication Action = "application.submit"
	// ActionReadStudentApplications: owner is the student id.
	ActionReadStudentApplications Action = "application.read_by_student"
	// ActionReadJobApplications: owner is the company id of the job.
	ActionReadJobApplications Action = "application.read_by_job"
	// ActionUpdateApplicationStatus: owner is the company id of the job.
	ActionUpdateApplicationStatus Action = "application.update_status"

	// Account actions. Owner is the account id.
	ActionReadUser   Action = "user.read"
	ActionUpdateUser Action = "user.update"
)

// roleRules is implemented once per role. The set is closed: a role with
// no entry in byRole is denied everything.
type roleRules interface {
	allows(actorID int64, action Action, ownerID int64) bool
}

var byRole = map[domain.Role]roleRules{
	domain.RoleAdmin:   adminRules{},
	domain.RoleCompany: companyRules{},
	domain.RoleStudent: studentRules{},
}

// Can reports whether actor may perform action on a resource owned by
// ownerID.
func Can(actor domain.Actor, action Action, ownerID int64) bool {
	rules, ok := byRole[actor.Role]
	if !ok {
		return false
	}
	return rules.allows(actor.UserID, action, ownerID)
}

// Authorize is Can returning domain.ErrUnauthorized on deny.
func Authorize(actor domain.Actor, action Action, ownerID int64) error {
	if Can(actor, action, ownerID) {
		return nil
	}
	return fmt.Errorf("%w: %s may not %s", domain.ErrUnauthorized, roleLabel(actor.Role), action)
}

func roleLabel(r domain.Role) string {
	if r == "" {
		return "anonymous"
	}
	return string(r)
}

type adminRules struct{}

func (adminRules) allows(int64, Action, int64) bool {
	return true
}

type companyRules struct{}

func (companyRules) allows(actorID int64, action Action, ownerID int64) bool {
	switch action {
	case ActionPostJob, ActionUpdateJob, ActionDeactivateJob,
		ActionReadJobApplications, ActionUpdateApplicationStatus,
		ActionReadUser, ActionUpdateUser:
		return owns(actorID, ownerID)
	default:
		return false
	}
}

type studentRules struct{}

func (studentRules) allows(actorID int64, action Action, ownerID int64) bool {
	switch action {
	case ActionSubmitApplication, ActionReadStudentApplications,
		ActionReadUser, ActionUpdateUser:
		return owns(actorID, ownerID)
	default:
		return false
	}
}

func owns(actorID, ownerID int64) bool {
	return actorID > 0 && actorID == ownerID
}
