package policy

import (
	"testing"

	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allActions = []Action{
	ActionPostJob,
	ActionUpdateJob,
	ActionDeactivateJob,
	ActionSubmitApplication,
	ActionReadStudentApplications,
	ActionReadJobApplications,
	ActionUpdateApplicationStatus,
	ActionReadUser,
	ActionUpdateUser,
	Action("something.unknown"),
}

func TestCan_AdminAllowedEverything(t *testing.T) {
	admin := domain.Actor{UserID: 1, Role: domain.RoleAdmin}
	for _, action := range allActions {
		for _, owner := range []int64{0, 1, 42, -7} {
			assert.True(t, Can(admin, action, owner), "%s owner=%d", action, owner)
		}
	}
}

func TestCan_StudentNeverUpdatesStatus(t *testing.T) {
	for _, actorID := range []int64{1, 5, 99} {
		student := domain.Actor{UserID: actorID, Role: domain.RoleStudent}
		for _, owner := range []int64{0, 1, 5, 99} {
			assert.False(t, Can(student, ActionUpdateApplicationStatus, owner))
		}
	}
}

func TestCan_Table(t *testing.T) {
	company := domain.Actor{UserID: 10, Role: domain.RoleCompany}
	student := domain.Actor{UserID: 20, Role: domain.RoleStudent}

	tests := []struct {
		name   string
		actor  domain.Actor
		action Action
		owner  int64
		want   bool
	}{
		{name: "company posts own job", actor: company, action: ActionPostJob, owner: 10, want: true},
		{name: "company posts for another company", actor: company, action: ActionPostJob, owner: 11, want: false},
		{name: "company updates own job", actor: company, action: ActionUpdateJob, owner: 10, want: true},
		{name: "company deactivates foreign job", actor: company, action: ActionDeactivateJob, owner: 11, want: false},
		{name: "company lists own job applications", actor: company, action: ActionReadJobApplications, owner: 10, want: true},
		{name: "company lists foreign job applications", actor: company, action: ActionReadJobApplications, owner: 12, want: false},
		{name: "company transitions own job application", actor: company, action: ActionUpdateApplicationStatus, owner: 10, want: true},
		{name: "company transitions foreign application", actor: company, action: ActionUpdateApplicationStatus, owner: 12, want: false},
		{name: "company cannot apply", actor: company, action: ActionSubmitApplication, owner: 10, want: false},
		{name: "company cannot read student listing", actor: company, action: ActionReadStudentApplications, owner: 10, want: false},
		{name: "student applies as self", actor: student, action: ActionSubmitApplication, owner: 20, want: true},
		{name: "student applies as someone else", actor: student, action: ActionSubmitApplication, owner: 21, want: false},
		{name: "student lists own applications", actor: student, action: ActionReadStudentApplications, owner: 20, want: true},
		{name: "student lists other applications", actor: student, action: ActionReadStudentApplications, owner: 21, want: false},
		{name: "student cannot post job", actor: student, action: ActionPostJob, owner: 20, want: false},
		{name: "student cannot list job applications", actor: student, action: ActionReadJobApplications, owner: 20, want: false},
		{name: "student reads own account", actor: student, action: ActionReadUser, owner: 20, want: true},
		{name: "student updates other account", actor: student, action: ActionUpdateUser, owner: 10, want: false},
		{name: "anonymous denied", actor: domain.Actor{}, action: ActionReadUser, owner: 0, want: false},
		{name: "unknown role denied", actor: domain.Actor{UserID: 10, Role: "GUEST"}, action: ActionPostJob, owner: 10, want: false},
		{name: "zero owner never matches", actor: domain.Actor{UserID: 0, Role: domain.RoleCompany}, action: ActionPostJob, owner: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.actor, tt.action, tt.owner))
		})
	}
}

func TestAuthorize(t *testing.T) {
	student := domain.Actor{UserID: 20, Role: domain.RoleStudent}

	require.NoError(t, Authorize(student, ActionSubmitApplication, 20))

	err := Authorize(student, ActionUpdateApplicationStatus, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Contains(t, err.Error(), "STUDENT")

	err = Authorize(domain.Actor{}, ActionPostJob, 1)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Contains(t, err.Error(), "anonymous")
}
