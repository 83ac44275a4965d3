package domain

import (
	"strings"
	"time"
)

// Role identifies which kind of account an actor holds. It is fixed at
// account creation.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleCompany Role = "COMPANY"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCompany, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole accepts the role name in any case ("student", "Company", ...).
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", NewValidationError("role", "must be one of STUDENT, COMPANY, ADMIN")
	}
	return r, nil
}

// User is a registered account.
type User struct {
	ID           int64     `db:"user_id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         Role      `db:"role"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	CompanyName  string    `db:"company_name"`
	PhoneNumber  string    `db:"phone_number"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Actor is the authenticated identity performing an operation. It is passed
// explicitly into every workflow call; the zero value is an anonymous caller
// and is denied everything that requires a role.
type Actor struct {
	UserID int64
	Role   Role
}

// Authenticated reports whether the actor carries a known role and id.
func (a Actor) Authenticated() bool {
	return a.UserID > 0 && a.Role.Valid()
}

// ActorFor builds the actor for a loaded user.
func ActorFor(u *User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}
