// Package account registers, authenticates and maintains user accounts.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cuongbtq/jobboard/internal/credential"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/policy"
	"github.com/cuongbtq/jobboard/internal/store"
)

// MinPasswordLength is the shortest password Register and UpdateProfile accept.
const MinPasswordLength = 6

// Service implements the account operations over a UserStore.
type Service struct {
	users store.UserStore
}

// NewService creates a new account Service.
func NewService(users store.UserStore) *Service {
	return &Service{users: users}
}

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	Role        domain.Role
	FirstName   string
	LastName    string
	CompanyName string
	PhoneNumber string
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
}

func (in RegisterInput) validate() error {
	switch {
	case in.Username == "":
		return domain.NewValidationError("username", "is required")
	case in.Email == "":
		return domain.NewValidationError("email", "is required")
	case in.Password == "":
		return domain.NewValidationError("password", "is required")
	case !in.Role.Valid():
		return domain.NewValidationError("role", fmt.Sprintf("unknown role %q", in.Role))
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	if in.Role == domain.RoleCompany && in.CompanyName == "" {
		return domain.NewValidationError("company_name", "is required for company accounts")
	}
	return nil
}

func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return domain.NewValidationError("email", "must be an email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// Register creates an account. Student and company accounts are open to
// anyone; only an admin actor may create another admin.
//
// The username and email pre-checks give an early answer; the store's
// uniqueness constraints decide races and surface domain.ErrDuplicateUser.
func (s *Service) Register(ctx context.Context, actor domain.Actor, in RegisterInput) (*domain.User, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Role == domain.RoleAdmin && actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: only an admin may create admin accounts", domain.ErrUnauthorized)
	}

	taken, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: username %q is taken", domain.ErrDuplicateUser, in.Username)
	}
	taken, err = s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: email is already registered", domain.ErrDuplicateUser)
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: credential.Hash(in.Password),
		Role:         in.Role,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CompanyName:  in.CompanyName,
		PhoneNumber:  in.PhoneNumber,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate returns the account for a username and password. Unknown
// usernames and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !credential.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// GetUser returns an account to itself or to an admin.
func (s *Service) GetUser(ctx context.Context, actor domain.Actor, userID int64) (*domain.User, error) {
	if err := policy.Authorize(actor, policy.ActionReadUser, userID); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	return user, nil
}

// ProfileInput carries profile changes. Empty Password keeps the current one.
type ProfileInput struct {
	Email       string
	FirstName   string
	LastName    string
	CompanyName string
	PhoneNumber string
	Password    string
}

// UpdateProfile rewrites the profile of userID. Username and role never
// change.
func (s *Service) UpdateProfile(ctx context.Context, actor domain.Actor, userID int64, in ProfileInput) (*domain.User, error) {
	if err := policy.Authorize(actor, policy.ActionUpdateUser, userID); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}

	user.Email = strings.TrimSpace(in.Email)
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.CompanyName = strings.TrimSpace(in.CompanyName)
	user.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	user.PasswordHash = ""

	if err := validateEmail(user.Email); err != nil {
		return nil, err
	}
	if user.Role == domain.RoleCompany && user.CompanyName == "" {
		return nil, domain.NewValidationError("company_name", "is required for company accounts")
	}
	if in.Password != "" {
		if err := validatePassword(in.Password); err != nil {
			return nil, err
		}
		user.PasswordHash = credential.Hash(in.Password)
	}

	other, err := s.users.FindByEmail(ctx, user.Email)
	switch {
	case err == nil && other.ID != user.ID:
		return nil, fmt.Errorf("%w: email is already registered", domain.ErrDuplicateUser)
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}
	return user, nil
}
