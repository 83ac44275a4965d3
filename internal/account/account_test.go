package account

import (
	"context"
	"testing"

	"github.com/cuongbtq/jobboard/internal/credential"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() RegisterInput {
	return RegisterInput{
		Username:  "alice",
		Email:     "alice@uni.test",
		Password:  "secret1",
		Role:      domain.RoleStudent,
		FirstName: "Alice",
	}
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name    string
		actor   domain.Actor
		mutate  func(*RegisterInput)
		wantErr error
	}{
		{"student", domain.Actor{}, func(*RegisterInput) {}, nil},
		{"company with name", domain.Actor{}, func(in *RegisterInput) { in.Role = domain.RoleCompany; in.CompanyName = "Acme" }, nil},
		{"company without name", domain.Actor{}, func(in *RegisterInput) { in.Role = domain.RoleCompany }, domain.ErrValidation},
		{"missing username", domain.Actor{}, func(in *RegisterInput) { in.Username = "  " }, domain.ErrValidation},
		{"missing email", domain.Actor{}, func(in *RegisterInput) { in.Email = "" }, domain.ErrValidation},
		{"email without at", domain.Actor{}, func(in *RegisterInput) { in.Email = "alice.uni.test" }, domain.ErrValidation},
		{"short password", domain.Actor{}, func(in *RegisterInput) { in.Password = "12345" }, domain.ErrValidation},
		{"unknown role", domain.Actor{}, func(in *RegisterInput) { in.Role = "GUEST" }, domain.ErrValidation},
		{"admin self sign-up", domain.Actor{}, func(in *RegisterInput) { in.Role = domain.RoleAdmin }, domain.ErrUnauthorized},
		{"admin created by admin", domain.Actor{UserID: 1, Role: domain.RoleAdmin}, func(in *RegisterInput) { in.Role = domain.RoleAdmin }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(memory.New().Users())
			in := validInput()
			tt.mutate(&in)

			user, err := svc.Register(context.Background(), tt.actor, in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Positive(t, user.ID)
			assert.Equal(t, in.Role, user.Role)
			assert.Equal(t, credential.Hash(in.Password), user.PasswordHash)
		})
	}
}

func TestService_RegisterDuplicates(t *testing.T) {
	svc := NewService(memory.New().Users())
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.Actor{}, validInput())
	require.NoError(t, err)

	sameName := validInput()
	sameName.Email = "other@uni.test"
	_, err = svc.Register(ctx, domain.Actor{}, sameName)
	assert.ErrorIs(t, err, domain.ErrDuplicateUser)

	sameEmail := validInput()
	sameEmail.Username = "alice2"
	sameEmail.Email = "ALICE@uni.test"
	_, err = svc.Register(ctx, domain.Actor{}, sameEmail)
	assert.ErrorIs(t, err, domain.ErrDuplicateUser)
}

func TestService_Authenticate(t *testing.T) {
	svc := NewService(memory.New().Users())
	ctx := context.Background()
	registered, err := svc.Register(ctx, domain.Actor{}, validInput())
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, " alice ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Authenticate(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, errUnknown := svc.Authenticate(ctx, "nobody", "secret1")
	assert.Equal(t, err, errUnknown)

	_, err = svc.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestService_GetUser(t *testing.T) {
	svc := NewService(memory.New().Users())
	ctx := context.Background()
	alice, err := svc.Register(ctx, domain.Actor{}, validInput())
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, domain.ActorFor(alice), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.GetUser(ctx, domain.Actor{UserID: alice.ID + 1, Role: domain.RoleStudent}, alice.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.GetUser(ctx, domain.Actor{UserID: 99, Role: domain.RoleAdmin}, 12345)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_UpdateProfile(t *testing.T) {
	svc := NewService(memory.New().Users())
	ctx := context.Background()
	alice, err := svc.Register(ctx, domain.Actor{}, validInput())
	require.NoError(t, err)

	bob := validInput()
	bob.Username = "bob"
	bob.Email = "bob@uni.test"
	_, err = svc.Register(ctx, domain.Actor{}, bob)
	require.NoError(t, err)

	self := domain.ActorFor(alice)

	updated, err := svc.UpdateProfile(ctx, self, alice.ID, ProfileInput{Email: "alice@new.test", LastName: "Nguyen"})
	require.NoError(t, err)
	assert.Equal(t, "alice@new.test", updated.Email)
	assert.Equal(t, "Nguyen", updated.LastName)
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, domain.RoleStudent, updated.Role)

	_, err = svc.Authenticate(ctx, "alice", "secret1")
	require.NoError(t, err, "empty password keeps the current one")

	_, err = svc.UpdateProfile(ctx, self, alice.ID, ProfileInput{Email: "alice@new.test", Password: "newsecret"})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "alice", "newsecret")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, self, alice.ID, ProfileInput{Email: "bob@uni.test"})
	assert.ErrorIs(t, err, domain.ErrDuplicateUser)

	_, err = svc.UpdateProfile(ctx, self, alice.ID, ProfileInput{Email: "nope"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateProfile(ctx, self, alice.ID, ProfileInput{Email: "alice@new.test", Password: "123"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateProfile(ctx, domain.Actor{UserID: alice.ID + 1, Role: domain.RoleStudent}, alice.ID, ProfileInput{Email: "x@y.z"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
