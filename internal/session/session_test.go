package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/jobboard/internal/domain"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewIssuer("test-secret", "jobboard", time.Hour)
	require.NoError(t, err)

	actor := domain.Actor{UserID: 42, Role: domain.RoleCompany}
	token, expiresAt, err := issuer.Issue(actor)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	got, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestIssuer_Rejects(t *testing.T) {
	issuedAt := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	issuer, err := NewIssuer("test-secret", "jobboard", time.Hour, WithClock(fixedClock(issuedAt)))
	require.NoError(t, err)

	token, _, err := issuer.Issue(domain.Actor{UserID: 7, Role: domain.RoleStudent})
	require.NoError(t, err)

	later, err := NewIssuer("test-secret", "jobboard", time.Hour, WithClock(fixedClock(issuedAt.Add(2*time.Hour))))
	require.NoError(t, err)
	otherSecret, err := NewIssuer("other-secret", "jobboard", time.Hour, WithClock(fixedClock(issuedAt)))
	require.NoError(t, err)
	otherIssuer, err := NewIssuer("test-secret", "someone-else", time.Hour, WithClock(fixedClock(issuedAt)))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "jobboard",
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		issuer *Issuer
		token  string
	}{
		{"expired", later, token},
		{"wrong secret", otherSecret, token},
		{"wrong issuer", otherIssuer, token},
		{"garbage", issuer, "not-a-token"},
		{"alg none", issuer, unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.issuer.Parse(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestIssuer_RejectsUnknownRole(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	issuer, err := NewIssuer("test-secret", "", time.Hour, WithClock(fixedClock(at)))
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "ROOT",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "3",
			ExpiresAt: jwt.NewNumericDate(at.Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Parse(forged)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestNewIssuer_Validation(t *testing.T) {
	_, err := NewIssuer("", "jobboard", time.Hour)
	assert.Error(t, err)

	_, err = NewIssuer("secret", "jobboard", 0)
	assert.Error(t, err)

	issuer, err := NewIssuer("secret", "jobboard", time.Hour)
	require.NoError(t, err)
	_, _, err = issuer.Issue(domain.Actor{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
