// Package session turns an authenticated user into a signed bearer token
// and back into a domain.Actor. Nothing here is process-wide: every request
// carries its own token and resolves its own Actor.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cuongbtq/jobboard/internal/domain"
)

// Claims is the token payload.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// NewIssuer creates a new Issuer. The secret must not be empty.
func NewIssuer(secret, issuer string, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	i := &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue returns a signed token for actor and its expiry.
func (i *Issuer) Issue(actor domain.Actor) (string, time.Time, error) {
	if !actor.Authenticated() {
		return "", time.Time{}, fmt.Errorf("%w: cannot issue a token for an anonymous actor", domain.ErrUnauthorized)
	}
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatInt(actor.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates token and returns the actor it was issued for. Any
// failure is reported as domain.ErrUnauthorized.
func (i *Issuer) Parse(token string) (domain.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return domain.Actor{}, fmt.Errorf("%w: invalid token subject", domain.ErrUnauthorized)
	}
	if !claims.Role.Valid() {
		return domain.Actor{}, fmt.Errorf("%w: invalid token role", domain.ErrUnauthorized)
	}
	return domain.Actor{UserID: userID, Role: claims.Role}, nil
}
