package postgres

import (
	"context"

	"github.com/cuongbtq/jobboard/internal/domain"
)

const userColumns = `
	user_id, username, email, password_hash, role,
	first_name, last_name, company_name, phone_number,
	created_at, updated_at
`

// UserStore implements store.UserStore.
type UserStore struct{ s *Store }

func (u *UserStore) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return u.get(ctx, "find user by username", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (u *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return u.get(ctx, "find user by email", `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (u *UserStore) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return u.get(ctx, "find user", `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id)
}

func (u *UserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return u.exists(ctx, "check username", `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
}

func (u *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return u.exists(ctx, "check email", `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email)
}

func (u *UserStore) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := u.s.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO users (
			username, email, password_hash, role,
			first_name, last_name, company_name, phone_number
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8
		)
		RETURNING user_id, created_at, updated_at
	`

	err := u.s.db.QueryRowxContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.FirstName,
		user.LastName,
		user.CompanyName,
		user.PhoneNumber,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	return u.s.translate("create user", err, domain.ErrDuplicateUser)
}

// Update writes profile fields. Username and role are immutable; an empty
// PasswordHash keeps the stored one.
func (u *UserStore) Update(ctx context.Context, user *domain.User) error {
	ctx, cancel := u.s.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE users
		SET email = $1,
		    first_name = $2,
		    last_name = $3,
		    company_name = $4,
		    phone_number = $5,
		    password_hash = COALESCE(NULLIF($6, ''), password_hash),
		    updated_at = NOW()
		WHERE user_id = $7
		RETURNING ` + userColumns

	err := u.s.db.GetContext(ctx, user, query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.CompanyName,
		user.PhoneNumber,
		user.PasswordHash,
		user.ID,
	)
	return u.s.translate("update user", err, domain.ErrDuplicateUser)
}

func (u *UserStore) get(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	ctx, cancel := u.s.withTimeout(ctx)
	defer cancel()

	var user domain.User
	if err := u.s.db.GetContext(ctx, &user, query, arg); err != nil {
		return nil, u.s.translate(op, err, nil)
	}
	return &user, nil
}

func (u *UserStore) exists(ctx context.Context, op, query string, arg any) (bool, error) {
	ctx, cancel := u.s.withTimeout(ctx)
	defer cancel()

	var found bool
	if err := u.s.db.GetContext(ctx, &found, query, arg); err != nil {
		return false, u.s.translate(op, err, nil)
	}
	return found, nil
}
