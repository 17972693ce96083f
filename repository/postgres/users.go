// Package postgres implements auth.IdentityStore with pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	auth "github.com/goliatone/go-authgate"
)

// poolIface is the subset of *pgxpool.Pool the store needs.
type poolIface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

const selectUserColumns = `SELECT id::text, username, email, password_hash FROM users`

// Users is a pgx backed identity store.
type Users struct {
	pool poolIface
}

var _ auth.IdentityStore = (*Users)(nil)

// NewUsers creates a store over pool.
func NewUsers(pool poolIface) *Users {
	return &Users{pool: pool}
}

// FindByUsernameOrEmail returns the first row matching identifier as a
// username or an email.
func (u *Users) FindByUsernameOrEmail(ctx context.Context, identifier string) (*auth.Identity, error) {
	row := u.pool.QueryRow(ctx,
		selectUserColumns+` WHERE username = $1 OR email = $1 LIMIT 1`,
		identifier)
	return scanIdentity(row, "find_by_username_or_email")
}

// GetByID returns the user with id. Ids that are not UUIDs cannot exist.
func (u *Users) GetByID(ctx context.Context, id string) (*auth.Identity, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	row := u.pool.QueryRow(ctx, selectUserColumns+` WHERE id = $1`, id)
	return scanIdentity(row, "get_by_id")
}

// Create inserts a user with an already hashed password.
func (u *Users) Create(ctx context.Context, username, email, passwordHash string) (*auth.Identity, error) {
	identity := &auth.Identity{
		ID:               uuid.NewString(),
		Username:         username,
		Email:            email,
		CredentialDigest: passwordHash,
	}

	_, err := u.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash) VALUES ($1, $2, $3, $4)`,
		identity.ID, identity.Username, identity.Email, identity.CredentialDigest)
	if err != nil {
		return nil, oops.In("postgres").
			Code("USER_CREATE").
			With("username", username).
			Wrap(err)
	}

	return identity, nil
}

// Ping checks connectivity.
func (u *Users) Ping(ctx context.Context) error {
	return u.pool.Ping(ctx)
}

func scanIdentity(row pgx.Row, op string) (*auth.Identity, error) {
	identity := &auth.Identity{}
	err := row.Scan(&identity.ID, &identity.Username, &identity.Email, &identity.CredentialDigest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, oops.In("postgres").
			Code("USER_LOOKUP").
			With("op", op).
			Wrap(err)
	}
	return identity, nil
}
