package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	auth "github.com/goliatone/go-authgate"
)

// UserModel is the Bun model backing auth.Identity.
type UserModel struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           string    `bun:"id,pk"`
	Username     string    `bun:"username,notnull,unique"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (m *UserModel) toIdentity() *auth.Identity {
	return &auth.Identity{
		ID:               m.ID,
		Username:         m.Username,
		Email:            m.Email,
		CredentialDigest: m.PasswordHash,
	}
}

// Users implements auth.IdentityStore on top of Bun.
type Users struct {
	db *bun.DB
}

var _ auth.IdentityStore = (*Users)(nil)

// NewUsers creates a new repository.
func NewUsers(db *bun.DB) *Users {
	return &Users{db: db}
}

// OpenSQLite opens a Bun handle on an SQLite database through sqliteshim.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, oops.In("repository").Code("SQLITE_OPEN").With("dsn", dsn).Wrap(err)
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		sqldb.SetMaxOpenConns(1)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateSchema creates the users table when it does not exist.
func (r *Users) CreateSchema(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*UserModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return oops.In("repository").Code("SCHEMA_CREATE").Wrap(err)
	}
	return nil
}

// Ping checks the database connection.
func (r *Users) Ping(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "SELECT 1")
	return err
}

// FindByUsernameOrEmail returns the first user whose username or email
// equals identifier, or nil when none does.
func (r *Users) FindByUsernameOrEmail(ctx context.Context, identifier string) (*auth.Identity, error) {
	var model UserModel
	err := r.db.NewSelect().
		Model(&model).
		Where("?TableAlias.username = ?", identifier).
		WhereOr("?TableAlias.email = ?", identifier).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, oops.In("repository").
			Code("USER_LOOKUP").
			With("op", "find_by_username_or_email").
			Wrap(err)
	}
	return model.toIdentity(), nil
}

// GetByID returns the user with id, or nil when none exists.
func (r *Users) GetByID(ctx context.Context, id string) (*auth.Identity, error) {
	var model UserModel
	err := r.db.NewSelect().
		Model(&model).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, oops.In("repository").
			Code("USER_LOOKUP").
			With("op", "get_by_id", "user_id", id).
			Wrap(err)
	}
	return model.toIdentity(), nil
}

// Create stores a new user with an already hashed password.
func (r *Users) Create(ctx context.Context, username, email, passwordHash string) (*auth.Identity, error) {
	now := time.Now().UTC()
	model := &UserModel{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(username),
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return nil, oops.In("repository").
			Code("USER_CREATE").
			With("username", model.Username).
			Wrap(err)
	}

	return model.toIdentity(), nil
}
