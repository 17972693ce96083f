package auth

import (
	"context"
	"log/slog"
	"time"
)

// Logger is the logging contract used across the package. The method set
// matches *slog.Logger so a configured slog logger can be passed directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity is an account record as supplied by an IdentityStore.
// CredentialDigest is always the output of a PasswordHasher, never plaintext.
type Identity struct {
	ID               string
	Username         string
	Email            string
	CredentialDigest string
}

// IdentityStore supplies identity records. A nil identity with a nil error
// means the record does not exist.
type IdentityStore interface {
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*Identity, error)
	GetByID(ctx context.Context, id string) (*Identity, error)
}

// IdentityStoreFuncs adapts a pair of functions to IdentityStore.
type IdentityStoreFuncs struct {
	FindByUsernameOrEmailFunc func(ctx context.Context, identifier string) (*Identity, error)
	GetByIDFunc               func(ctx context.Context, id string) (*Identity, error)
}

// FindByUsernameOrEmail implements IdentityStore.
func (f IdentityStoreFuncs) FindByUsernameOrEmail(ctx context.Context, identifier string) (*Identity, error) {
	if f.FindByUsernameOrEmailFunc == nil {
		return nil, nil
	}
	return f.FindByUsernameOrEmailFunc(ctx, identifier)
}

// GetByID implements IdentityStore.
func (f IdentityStoreFuncs) GetByID(ctx context.Context, id string) (*Identity, error) {
	if f.GetByIDFunc == nil {
		return nil, nil
	}
	return f.GetByIDFunc(ctx, id)
}

// Clock returns the current time.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

type defLogger struct{}

func (defLogger) Debug(msg string, args ...any) {
	slog.Default().With("component", "auth").Debug(msg, args...)
}

func (defLogger) Info(msg string, args ...any) {
	slog.Default().With("component", "auth").Info(msg, args...)
}

func (defLogger) Warn(msg string, args ...any) {
	slog.Default().With("component", "auth").Warn(msg, args...)
}

func (defLogger) Error(msg string, args ...any) {
	slog.Default().With("component", "auth").Error(msg, args...)
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
