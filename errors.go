package auth

import (
	"errors"
	"net/http"
)

// FailureKind tags an AuthError so callers can branch without string matching.
type FailureKind string

const (
	KindAuthentication    FailureKind = "authentication_failed"
	KindMissingCredential FailureKind = "missing_credential"
	KindTokenExpired      FailureKind = "token_expired"
	KindTokenInvalid      FailureKind = "token_invalid"
	KindIdentityNotFound  FailureKind = "identity_not_found"
	KindConfiguration     FailureKind = "configuration"
	KindUnavailable       FailureKind = "unavailable"
)

// AuthError is the error type returned across component boundaries.
// Message is safe to show to the caller; Err carries the internal cause.
type AuthError struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches any AuthError of the same kind, so errors.Is(err, ErrTokenExpired)
// holds for wrapped instances too.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithCause returns a copy of e carrying err as its internal cause.
func (e *AuthError) WithCause(err error) *AuthError {
	return &AuthError{
		Kind:    e.Kind,
		Message: e.Message,
		Err:     err,
	}
}

var (
	// ErrAuthenticationFailed is returned for any failed login. It never
	// reveals whether the account exists.
	ErrAuthenticationFailed = &AuthError{Kind: KindAuthentication, Message: "Invalid credentials"}
	// ErrMissingCredential is returned when no bearer token was presented.
	ErrMissingCredential = &AuthError{Kind: KindMissingCredential, Message: "Token is missing"}
	// ErrTokenExpired is returned for a well signed token past its expiry.
	ErrTokenExpired = &AuthError{Kind: KindTokenExpired, Message: "Token expired"}
	// ErrTokenInvalid covers tampered, malformed or inconsistent tokens.
	ErrTokenInvalid = &AuthError{Kind: KindTokenInvalid, Message: "Invalid token"}
	// ErrIdentityNotFound is returned when a valid token references a
	// subject that no longer exists.
	ErrIdentityNotFound = &AuthError{Kind: KindIdentityNotFound, Message: "User not found"}
	// ErrConfiguration signals a fatal startup problem such as an empty
	// signing secret.
	ErrConfiguration = &AuthError{Kind: KindConfiguration, Message: "invalid auth configuration"}
	// ErrUnavailable is returned when the identity store keeps failing.
	ErrUnavailable = &AuthError{Kind: KindUnavailable, Message: "Service unavailable"}
)

// KindOf returns the FailureKind of err, or "" when err is not an AuthError.
func KindOf(err error) FailureKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// PublicMessage returns the caller safe message for err.
func PublicMessage(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Internal server error"
}

// IsAuthorizationFailure reports whether err is a rejected token, expired
// or invalid alike.
func IsAuthorizationFailure(err error) bool {
	switch KindOf(err) {
	case KindTokenExpired, KindTokenInvalid:
		return true
	}
	return false
}

// HTTPStatus maps err to the status code used by the HTTP surface.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthentication, KindTokenExpired, KindTokenInvalid:
		return http.StatusUnauthorized
	case KindMissingCredential:
		return http.StatusForbidden
	case KindIdentityNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
