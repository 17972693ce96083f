package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the JWT payload. user_id and username sit next to the
// registered exp/iat/jti claims.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Token is an issued bearer token. Raw is the signed compact form handed to
// the caller; the remaining fields describe what it asserts.
type Token struct {
	Raw             string    `json:"token"`
	SubjectID       string    `json:"-"`
	SubjectUsername string    `json:"-"`
	IssuedAt        time.Time `json:"-"`
	ExpiresAt       time.Time `json:"-"`
}

// Subject is the identity reference decoded from a valid token.
type Subject struct {
	ID        string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func subjectFromClaims(c *TokenClaims) *Subject {
	s := &Subject{
		ID:       c.UserID,
		Username: c.Username,
	}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}
