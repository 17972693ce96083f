package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// TokenValidity is the fixed lifetime of an issued token.
const TokenValidity = time.Hour

// TokenService issues and validates HS256 signed tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	clock      Clock
	logger     Logger
}

// NewTokenService creates a TokenService. An empty signing key is a
// configuration error and must stop startup.
func NewTokenService(signingKey []byte, issuer string, logger Logger) (*TokenService, error) {
	if len(signingKey) == 0 {
		return nil, ErrConfiguration.WithCause(errors.New("signing key is empty"))
	}

	key := make([]byte, len(signingKey))
	copy(key, signingKey)

	return &TokenService{
		signingKey: key,
		issuer:     issuer,
		logger:     normalizeLogger(logger),
	}, nil
}

// WithClock overrides the time source used for issuance and validation.
func (ts *TokenService) WithClock(clock Clock) *TokenService {
	ts.clock = clock
	return ts
}

// WithLogger sets the logger.
func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	ts.logger = normalizeLogger(logger)
	return ts
}

// Issue signs a token for identity valid for TokenValidity.
func (ts *TokenService) Issue(identity *Identity) (*Token, error) {
	if identity == nil || identity.ID == "" {
		return nil, oops.In("token_service").
			Code("TOKEN_NO_SUBJECT").
			Errorf("cannot issue a token without a subject")
	}

	// NumericDate has second precision; truncate so Token matches the claims.
	now := ts.clock.now().Truncate(time.Second)
	expiresAt := now.Add(TokenValidity)

	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   identity.ID,
		Username: identity.Username,
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.signingKey)
	if err != nil {
		return nil, oops.In("token_service").
			Code("TOKEN_SIGN_FAILED").
			With("user_id", identity.ID).
			Wrap(err)
	}

	return &Token{
		Raw:             raw,
		SubjectID:       identity.ID,
		SubjectUsername: identity.Username,
		IssuedAt:        now,
		ExpiresAt:       expiresAt,
	}, nil
}

// Validate verifies the signature and expiry of raw and returns its subject.
func (ts *TokenService) Validate(raw string) (*Subject, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ts.clock.now),
	}
	if ts.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.issuer))
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			ts.logger.Debug("token validation rejected expired token")
			return nil, ErrTokenExpired.WithCause(err)
		}
		ts.logger.Debug("token validation rejected token", "error", err)
		return nil, ErrTokenInvalid.WithCause(err)
	}

	if !token.Valid || claims.UserID == "" {
		ts.logger.Debug("token validation found no subject")
		return nil, ErrTokenInvalid
	}

	return subjectFromClaims(claims), nil
}
