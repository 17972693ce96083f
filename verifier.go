package auth

import (
	"context"
)

// CredentialVerifier looks up an identity and checks a plaintext password
// against its stored digest.
type CredentialVerifier struct {
	store  IdentityStore
	hasher PasswordHasher
	logger Logger
}

// NewCredentialVerifier creates a verifier. A nil hasher selects PBKDF2Hasher.
func NewCredentialVerifier(store IdentityStore, hasher PasswordHasher) *CredentialVerifier {
	if hasher == nil {
		hasher = PBKDF2Hasher{}
	}
	return &CredentialVerifier{
		store:  store,
		hasher: hasher,
		logger: defLogger{},
	}
}

// WithLogger sets the logger.
func (v *CredentialVerifier) WithLogger(logger Logger) *CredentialVerifier {
	v.logger = normalizeLogger(logger)
	return v
}

// Verify returns the identity matching usernameOrEmail when plaintext hashes
// to its digest. An unknown identifier and a wrong password both yield
// (nil, nil). Only store failures produce an error.
func (v *CredentialVerifier) Verify(ctx context.Context, usernameOrEmail, plaintext string) (*Identity, error) {
	identity, err := v.store.FindByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		return nil, err
	}

	if identity == nil {
		v.logger.Debug("verify: no identity for identifier", "identifier", usernameOrEmail)
		return nil, nil
	}

	if !v.hasher.Matches(plaintext, identity.CredentialDigest) {
		v.logger.Debug("verify: digest mismatch", "user_id", identity.ID)
		return nil, nil
	}

	return identity, nil
}
