package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// Digest parameters. The salt is shared by every account; stored digests
// depend on it, so changing any of these values invalidates all credentials.
const (
	DigestSalt       = "salt"
	DigestIterations = 1000
	DigestKeyLength  = 64
)

// PasswordHasher turns a plaintext password into a comparable digest.
type PasswordHasher interface {
	Hash(plaintext string) string
	Matches(plaintext, digest string) bool
}

// PBKDF2Hasher derives PBKDF2-HMAC-SHA256 digests rendered as lowercase hex.
type PBKDF2Hasher struct{}

var _ PasswordHasher = PBKDF2Hasher{}

// NewPBKDF2Hasher returns the default hasher.
func NewPBKDF2Hasher() PBKDF2Hasher {
	return PBKDF2Hasher{}
}

// Hash is deterministic: the same plaintext always yields the same digest.
func (PBKDF2Hasher) Hash(plaintext string) string {
	key := pbkdf2.Key([]byte(plaintext), []byte(DigestSalt), DigestIterations, DigestKeyLength, sha256.New)
	return hex.EncodeToString(key)
}

// Matches compares the digest of plaintext with a stored digest.
func (h PBKDF2Hasher) Matches(plaintext, digest string) bool {
	return h.Hash(plaintext) == digest
}

// HashPassword hashes with the default hasher.
func HashPassword(plaintext string) string {
	return PBKDF2Hasher{}.Hash(plaintext)
}
