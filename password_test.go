package auth_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-authgate"
)

func TestPBKDF2Hasher_Hash(t *testing.T) {
	hasher := auth.NewPBKDF2Hasher()

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, hasher.Hash("wonderland"), hasher.Hash("wonderland"))
	})

	t.Run("lowercase hex of the key length", func(t *testing.T) {
		digest := hasher.Hash("wonderland")
		assert.Len(t, digest, auth.DigestKeyLength*2)
		assert.Equal(t, strings.ToLower(digest), digest)

		raw, err := hex.DecodeString(digest)
		require.NoError(t, err)
		assert.Len(t, raw, auth.DigestKeyLength)
	})

	t.Run("different inputs differ", func(t *testing.T) {
		assert.NotEqual(t, hasher.Hash("wonderland"), hasher.Hash("Wonderland"))
		assert.NotEqual(t, hasher.Hash(""), hasher.Hash(" "))
	})

	t.Run("empty password still hashes", func(t *testing.T) {
		assert.Len(t, hasher.Hash(""), auth.DigestKeyLength*2)
	})

	t.Run("HashPassword uses the default hasher", func(t *testing.T) {
		assert.Equal(t, hasher.Hash("secret"), auth.HashPassword("secret"))
	})
}

func TestPBKDF2Hasher_Matches(t *testing.T) {
	hasher := auth.NewPBKDF2Hasher()
	digest := hasher.Hash("wonderland")

	assert.True(t, hasher.Matches("wonderland", digest))
	assert.False(t, hasher.Matches("looking-glass", digest))
	assert.False(t, hasher.Matches("wonderland", strings.ToUpper(digest)))
	assert.False(t, hasher.Matches("wonderland", ""))
}
