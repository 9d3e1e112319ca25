package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Bcrypt with a realistic work factor is slow on purpose; tests use the
// library minimum to stay fast.
const testCost = 4

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret", testCost)
	require.NoError(t, err)

	assert.NotEqual(t, "secret", hash)
	assert.True(t, CheckPassword(hash, "secret"))
	assert.False(t, CheckPassword(hash, "not-the-secret"))
}

func TestHashPasswordSalted(t *testing.T) {
	h1, err := HashPassword("secret", testCost)
	require.NoError(t, err)

	h2, err := HashPassword("secret", testCost)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "two hashes of the same password must differ")
	assert.True(t, CheckPassword(h1, "secret"))
	assert.True(t, CheckPassword(h2, "secret"))
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	// a corrupt digest verifies false, it never errors out
	assert.False(t, CheckPassword("", "secret"))
	assert.False(t, CheckPassword("not-a-bcrypt-hash", "secret"))
	assert.False(t, CheckPassword("$2a$garbage", "secret"))
}

func TestHashPasswordDefaultCost(t *testing.T) {
	// zero/negative cost falls back to the configured default
	hash, err := HashPassword("secret", 0)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "secret"))
}
