package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher(AlgorithmBcrypt, 4)

	digest, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", digest)
	assert.True(t, strings.HasPrefix(digest, "$2a$04$"))

	ok, err := hasher.Verify("s3cret-pass", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("wrong-pass", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	hasher := NewPasswordHasher(AlgorithmBcrypt, 4)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestArgon2idHashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher(AlgorithmArgon2id, 0)

	digest, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$argon2id$v=19$"))

	ok, err := hasher.Verify("s3cret-pass", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("nope", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyAcceptsEitherAlgorithm(t *testing.T) {
	argonDigest, err := NewPasswordHasher(AlgorithmArgon2id, 0).Hash("pw")
	require.NoError(t, err)

	ok, err := NewPasswordHasher(AlgorithmBcrypt, 4).Verify("pw", argonDigest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBcryptRejectsLongPasswords(t *testing.T) {
	hasher := NewPasswordHasher(AlgorithmBcrypt, 4)

	_, err := hasher.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestVerifyMalformedDigest(t *testing.T) {
	hasher := NewPasswordHasher(AlgorithmBcrypt, 4)

	ok, err := hasher.Verify("pw", "not-a-hash")
	assert.Error(t, err)
	assert.False(t, ok)

	ok, err = hasher.Verify("pw", "$argon2id$garbage")
	assert.Error(t, err)
	assert.False(t, ok)
}
