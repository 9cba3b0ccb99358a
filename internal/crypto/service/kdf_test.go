package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
)

// testKdfParams trades Argon2id's real cost for a fast test; production
// vaults are created with the configured params (cryptoDomain.DefaultKdfParams
// unless overridden) and unlocked with the params stored in their PHC string.
var testKdfParams = cryptoDomain.KdfParams{MemoryKiB: 64, Iterations: 1, Parallelism: 1, SaltSize: 16}

func TestArgon2Kdf_DeriveIsDeterministic(t *testing.T) {
	kdf := NewArgon2Kdf()
	salt, err := kdf.NewSalt(testKdfParams.SaltSize)
	require.NoError(t, err)

	a := kdf.Derive([]byte("correct horse battery staple"), salt, testKdfParams)
	b := kdf.Derive([]byte("correct horse battery staple"), salt, testKdfParams)

	assert.Equal(t, a.Key, b.Key)
	assert.Len(t, a.Key, cryptoDomain.KeySize)
}

func TestArgon2Kdf_DifferentPassphraseDifferentKey(t *testing.T) {
	kdf := NewArgon2Kdf()
	salt, err := kdf.NewSalt(testKdfParams.SaltSize)
	require.NoError(t, err)

	a := kdf.Derive([]byte("correct horse battery staple"), salt, testKdfParams)
	b := kdf.Derive([]byte("wrong"), salt, testKdfParams)

	assert.NotEqual(t, a.Key, b.Key)
}

func TestArgon2Kdf_DifferentSaltDifferentKey(t *testing.T) {
	kdf := NewArgon2Kdf()
	saltA, err := kdf.NewSalt(testKdfParams.SaltSize)
	require.NoError(t, err)
	saltB, err := kdf.NewSalt(testKdfParams.SaltSize)
	require.NoError(t, err)
	require.NotEqual(t, saltA, saltB)

	a := kdf.Derive([]byte("correct horse battery staple"), saltA, testKdfParams)
	b := kdf.Derive([]byte("correct horse battery staple"), saltB, testKdfParams)

	assert.NotEqual(t, a.Key, b.Key)
}

func TestArgon2Kdf_NewSaltLength(t *testing.T) {
	kdf := NewArgon2Kdf()
	salt, err := kdf.NewSalt(16)
	require.NoError(t, err)
	assert.Len(t, salt, 16)
}
