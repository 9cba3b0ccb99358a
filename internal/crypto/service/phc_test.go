package service

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
)

func TestEncodeDecodePHC_RoundTrip(t *testing.T) {
	params := cryptoDomain.KdfParams{MemoryKiB: 65536, Iterations: 3, Parallelism: 4, SaltSize: 16}
	salt := make([]byte, params.SaltSize)
	_, err := rand.Read(salt)
	require.NoError(t, err)

	phc := EncodePHC(params, salt)

	gotParams, gotSalt, err := DecodePHC(phc)
	require.NoError(t, err)
	assert.Equal(t, params.MemoryKiB, gotParams.MemoryKiB)
	assert.Equal(t, params.Iterations, gotParams.Iterations)
	assert.Equal(t, params.Parallelism, gotParams.Parallelism)
	assert.Equal(t, salt, gotSalt)
}

func TestDecodePHC_RejectsMalformed(t *testing.T) {
	_, _, err := DecodePHC("not-a-phc-string")
	assert.ErrorIs(t, err, cryptoDomain.ErrInvalidPHC)
}

func TestDecodePHC_RejectsWrongAlgorithm(t *testing.T) {
	_, _, err := DecodePHC("$argon2i$v=19$m=65536,t=3,p=4$c29tZXNhbHQ")
	assert.ErrorIs(t, err, cryptoDomain.ErrInvalidPHC)
}
