package record

import (
	"crypto/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultcli/internal/crypto/service"
)

func testCipher(t *testing.T) (*Cipher, []byte, uuid.UUID) {
	t.Helper()
	dek := make([]byte, cryptoDomain.KeySize)
	_, err := rand.Read(dek)
	require.NoError(t, err)
	dekID := uuid.Must(uuid.NewV7())
	c := NewCipher(cryptoService.NewAEADManager(), cryptoDomain.ChaCha20)
	return c, dek, dekID
}

func TestEncryptDecryptField_RoundTrip(t *testing.T) {
	c, dek, dekID := testCipher(t)
	credID := uuid.Must(uuid.NewV7())

	blob, err := c.EncryptField(dek, dekID, credID, FieldPassword, 1, []byte("hunter2"))
	require.NoError(t, err)

	plaintext, err := c.DecryptField(dek, dekID, credID, FieldPassword, 1, blob)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(plaintext))
}

func TestDecryptField_TamperedByteFails(t *testing.T) {
	c, dek, dekID := testCipher(t)
	credID := uuid.Must(uuid.NewV7())

	blob, err := c.EncryptField(dek, dekID, credID, FieldPassword, 1, []byte("hunter2"))
	require.NoError(t, err)

	blob[len(blob)-1] ^= 0xFF
	_, err = c.DecryptField(dek, dekID, credID, FieldPassword, 1, blob)
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
}

func TestDecryptField_WrongCredentialIDFails(t *testing.T) {
	c, dek, dekID := testCipher(t)
	credA := uuid.Must(uuid.NewV7())
	credB := uuid.Must(uuid.NewV7())

	blob, err := c.EncryptField(dek, dekID, credA, FieldPassword, 1, []byte("hunter2"))
	require.NoError(t, err)

	_, err = c.DecryptField(dek, dekID, credB, FieldPassword, 1, blob)
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
}

func TestDecryptField_WrongFieldTagFails(t *testing.T) {
	c, dek, dekID := testCipher(t)
	credID := uuid.Must(uuid.NewV7())

	blob, err := c.EncryptField(dek, dekID, credID, FieldPassword, 1, []byte("hunter2"))
	require.NoError(t, err)

	_, err = c.DecryptField(dek, dekID, credID, FieldUsername, 1, blob)
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
}

func TestDecryptField_StaleVersionFails(t *testing.T) {
	c, dek, dekID := testCipher(t)
	credID := uuid.Must(uuid.NewV7())

	blob, err := c.EncryptField(dek, dekID, credID, FieldPassword, 2, []byte("hunter2"))
	require.NoError(t, err)

	// Replaying the blob against a stale version_at_encryption (the AAD used
	// when the field was last re-encrypted) must fail.
	_, err = c.DecryptField(dek, dekID, credID, FieldPassword, 1, blob)
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
}

func TestDecryptField_CorruptBlobTooShort(t *testing.T) {
	c, dek, dekID := testCipher(t)
	credID := uuid.Must(uuid.NewV7())

	_, err := c.DecryptField(dek, dekID, credID, FieldPassword, 1, []byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestEncryptField_NonceNeverRepeats(t *testing.T) {
	c, dek, dekID := testCipher(t)
	credID := uuid.Must(uuid.NewV7())

	seen := make(map[string]bool)
	const iterations = 2000
	for i := 0; i < iterations; i++ {
		blob, err := c.EncryptField(dek, dekID, credID, FieldPassword, 1, []byte("hunter2"))
		require.NoError(t, err)
		nonce := string(blob[1 : 1+cryptoDomain.NonceSize])
		require.False(t, seen[nonce], "nonce repeated at iteration %d", i)
		seen[nonce] = true
	}
}

func TestEncryptField_BlobLayout(t *testing.T) {
	c, dek, dekID := testCipher(t)
	credID := uuid.Must(uuid.NewV7())

	blob, err := c.EncryptField(dek, dekID, credID, FieldNotes, 1, []byte("hello"))
	require.NoError(t, err)

	assert.Equal(t, cryptoDomain.BlobVersion, blob[0])
	assert.GreaterOrEqual(t, len(blob), 1+cryptoDomain.NonceSize+cryptoDomain.TagSize)
}
