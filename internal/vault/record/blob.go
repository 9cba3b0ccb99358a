// Package record implements the ciphertext blob codec and field
// encrypt/decrypt operations: every sensitive credential attribute is
// sealed independently, bound by AAD to its credential, field, and row
// version so a blob copied to another record or replayed from a stale
// version fails integrity verification.
package record

import (
	"crypto/rand"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultcli/internal/crypto/service"
	"github.com/allisson/vaultcli/internal/errors"
)

// FieldTag re-exports the crypto service's field tag type so callers outside
// internal/crypto never need that import path directly.
type FieldTag = cryptoService.FieldTag

const (
	FieldUsername FieldTag = "username"
	FieldPassword FieldTag = "password"
	FieldURL      FieldTag = "url"
	FieldNotes    FieldTag = "notes"
	FieldTOTP     FieldTag = "totp"
)

// Cipher encrypts and decrypts individual credential fields. It holds no
// state of its own beyond the AEAD manager; the DEK is supplied per call by
// the session gateway, never cached here.
type Cipher struct {
	aeadManager cryptoService.AEADManager
	algorithm   cryptoDomain.Algorithm
}

// NewCipher builds a record Cipher using the given AEAD factory and default
// algorithm for newly sealed blobs. Existing blobs are always decrypted with
// the algorithm implied by their version_byte, independent of this default.
func NewCipher(aeadManager cryptoService.AEADManager, algorithm cryptoDomain.Algorithm) *Cipher {
	return &Cipher{aeadManager: aeadManager, algorithm: algorithm}
}

// EncryptField derives a per-field subkey from dek and seals plaintext into a
// blob of the form version_byte(1) ‖ nonce(12) ‖ ciphertext ‖ tag(16).
func (c *Cipher) EncryptField(dek []byte, dekID, credentialID uuid.UUID, tag FieldTag, version int, plaintext []byte) ([]byte, error) {
	subkey, err := cryptoService.DeriveFieldKey(dek, tag, credentialID, dekID)
	if err != nil {
		return nil, errors.Wrap(err, "derive field subkey")
	}
	defer cryptoDomain.Zero(subkey)

	aead, err := c.aeadManager.CreateCipher(subkey, c.algorithm)
	if err != nil {
		return nil, err
	}

	aad := fieldAAD(cryptoDomain.BlobVersion, tag, credentialID, version)
	ciphertext, nonce, err := aead.Encrypt(plaintext, aad)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, 0, 1+len(nonce)+len(ciphertext))
	blob = append(blob, cryptoDomain.BlobVersion)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)
	return blob, nil
}

// DecryptField opens a blob sealed by EncryptField. versionAtEncryption must
// be the credential version the field was last written under, not the
// credential's current version.
func (c *Cipher) DecryptField(dek []byte, dekID, credentialID uuid.UUID, tag FieldTag, versionAtEncryption int, blob []byte) ([]byte, error) {
	if len(blob) < 1+cryptoDomain.NonceSize+cryptoDomain.TagSize {
		return nil, errors.Wrap(errors.ErrCorrupt, "ciphertext blob too short")
	}

	version := blob[0]
	nonce := blob[1 : 1+cryptoDomain.NonceSize]
	ciphertext := blob[1+cryptoDomain.NonceSize:]

	subkey, err := cryptoService.DeriveFieldKey(dek, tag, credentialID, dekID)
	if err != nil {
		return nil, errors.Wrap(err, "derive field subkey")
	}
	defer cryptoDomain.Zero(subkey)

	aead, err := c.aeadManager.CreateCipher(subkey, c.algorithm)
	if err != nil {
		return nil, err
	}

	aad := fieldAAD(version, tag, credentialID, versionAtEncryption)
	plaintext, err := aead.Decrypt(ciphertext, nonce, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return plaintext, nil
}

// fieldAAD builds the AAD binding a blob to its logical row:
// version_byte ‖ field_tag ‖ cred_id ‖ version_at_encryption.
func fieldAAD(version byte, tag FieldTag, credentialID uuid.UUID, fieldVersion int) []byte {
	aad := make([]byte, 0, 1+len(tag)+16+4)
	aad = append(aad, version)
	aad = append(aad, []byte(tag)...)
	aad = append(aad, credentialID[:]...)
	aad = append(aad, byte(fieldVersion>>24), byte(fieldVersion>>16), byte(fieldVersion>>8), byte(fieldVersion))
	return aad
}

// NewNonce is exposed for callers (tests) that need to assert nonce
// uniqueness directly; production code never calls this, the AEAD
// implementations generate their own nonces internally.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, cryptoDomain.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}
