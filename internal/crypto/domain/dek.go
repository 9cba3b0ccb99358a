package domain

import (
	"github.com/google/uuid"
)

// Dek is the vault's single Data Encryption Key: a 32-byte random key wrapped
// under the Master Key and held, once unwrapped, only in a locked memory
// buffer (SecretBuffer).
//
// Unlike a per-record key hierarchy, this vault has exactly one DEK for its
// whole lifetime (DEK rotation is interface-reserved but unimplemented). Every
// field of every credential is encrypted with a subkey derived from this DEK
// via HKDF, never with the DEK itself.
type Dek struct {
	// ID is a random 128-bit identifier carried in every subkey derivation and
	// AAD so a future DEK rotation could distinguish generations.
	ID uuid.UUID

	// WrappedKey is DEK ciphertext sealed under the Master Key.
	WrappedKey []byte

	// WrapNonce is the nonce used to seal WrappedKey.
	WrapNonce []byte

	// Algorithm is the AEAD algorithm the DEK was wrapped with.
	Algorithm Algorithm
}

// Unwrapped holds the plaintext DEK bytes, kept in a locked buffer by the
// session, never by this type directly.
type Unwrapped struct {
	ID  uuid.UUID
	Key []byte
}

// NewDekID mints a random 128-bit DEK generation identifier.
func NewDekID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// AAD for wrapping the DEK under the Master Key, per envelope-wrap AAD binding.
func WrappedDekAAD(dekID uuid.UUID) []byte {
	b := []byte("wrapped-dek-v1")
	idBytes := dekID[:]
	return append(append([]byte{}, b...), idBytes...)
}

// AAD for wrapping the audit HMAC seed under the DEK.
func WrappedAuditSeedAAD(dekID uuid.UUID) []byte {
	b := []byte("audit-seed-v1")
	idBytes := dekID[:]
	return append(append([]byte{}, b...), idBytes...)
}
