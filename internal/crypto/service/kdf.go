package service

import (
	"crypto/rand"

	"golang.org/x/crypto/argon2"

	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
)

// Kdf derives a Master Key from a passphrase. The production implementation
// (Argon2Kdf) is the only implementation; the interface exists so the key
// hierarchy and CLI unlock path can be unit-tested against a deterministic
// stub instead of paying Argon2id's real memory cost in every test.
type Kdf interface {
	// Derive runs Argon2id over passphrase with the given salt and params,
	// returning a ready-to-use Master Key.
	Derive(passphrase []byte, salt []byte, params cryptoDomain.KdfParams) *cryptoDomain.MasterKey

	// NewSalt generates a fresh random salt of the given length.
	NewSalt(size uint32) ([]byte, error)
}

// Argon2Kdf derives Master Keys with golang.org/x/crypto/argon2's Argon2id
// variant, per RFC 9106's recommended KDF for password-based key derivation.
type Argon2Kdf struct{}

// NewArgon2Kdf returns the production Kdf.
func NewArgon2Kdf() *Argon2Kdf {
	return &Argon2Kdf{}
}

// Derive implements Kdf.
func (k *Argon2Kdf) Derive(passphrase, salt []byte, params cryptoDomain.KdfParams) *cryptoDomain.MasterKey {
	key := argon2.IDKey(passphrase, salt, params.Iterations, params.MemoryKiB, params.Parallelism, cryptoDomain.KeySize)
	return &cryptoDomain.MasterKey{
		Key:    key,
		Salt:   salt,
		Params: params,
	}
}

// NewSalt implements Kdf.
func (k *Argon2Kdf) NewSalt(size uint32) ([]byte, error) {
	salt := make([]byte, size)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}
