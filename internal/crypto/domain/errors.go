package domain

import (
	"github.com/allisson/vaultcli/internal/errors"
)

// Cryptographic operation errors.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrBadParams, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid (must be 32 bytes).
	ErrInvalidKeySize = errors.Wrap(errors.ErrBadParams, "invalid key size")

	// ErrDecryptionFailed indicates an AEAD tag failed to verify: wrong key, wrong
	// AAD, or tampered ciphertext.
	ErrDecryptionFailed = errors.Wrap(errors.ErrIntegrity, "decryption failed")

	// ErrBadPassphrase indicates the passphrase does not unlock the vault's
	// wrapped DEK.
	ErrBadPassphrase = errors.Wrap(errors.ErrBadPassphrase, "incorrect passphrase")

	// ErrInvalidPHC indicates a malformed Argon2id PHC parameter string.
	ErrInvalidPHC = errors.Wrap(errors.ErrCorrupt, "invalid kdf parameter string")
)
