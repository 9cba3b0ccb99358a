// Package service implements the cryptographic primitives the rest of the
// vault is built on: AEAD ciphers, the Argon2id KDF, and HKDF subkey derivation.
//
// Higher layers never touch golang.org/x/crypto directly; they go through the
// AEAD/AEADManager/Kdf interfaces below so the production wiring can be
// assertion-checked and test doubles can be swapped in without touching the
// key hierarchy or record cipher logic.
package service

import (
	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
//
// Implementation: ChaCha20Poly1305Cipher, the vault's one mandated algorithm.
type AEAD interface {
	// Encrypt encrypts plaintext with optional additional authenticated data
	// (AAD) and a freshly generated nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt verifies and decrypts ciphertext using the given nonce and AAD.
	// Fails when the tag does not verify; callers map the failure onto their
	// own taxonomy error (ErrDecryptionFailed, ErrBadPassphrase).
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager is a factory for AEAD cipher instances, keyed by algorithm.
//
// Implementation: AEADManagerService.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	// key must be exactly 32 bytes.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}
