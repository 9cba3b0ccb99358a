package service

import (
	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
)

// AEADManagerService implements the AEADManager interface for creating AEAD
// cipher instances.
//
// This service is a factory for authenticated encryption cipher instances.
// The vault mandates exactly one algorithm, ChaCha20-Poly1305, so the
// factory exists to keep every caller going through the AEADManager
// interface rather than constructing ChaCha20Poly1305Cipher directly, and to
// give a future schema version a single place to add another algorithm.
//
// Usage example:
//
//	manager := NewAEADManager()
//	key := make([]byte, 32) // 256-bit key
//	rand.Read(key)
//
//	cipher, err := manager.CreateCipher(key, cryptoDomain.ChaCha20)
//	if err != nil {
//	    // handle error
//	}
//
//	ciphertext, nonce, err := cipher.Encrypt(plaintext, nil)
type AEADManagerService struct{}

// NewAEADManager creates a new AEADManagerService instance.
func NewAEADManager() *AEADManagerService {
	return &AEADManagerService{}
}

// CreateCipher creates an AEAD cipher instance for alg. key must be exactly
// 32 bytes (256 bits), generated from a cryptographically secure random
// number generator (crypto/rand).
//
// Returns:
//   - An AEAD cipher instance ready for encryption/decryption
//   - ErrInvalidKeySize if the key is not 32 bytes
//   - ErrUnsupportedAlgorithm if alg is not cryptoDomain.ChaCha20
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	if len(key) != 32 {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	switch alg {
	case cryptoDomain.ChaCha20:
		return NewChaCha20Poly1305(key)
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
}
