// Package domain defines core cryptographic domain models for the vault's
// envelope-encryption hierarchy: a passphrase-derived Master Key wraps a single
// vault-wide Data Encryption Key (DEK), and per-field subkeys are derived from
// the DEK at encrypt/decrypt time.
package domain

// Algorithm represents the AEAD algorithm used for a given wrapping or
// encryption operation. The vault mandates exactly one: ChaCha20-Poly1305,
// software-constant-time with no AES-NI dependency. The type still
// carries an explicit name rather than being implicit, since it is part of
// the wrapped-DEK record and a future schema version could add another.
type Algorithm string

// ChaCha20 is the vault's only supported AEAD algorithm.
const ChaCha20 Algorithm = "chacha20-poly1305"

// NonceSize is the AEAD nonce length used throughout the vault, in bytes.
const NonceSize = 12

// TagSize is the AEAD authentication tag length, in bytes.
const TagSize = 16

// KeySize is the length of a Master Key, DEK, or derived subkey, in bytes.
const KeySize = 32

// BlobVersion is the current record-cipher blob layout version.
const BlobVersion byte = 1
