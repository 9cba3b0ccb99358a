package domain

// KdfParams holds the Argon2id cost parameters used to derive a Master Key
// from a passphrase. These are persisted alongside the vault header (as a PHC
// string) so a vault opened on a different machine still unlocks with the
// parameters it was created under.
type KdfParams struct {
	// MemoryKiB is the Argon2id memory cost, in kibibytes.
	MemoryKiB uint32

	// Iterations is the Argon2id time cost.
	Iterations uint32

	// Parallelism is the Argon2id thread count.
	Parallelism uint8

	// SaltSize is the length of the random salt, in bytes.
	SaltSize uint32
}

// DefaultKdfParams are the parameters used for newly initialized vaults:
// memory=19 MiB, iterations=2, parallelism=1, 16-byte salt, per the vault
// header's documented kdf_params.
var DefaultKdfParams = KdfParams{
	MemoryKiB:   19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltSize:    16,
}

// MasterKey is the key derived from a passphrase via Argon2id. It never
// leaves process memory and is never persisted; only the salt and cost
// parameters it was derived under are stored, as a PHC string, in the vault
// header.
type MasterKey struct {
	// Key is the 32-byte derived key.
	Key []byte

	// Salt is the random salt the key was derived with.
	Salt []byte

	// Params is the Argon2id cost used for derivation.
	Params KdfParams
}
