package domain

import (
	"github.com/allisson/vaultcli/internal/errors"
)

// SecretBuffer holds key material or decrypted secret text in memory that the
// OS is asked not to swap to disk, and that is scrubbed to zero as soon as it
// is no longer needed.
//
// Locking is best-effort: mlock (or VirtualLock on Windows) can fail under
// memory pressure or missing privileges, in which case NewSecretBuffer still
// returns a usable buffer, just without the no-swap guarantee. Callers that
// need to know whether locking actually took hold can check Locked().
type SecretBuffer struct {
	buf    []byte
	locked bool
}

// NewSecretBuffer allocates a SecretBuffer of the given size and attempts to
// lock it into physical memory.
func NewSecretBuffer(size int) (*SecretBuffer, error) {
	if size <= 0 {
		return nil, errors.Wrap(errors.ErrBadParams, "secret buffer size must be positive")
	}
	buf := make([]byte, size)
	locked := lockMemory(buf) == nil
	return &SecretBuffer{buf: buf, locked: locked}, nil
}

// NewSecretBufferFrom allocates a locked SecretBuffer and copies b into it,
// zeroing the caller's copy of b.
func NewSecretBufferFrom(b []byte) (*SecretBuffer, error) {
	sb, err := NewSecretBuffer(len(b))
	if err != nil {
		return nil, err
	}
	copy(sb.buf, b)
	Zero(b)
	return sb, nil
}

// Bytes returns the buffer's contents. The returned slice aliases the
// SecretBuffer's backing array; callers must not retain it past Close.
func (s *SecretBuffer) Bytes() []byte {
	return s.buf
}

// Locked reports whether the OS actually honored the memory-lock request.
func (s *SecretBuffer) Locked() bool {
	return s.locked
}

// Close zeroes the buffer and releases its memory lock.
func (s *SecretBuffer) Close() error {
	Zero(s.buf)
	if s.locked {
		return unlockMemory(s.buf)
	}
	return nil
}
