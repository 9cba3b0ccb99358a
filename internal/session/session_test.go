package session

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
	"github.com/allisson/vaultcli/internal/vault/domain"
	"github.com/allisson/vaultcli/internal/vault/usecase"
)

// TestMain verifies the idle-ticker goroutine never leaks past a lock
// transition.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeStore stubs the store underneath the gateway so these tests exercise
// session lifecycle only: no database, no real crypto. The embedded
// interface panics on any method a test does not expect to be called.
type fakeStore struct {
	usecase.VaultUseCase

	mu          sync.Mutex
	dek         []byte
	tainted     bool
	lockCalls   int
	lockTainted []bool
	changeCalls int
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	dek := make([]byte, cryptoDomain.KeySize)
	_, err := rand.Read(dek)
	require.NoError(t, err)
	return &fakeStore{dek: dek}
}

func (f *fakeStore) Unlock(ctx context.Context, passphrase []byte) (usecase.UnlockResult, error) {
	if string(passphrase) != "correct horse battery staple" {
		return usecase.UnlockResult{}, cryptoDomain.ErrBadPassphrase
	}
	dek := make([]byte, len(f.dek))
	copy(dek, f.dek)
	return usecase.UnlockResult{Dek: dek, DekID: uuid.Must(uuid.NewV7()), Tainted: f.tainted}, nil
}

func (f *fakeStore) RecordLock(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockCalls++
	f.lockTainted = append(f.lockTainted, tainted)
	return nil
}

func (f *fakeStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return nil, nil
}

func (f *fakeStore) ChangePassphrase(ctx context.Context, oldPassphrase, newPassphrase []byte) error {
	if string(oldPassphrase) != "correct horse battery staple" {
		return cryptoDomain.ErrBadPassphrase
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changeCalls++
	return nil
}

func (f *fakeStore) lockCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lockCalls
}

func TestGateway_UnlockAndExplicitLock(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(t)
	gateway := New(store, time.Hour)

	require.True(t, gateway.Locked())

	tainted, err := gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)
	assert.False(t, tainted)
	assert.False(t, gateway.Locked())

	require.NoError(t, gateway.Lock(ctx))
	assert.True(t, gateway.Locked())
	assert.Equal(t, 1, store.lockCount(), "VaultLocked must be recorded exactly once, before zeroization")

	gateway.Wait()
}

func TestGateway_UnlockWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	gateway := New(newFakeStore(t), time.Hour)

	_, err := gateway.Unlock(ctx, []byte("wrong"))
	assert.ErrorIs(t, err, cryptoDomain.ErrBadPassphrase)
	assert.True(t, gateway.Locked())
}

func TestGateway_OperationsFailWhenLocked(t *testing.T) {
	ctx := context.Background()
	gateway := New(newFakeStore(t), time.Hour)

	_, err := gateway.ListProjects(ctx)
	assert.ErrorIs(t, err, domain.ErrSessionLocked)
}

func TestGateway_IdleAutoLock(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(t)
	gateway := New(store, 1*time.Second)

	_, err := gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)

	gateway.Wait()
	assert.True(t, gateway.Locked())
	assert.Equal(t, 1, store.lockCount())

	_, err = gateway.ListProjects(ctx)
	assert.ErrorIs(t, err, domain.ErrSessionLocked)
}

func TestGateway_LockIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(t)
	gateway := New(store, time.Hour)

	_, err := gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)

	require.NoError(t, gateway.Lock(ctx))
	require.NoError(t, gateway.Lock(ctx), "locking an already-locked gateway is a no-op")
	assert.Equal(t, 1, store.lockCount())

	gateway.Wait()
}

func TestGateway_TaintedUnlockPropagatesToLockEntry(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(t)
	store.tainted = true
	gateway := New(store, time.Hour)

	tainted, err := gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)
	assert.True(t, tainted)
	assert.True(t, gateway.Tainted())

	require.NoError(t, gateway.Lock(ctx))
	require.Len(t, store.lockTainted, 1)
	assert.True(t, store.lockTainted[0], "the VaultLocked entry of a tainted session must record the taint")

	gateway.Wait()
}

// TestGateway_ChangePassphrase exercises the one operation that holds the
// gateway mutex without requiring a live session: it must work on a locked
// gateway, and on an unlocked one it must not deadlock against the idle
// ticker that shares the same mutex.
func TestGateway_ChangePassphrase(t *testing.T) {
	ctx := context.Background()

	t.Run("locked gateway", func(t *testing.T) {
		store := newFakeStore(t)
		gateway := New(store, time.Hour)

		err := gateway.ChangePassphrase(ctx, []byte("correct horse battery staple"), []byte("tr0ub4dor&3"))
		require.NoError(t, err)
		assert.Equal(t, 1, store.changeCalls)
	})

	t.Run("unlocked gateway", func(t *testing.T) {
		store := newFakeStore(t)
		gateway := New(store, time.Hour)

		_, err := gateway.Unlock(ctx, []byte("correct horse battery staple"))
		require.NoError(t, err)

		err = gateway.ChangePassphrase(ctx, []byte("correct horse battery staple"), []byte("tr0ub4dor&3"))
		require.NoError(t, err)

		require.NoError(t, gateway.Lock(ctx))
		gateway.Wait()
	})

	t.Run("wrong old passphrase", func(t *testing.T) {
		store := newFakeStore(t)
		gateway := New(store, time.Hour)

		err := gateway.ChangePassphrase(ctx, []byte("wrong"), []byte("tr0ub4dor&3"))
		assert.ErrorIs(t, err, cryptoDomain.ErrBadPassphrase)
	})
}

// TestGateway_DekZeroizedAfterLock inspects the secret buffer the gateway
// held: after lock it must read as all zero bytes.
func TestGateway_DekZeroizedAfterLock(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore(t)
	gateway := New(store, time.Hour)

	_, err := gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)

	gateway.mu.Lock()
	buf := gateway.dek.Bytes()
	gateway.mu.Unlock()

	require.NoError(t, gateway.Lock(ctx))

	for i, b := range buf {
		require.Equal(t, byte(0), b, "dek byte %d not zeroized", i)
	}

	gateway.Wait()
}
