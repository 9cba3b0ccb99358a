// Package session implements the single gateway every credential or project
// operation passes through, owning the live DEK and serializing all access
// behind one mutex. A background idle-lock ticker contends for the same
// mutex as foreground calls.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
	"github.com/allisson/vaultcli/internal/vault/domain"
	"github.com/allisson/vaultcli/internal/vault/usecase"
)

// tickInterval is the idle-ticker's wake granularity. The design requires
// "granularity ≤ 5 s"; this sits comfortably under that bound without
// spinning.
const tickInterval = 2 * time.Second

// Gateway is the single entry point for every vault operation once unlocked.
// Every method updates last-activity and is serialized behind one mutex
// shared with the idle-lock ticker, so a long-running call delays auto-lock
// rather than racing it.
type Gateway struct {
	store usecase.VaultUseCase

	mu           sync.Mutex
	dek          *cryptoDomain.SecretBuffer
	dekID        uuid.UUID
	tainted      bool
	unlockedAt   time.Time
	lastActivity time.Time
	idleTimeout  time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Gateway over store. The gateway starts locked; call Unlock to
// obtain a live session.
func New(store usecase.VaultUseCase, idleTimeout time.Duration) *Gateway {
	return &Gateway{store: store, idleTimeout: idleTimeout}
}

// Init delegates to the store's Init; it takes no lock on the DEK since no
// session exists yet.
func (g *Gateway) Init(ctx context.Context, passphrase []byte) error {
	return g.store.Init(ctx, passphrase)
}

// Unlock derives and holds the DEK in a locked secret buffer, starts the
// idle-lock ticker, and returns whether the audit chain was found tainted.
func (g *Gateway) Unlock(ctx context.Context, passphrase []byte) (tainted bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dek != nil {
		return g.tainted, nil
	}

	result, err := g.store.Unlock(ctx, passphrase)
	if err != nil {
		return false, err
	}

	buf, err := cryptoDomain.NewSecretBufferFrom(result.Dek)
	if err != nil {
		return false, err
	}

	g.dek = buf
	g.dekID = result.DekID
	g.tainted = result.Tainted
	g.unlockedAt = time.Now()
	g.lastActivity = g.unlockedAt

	tickerCtx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.done = make(chan struct{})
	go g.runIdleTicker(tickerCtx)

	return result.Tainted, nil
}

// Locked reports whether the gateway currently holds no live DEK.
func (g *Gateway) Locked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dek == nil
}

// Tainted reports whether the active session's audit chain failed
// verification at unlock time.
func (g *Gateway) Tainted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tainted
}

// Lock zeroizes the DEK and stops the idle ticker. It is used both for
// explicit lock and for the idle-timeout transition; callers never see the
// difference in outcome, only in what triggered it.
func (g *Gateway) Lock(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lockLocked(ctx)
}

// lockLocked assumes g.mu is already held. It appends the VaultLocked audit
// entry using the still-live DEK as the last step before zeroization, per
// the design's "must have been written at lock time using the still-live
// DEK-derived seed" requirement; a failure to append is returned to the
// caller but never blocks the zeroization that follows.
func (g *Gateway) lockLocked(ctx context.Context) error {
	if g.dek == nil {
		return nil
	}

	recordErr := g.store.RecordLock(ctx, g.dek.Bytes(), g.dekID, g.tainted)

	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}

	_ = g.dek.Close()
	g.dek = nil
	g.dekID = uuid.Nil
	g.tainted = false

	return recordErr
}

func (g *Gateway) touch() {
	g.lastActivity = time.Now()
}

// withDek runs fn with the live DEK, its generation id, and the session's
// current taint state, and updates last-activity, returning
// ErrSessionLocked if no session is active. Every call site threads tainted
// through to the audit entry its operation appends, so every subsequent
// entry records outcome=tainted while the chain is untrusted.
func (g *Gateway) withDek(fn func(dek []byte, dekID uuid.UUID, tainted bool) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dek == nil {
		return domain.ErrSessionLocked
	}
	g.touch()
	return fn(g.dek.Bytes(), g.dekID, g.tainted)
}

// runIdleTicker wakes every tickInterval and, on exceeding idleTimeout with
// no foreground activity, transitions the session to Locked. It acquires
// the same mutex as every foreground gateway method, so a long operation in
// flight delays the lock transition rather than racing it.
func (g *Gateway) runIdleTicker(ctx context.Context) {
	defer close(g.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.mu.Lock()
			idleFor := time.Since(g.lastActivity)
			if g.dek != nil && idleFor >= g.idleTimeout {
				_ = g.lockLocked(context.Background())
				g.mu.Unlock()
				return
			}
			g.mu.Unlock()
		}
	}
}

// Wait blocks until the idle ticker goroutine has exited, for tests and
// clean shutdown.
func (g *Gateway) Wait() {
	g.mu.Lock()
	done := g.done
	g.mu.Unlock()
	if done != nil {
		<-done
	}
}
