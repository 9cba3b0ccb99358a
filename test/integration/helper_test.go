// Package integration exercises the vault core end to end against a real
// SQLite file, covering the scenarios from the design's testable-properties
// section: init/unlock, create/read, passphrase rotation, tamper detection,
// AAD binding, and auto-lock.
package integration

import (
	"database/sql"
	"testing"
	"time"

	"github.com/allisson/vaultcli/internal/audit"
	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultcli/internal/crypto/service"
	"github.com/allisson/vaultcli/internal/database"
	"github.com/allisson/vaultcli/internal/session"
	"github.com/allisson/vaultcli/internal/testutil"
	vaultRepository "github.com/allisson/vaultcli/internal/vault/repository"
	vaultUsecase "github.com/allisson/vaultcli/internal/vault/usecase"
)

// fastKdfParams trades Argon2id's real cost for a suite that finishes in
// milliseconds; production vaults are created with the configured params
// (cryptoDomain.DefaultKdfParams unless overridden) and unlocked with the
// params stored in their PHC string.
var fastKdfParams = cryptoDomain.KdfParams{
	MemoryKiB:   64,
	Iterations:  1,
	Parallelism: 1,
	SaltSize:    16,
}

// testVault bundles the store, gateway, and raw database handle for a
// single test's vault file. db is exposed only so tests can simulate
// external tampering (flipping audit bytes, swapping ciphertext blobs)
// directly against the file; production code never reaches around the
// gateway like this.
type testVault struct {
	store   vaultUsecase.VaultUseCase
	gateway *session.Gateway
	db      *sql.DB
}

// newTestVault wires a VaultStore and session Gateway over a fresh, migrated
// SQLite file, exactly as the container does in production but with the
// fast KDF params above and an idle timeout the test controls.
func newTestVault(t *testing.T, idleTimeout time.Duration) *testVault {
	t.Helper()

	db := testutil.SetupSQLiteDB(t)
	txManager := database.NewTxManager(db)
	auditRepo := audit.NewSQLiteRepository(db, txManager)
	auditUC := audit.NewUseCase(auditRepo)
	vaultRepo := vaultRepository.NewSQLiteRepository(db)
	aeadManager := cryptoService.NewAEADManager()
	kdf := cryptoService.NewArgon2Kdf()

	store := vaultUsecase.New(vaultRepo, auditUC, txManager, aeadManager, kdf, cryptoDomain.ChaCha20, fastKdfParams)
	gateway := session.New(store, idleTimeout)

	return &testVault{store: store, gateway: gateway, db: db}
}
