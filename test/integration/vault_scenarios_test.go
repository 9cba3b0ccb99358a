package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
	vaultDomain "github.com/allisson/vaultcli/internal/vault/domain"
	vaultUsecase "github.com/allisson/vaultcli/internal/vault/usecase"
)

// TestScenario_S1_InitAndUnlock covers the design's S1: create a vault,
// close it, and confirm only the correct passphrase reopens it.
func TestScenario_S1_InitAndUnlock(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t, time.Hour)

	require.NoError(t, vault.gateway.Init(ctx, []byte("correct horse battery staple")))

	tainted, err := vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)
	assert.False(t, tainted)
	require.NoError(t, vault.gateway.Lock(ctx))

	tainted, err = vault.gateway.Unlock(ctx, []byte("wrong"))
	assert.ErrorIs(t, err, cryptoDomain.ErrBadPassphrase)
	assert.False(t, tainted)
	assert.True(t, vault.gateway.Locked())
}

// TestScenario_S2_CreateAndRead covers the design's S2: a credential's
// fields round-trip through encryption, and the audit chain records the
// expected sequence of actions.
func TestScenario_S2_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t, time.Hour)

	require.NoError(t, vault.gateway.Init(ctx, []byte("correct horse battery staple")))
	_, err := vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)

	created, err := vault.gateway.CreateCredential(ctx, vaultUsecase.CredentialInput{
		Title:    "GitHub",
		Username: "alice",
		Password: "hunter2",
		URL:      "https://github.com",
	})
	require.NoError(t, err)

	require.NoError(t, vault.gateway.Lock(ctx))
	_, err = vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)

	fetched, err := vault.gateway.GetCredential(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "GitHub", fetched.Title)
	assert.Equal(t, "alice", fetched.Username)
	assert.Equal(t, "hunter2", fetched.Password)
	assert.Equal(t, "https://github.com", fetched.URL)
	assert.Empty(t, fetched.Notes)
	assert.Empty(t, fetched.TOTPSeed)

	report, err := vault.gateway.VerifyAuditChain(ctx)
	require.NoError(t, err)
	assert.True(t, report.Verified)

	// The close/reopen between create and read contributes a VaultLocked
	// entry (written at lock time, while the DEK-derived seed is still
	// live); VerifyAuditChain itself appends the trailing AuditVerified
	// entry.
	actions := auditActions(t, vault)
	assert.Equal(t, []string{
		"VaultCreated", "VaultUnlocked", "CredentialCreated", "VaultLocked", "VaultUnlocked", "CredentialRead", "AuditVerified",
	}, actions)
}

// TestCredentialUpdate_BlankFieldsKeepStoredValues covers the update
// contract: changing one field must leave every field the caller did not
// touch decryptable and unchanged, at its original field version.
func TestCredentialUpdate_BlankFieldsKeepStoredValues(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t, time.Hour)

	require.NoError(t, vault.gateway.Init(ctx, []byte("correct horse battery staple")))
	_, err := vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)

	created, err := vault.gateway.CreateCredential(ctx, vaultUsecase.CredentialInput{
		Title:    "GitHub",
		Username: "alice",
		Password: "hunter2",
		URL:      "https://github.com",
		Notes:    "work account",
		TOTPSeed: "JBSWY3DPEHPK3PXP",
		Tags:     []string{"work"},
	})
	require.NoError(t, err)

	// Change only the password; every other field and the tag set stay
	// blank/nil, meaning "keep what is stored".
	updated, err := vault.gateway.UpdateCredential(ctx, created.ID, vaultUsecase.CredentialInput{
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, created.Version+1, updated.Version)

	fetched, err := vault.gateway.GetCredential(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "GitHub", fetched.Title)
	assert.Equal(t, "alice", fetched.Username)
	assert.Equal(t, "correct-horse", fetched.Password)
	assert.Equal(t, "https://github.com", fetched.URL)
	assert.Equal(t, "work account", fetched.Notes)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", fetched.TOTPSeed)
	assert.Equal(t, []string{"work"}, fetched.Tags)
}

// TestCredentialUpdate_ClearFlagsEraseFields covers the other half of the
// update contract: erasing a field takes an explicit clear, never a blank.
func TestCredentialUpdate_ClearFlagsEraseFields(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t, time.Hour)

	require.NoError(t, vault.gateway.Init(ctx, []byte("correct horse battery staple")))
	_, err := vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)

	created, err := vault.gateway.CreateCredential(ctx, vaultUsecase.CredentialInput{
		Title:    "GitHub",
		Username: "alice",
		Password: "hunter2",
		Notes:    "work account",
		Tags:     []string{"work", "dev"},
	})
	require.NoError(t, err)

	_, err = vault.gateway.UpdateCredential(ctx, created.ID, vaultUsecase.CredentialInput{
		ClearNotes: true,
		Tags:       []string{},
	})
	require.NoError(t, err)

	fetched, err := vault.gateway.GetCredential(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", fetched.Username, "untouched field must survive the clear of another")
	assert.Equal(t, "hunter2", fetched.Password)
	assert.Empty(t, fetched.Notes)
	assert.Empty(t, fetched.Tags)

	db := rawDB(t, vault)
	var notesCt []byte
	require.NoError(t, db.QueryRow(`SELECT notes_ct FROM credentials WHERE id = ?`, created.ID.String()).Scan(&notesCt))
	assert.Nil(t, notesCt, "cleared field's ciphertext must be gone from storage")
}

// TestScenario_S3_PassphraseChange covers the design's S3: rotating the
// passphrase re-wraps the same DEK, leaves every field decryptable, and
// rejects the old passphrase afterward.
func TestScenario_S3_PassphraseChange(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t, time.Hour)

	require.NoError(t, vault.gateway.Init(ctx, []byte("correct horse battery staple")))
	_, err := vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)

	created, err := vault.gateway.CreateCredential(ctx, vaultUsecase.CredentialInput{
		Title:    "GitHub",
		Username: "alice",
		Password: "hunter2",
		URL:      "https://github.com",
	})
	require.NoError(t, err)

	db := rawDB(t, vault)
	var dekIDBefore string
	var wrappedDekBefore []byte
	require.NoError(t, db.QueryRow(`SELECT dek_id, wrapped_dek FROM vault_header WHERE id = 1`).Scan(&dekIDBefore, &wrappedDekBefore))

	require.NoError(t, vault.gateway.ChangePassphrase(ctx, []byte("correct horse battery staple"), []byte("tr0ub4dor")))
	require.NoError(t, vault.gateway.Lock(ctx))

	_, err = vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	assert.ErrorIs(t, err, cryptoDomain.ErrBadPassphrase)

	tainted, err := vault.gateway.Unlock(ctx, []byte("tr0ub4dor"))
	require.NoError(t, err)
	assert.False(t, tainted)

	fetched, err := vault.gateway.GetCredential(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", fetched.Username)
	assert.Equal(t, "hunter2", fetched.Password)

	var dekIDAfter string
	var wrappedDekAfter []byte
	require.NoError(t, db.QueryRow(`SELECT dek_id, wrapped_dek FROM vault_header WHERE id = 1`).Scan(&dekIDAfter, &wrappedDekAfter))
	assert.Equal(t, dekIDBefore, dekIDAfter, "dek_id must not change on passphrase rotation")
	assert.NotEqual(t, wrappedDekBefore, wrappedDekAfter, "wrapped_dek bytes must change on passphrase rotation")
}

// TestScenario_S4_TamperDetection covers the design's S4: flipping a byte of
// a persisted audit entry_hmac is caught on the next verification, naming
// the first affected seq.
func TestScenario_S4_TamperDetection(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t, time.Hour)

	require.NoError(t, vault.gateway.Init(ctx, []byte("correct horse battery staple")))
	_, err := vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)

	_, err = vault.gateway.CreateCredential(ctx, vaultUsecase.CredentialInput{Title: "GitHub", Password: "hunter2"})
	require.NoError(t, err)
	require.NoError(t, vault.gateway.Lock(ctx))

	db := rawDB(t, vault)
	var entryHmac []byte
	require.NoError(t, db.QueryRow(`SELECT entry_hmac FROM audit WHERE seq = 3`).Scan(&entryHmac))
	entryHmac[0] ^= 0xFF
	_, err = db.Exec(`UPDATE audit SET entry_hmac = ? WHERE seq = 3`, entryHmac)
	require.NoError(t, err)

	tainted, err := vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err, "tampering must not block unlock")
	assert.True(t, tainted)
	assert.True(t, vault.gateway.Tainted())

	// Every audit entry written while the session remains tainted
	// records outcome=tainted, regardless of whether the mutation itself
	// succeeds. Confirm both a mutation and a read are marked this way.
	created, err := vault.gateway.CreateCredential(ctx, vaultUsecase.CredentialInput{Title: "GitLab", Password: "placeholder"})
	require.NoError(t, err)
	_, err = vault.gateway.GetCredential(ctx, created.ID)
	require.NoError(t, err)

	db = rawDB(t, vault)
	rows, err := db.Query(`SELECT outcome FROM audit WHERE action IN ('CredentialCreated', 'CredentialRead') ORDER BY seq DESC LIMIT 2`)
	require.NoError(t, err)
	defer rows.Close()
	var outcomes []string
	for rows.Next() {
		var o string
		require.NoError(t, rows.Scan(&o))
		outcomes = append(outcomes, o)
	}
	require.NoError(t, rows.Err())
	require.Len(t, outcomes, 2)
	assert.Equal(t, []string{"tainted", "tainted"}, outcomes)
}

// TestScenario_TailTruncation covers the truncation half of tamper
// detection: deleting the newest audit rows leaves a chain whose HMAC links
// all still verify, so detection relies on the last-known seq remembered in
// the vault header.
func TestScenario_TailTruncation(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t, time.Hour)

	require.NoError(t, vault.gateway.Init(ctx, []byte("correct horse battery staple")))
	_, err := vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)

	_, err = vault.gateway.CreateCredential(ctx, vaultUsecase.CredentialInput{Title: "GitHub", Password: "hunter2"})
	require.NoError(t, err)
	require.NoError(t, vault.gateway.Lock(ctx))

	// Drop the two newest entries (CredentialCreated, VaultLocked). Every
	// surviving link still verifies; only last_seq in the header knows.
	db := rawDB(t, vault)
	var maxSeq int64
	require.NoError(t, db.QueryRow(`SELECT MAX(seq) FROM audit`).Scan(&maxSeq))
	_, err = db.Exec(`DELETE FROM audit WHERE seq > ?`, maxSeq-2)
	require.NoError(t, err)

	tainted, err := vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err, "truncation must not block unlock")
	assert.True(t, tainted)
	assert.True(t, vault.gateway.Tainted())
}

// TestScenario_S5_AADSwap covers the design's S5: copying a ciphertext blob
// from one credential into another fails integrity verification on read,
// because the AAD binds a blob to its own credential id.
func TestScenario_S5_AADSwap(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t, time.Hour)

	require.NoError(t, vault.gateway.Init(ctx, []byte("correct horse battery staple")))
	_, err := vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)

	github, err := vault.gateway.CreateCredential(ctx, vaultUsecase.CredentialInput{Title: "GitHub", Password: "hunter2"})
	require.NoError(t, err)
	gitlab, err := vault.gateway.CreateCredential(ctx, vaultUsecase.CredentialInput{Title: "GitLab", Password: "placeholder"})
	require.NoError(t, err)

	db := rawDB(t, vault)
	var githubPasswordCt []byte
	require.NoError(t, db.QueryRow(`SELECT password_ct FROM credentials WHERE id = ?`, github.ID.String()).Scan(&githubPasswordCt))
	_, err = db.Exec(`UPDATE credentials SET password_ct = ? WHERE id = ?`, githubPasswordCt, gitlab.ID.String())
	require.NoError(t, err)

	_, err = vault.gateway.GetCredential(ctx, gitlab.ID)
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
}

// TestScenario_S6_AutoLock covers the design's S6: after the idle timeout
// elapses with no gateway activity, the session transitions to locked and
// the held DEK buffer is released.
func TestScenario_S6_AutoLock(t *testing.T) {
	ctx := context.Background()
	vault := newTestVault(t, 1*time.Second)

	require.NoError(t, vault.gateway.Init(ctx, []byte("correct horse battery staple")))
	_, err := vault.gateway.Unlock(ctx, []byte("correct horse battery staple"))
	require.NoError(t, err)

	vault.gateway.Wait()
	assert.True(t, vault.gateway.Locked())

	_, err = vault.gateway.ListProjects(ctx)
	assert.ErrorIs(t, err, vaultDomain.ErrSessionLocked)
}

// auditActions returns every persisted audit entry's Action in seq order.
func auditActions(t *testing.T, vault *testVault) []string {
	t.Helper()
	db := rawDB(t, vault)
	rows, err := db.Query(`SELECT action FROM audit ORDER BY seq ASC`)
	require.NoError(t, err)
	defer rows.Close()

	var actions []string
	for rows.Next() {
		var a string
		require.NoError(t, rows.Scan(&a))
		actions = append(actions, a)
	}
	require.NoError(t, rows.Err())
	return actions
}

// rawDB returns the test vault's underlying database handle for test-only
// fixture mutation (simulating external tampering or AAD swaps). Production
// callers never reach around the gateway like this.
func rawDB(t *testing.T, vault *testVault) *sql.DB {
	t.Helper()
	return vault.db
}
