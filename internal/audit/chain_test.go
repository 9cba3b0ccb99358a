package audit

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeed(t *testing.T) []byte {
	t.Helper()
	seed := make([]byte, 32)
	_, err := rand.Read(seed)
	require.NoError(t, err)
	return seed
}

func TestSealAndVerify(t *testing.T) {
	seed := testSeed(t)
	e := NewEntry(time.Now().UTC(), ActionVaultCreated, TargetKindVault, "", OutcomeSuccess)

	sealed := Seal(seed, nil, e)
	assert.Len(t, sealed.EntryHmac, 32)
	assert.Equal(t, zeroHmac, sealed.PrevHmac)
	assert.True(t, Verify(seed, sealed))
}

func TestVerify_WrongSeedFails(t *testing.T) {
	seed := testSeed(t)
	other := testSeed(t)
	e := NewEntry(time.Now().UTC(), ActionVaultCreated, TargetKindVault, "", OutcomeSuccess)

	sealed := Seal(seed, nil, e)
	assert.False(t, Verify(other, sealed))
}

func TestVerifyChain_Continuity(t *testing.T) {
	seed := testSeed(t)

	var entries []Entry
	var prevHmac []byte
	actions := []Action{ActionVaultCreated, ActionVaultUnlocked, ActionCredentialCreated, ActionCredentialRead}
	for i, action := range actions {
		e := NewEntry(time.Now().UTC(), action, TargetKindVault, "", OutcomeSuccess)
		e.Seq = int64(i + 1)
		sealed := Seal(seed, prevHmac, e)
		entries = append(entries, sealed)
		prevHmac = sealed.EntryHmac
	}

	report := VerifyChain(seed, entries)
	assert.True(t, report.Verified)
	assert.Nil(t, report.FirstBadSeq)
	assert.Equal(t, int64(len(actions)), report.TotalEntries)
	assert.False(t, report.Tainted)
}

func TestVerifyChain_DetectsTamperedEntry(t *testing.T) {
	seed := testSeed(t)

	var entries []Entry
	var prevHmac []byte
	for i, action := range []Action{ActionVaultCreated, ActionVaultUnlocked, ActionCredentialCreated} {
		e := NewEntry(time.Now().UTC(), action, TargetKindVault, "", OutcomeSuccess)
		e.Seq = int64(i + 1)
		sealed := Seal(seed, prevHmac, e)
		entries = append(entries, sealed)
		prevHmac = sealed.EntryHmac
	}

	// Flip a bit in the second entry's stored HMAC, simulating an externally
	// tampered row.
	entries[1].EntryHmac[0] ^= 0xFF

	report := VerifyChain(seed, entries)
	assert.False(t, report.Verified)
	require.NotNil(t, report.FirstBadSeq)
	assert.Equal(t, int64(2), *report.FirstBadSeq)
	assert.True(t, report.Tainted)
}

func TestVerifyChain_DetectsDeletedEntry(t *testing.T) {
	seed := testSeed(t)

	var entries []Entry
	var prevHmac []byte
	for i, action := range []Action{ActionVaultCreated, ActionVaultUnlocked, ActionCredentialCreated} {
		e := NewEntry(time.Now().UTC(), action, TargetKindVault, "", OutcomeSuccess)
		e.Seq = int64(i + 1)
		sealed := Seal(seed, prevHmac, e)
		entries = append(entries, sealed)
		prevHmac = sealed.EntryHmac
	}

	// Simulate deletion of the middle row: seq 3 now directly follows seq 1
	// in the returned set, but its PrevHmac still points at the deleted
	// entry's hash.
	spliced := []Entry{entries[0], entries[2]}

	report := VerifyChain(seed, spliced)
	assert.False(t, report.Verified)
	require.NotNil(t, report.FirstBadSeq)
	assert.Equal(t, entries[2].Seq, *report.FirstBadSeq)
}

func TestVerifyChain_Empty(t *testing.T) {
	seed := testSeed(t)
	report := VerifyChain(seed, nil)
	assert.True(t, report.Verified)
	assert.Equal(t, int64(0), report.TotalEntries)
}

func TestCanonicalize_DifferentFieldsProduceDifferentBytes(t *testing.T) {
	base := NewEntry(time.Now().UTC(), ActionCredentialRead, TargetKindCredential, "abc", OutcomeSuccess)
	other := base
	other.Outcome = OutcomeFailure

	assert.NotEqual(t, Canonicalize(base), Canonicalize(other))
}
