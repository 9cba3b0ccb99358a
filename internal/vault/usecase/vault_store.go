// Package usecase implements the vault store's orchestration: the key-hierarchy
// init/unlock/change-passphrase flows and the transactional CRUD operations
// layered on top of internal/vault/repository and internal/audit.
package usecase

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/vaultcli/internal/audit"
	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultcli/internal/crypto/service"
	"github.com/allisson/vaultcli/internal/database"
	"github.com/allisson/vaultcli/internal/errors"
	"github.com/allisson/vaultcli/internal/vault/domain"
	"github.com/allisson/vaultcli/internal/vault/record"
	"github.com/allisson/vaultcli/internal/vault/repository"
)

// UnlockResult carries what a successful (or tainted) unlock hands back to
// the session gateway: the live DEK, its generation id, and whether audit
// verification found tampering.
type UnlockResult struct {
	Dek     []byte
	DekID   uuid.UUID
	Tainted bool
	Report  audit.Report
}

// VaultStore is the only component permitted to touch the database file.
// It owns schema CRUD, the key-hierarchy wrap/unwrap operations, and the
// transactional discipline binding every mutation to its audit entry.
type VaultStore struct {
	repo        repository.Repository
	auditUC     *audit.UseCase
	txManager   database.TxManager
	aeadManager cryptoService.AEADManager
	kdf         cryptoService.Kdf
	cipher      *record.Cipher
	algorithm   cryptoDomain.Algorithm
	kdfParams   cryptoDomain.KdfParams
}

// New builds a VaultStore from its collaborators.
func New(
	repo repository.Repository,
	auditUC *audit.UseCase,
	txManager database.TxManager,
	aeadManager cryptoService.AEADManager,
	kdf cryptoService.Kdf,
	algorithm cryptoDomain.Algorithm,
	kdfParams cryptoDomain.KdfParams,
) *VaultStore {
	return &VaultStore{
		repo:        repo,
		auditUC:     auditUC,
		txManager:   txManager,
		aeadManager: aeadManager,
		kdf:         kdf,
		cipher:      record.NewCipher(aeadManager, algorithm),
		algorithm:   algorithm,
		kdfParams:   kdfParams,
	}
}

// minPassphraseLength bounds newly chosen passphrases. Length is the only
// requirement: the Argon2id cost, not character classes, is what buys
// resistance against offline guessing.
const minPassphraseLength = 8

// Init creates the vault header: a fresh DEK wrapped under a
// passphrase-derived Master Key, a fresh audit HMAC seed wrapped under the
// DEK, and the opening VaultCreated audit entry, all in one transaction.
func (s *VaultStore) Init(ctx context.Context, passphrase []byte) error {
	if len(passphrase) < minPassphraseLength {
		return errors.Wrap(errors.ErrInvalidInput, "passphrase must be at least 8 characters")
	}
	if _, err := s.repo.GetHeader(ctx); err == nil {
		return domain.ErrVaultAlreadyExists
	}

	dek := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(dek); err != nil {
		return errors.Wrap(errors.ErrOsResource, "generate dek")
	}
	defer cryptoDomain.Zero(dek)

	dekID := cryptoDomain.NewDekID()

	salt, err := s.kdf.NewSalt(s.kdfParams.SaltSize)
	if err != nil {
		return errors.Wrap(errors.ErrOsResource, "generate salt")
	}
	masterKey := s.kdf.Derive(passphrase, salt, s.kdfParams)
	defer cryptoDomain.Zero(masterKey.Key)

	masterCipher, err := s.aeadManager.CreateCipher(masterKey.Key, s.algorithm)
	if err != nil {
		return err
	}
	wrappedDek, wrapNonce, err := masterCipher.Encrypt(dek, cryptoDomain.WrappedDekAAD(dekID))
	if err != nil {
		return err
	}

	auditSeed := make([]byte, 32)
	if _, err := rand.Read(auditSeed); err != nil {
		return errors.Wrap(errors.ErrOsResource, "generate audit seed")
	}
	defer cryptoDomain.Zero(auditSeed)

	dekCipher, err := s.aeadManager.CreateCipher(dek, s.algorithm)
	if err != nil {
		return err
	}
	wrappedSeed, seedNonce, err := dekCipher.Encrypt(auditSeed, cryptoDomain.WrappedAuditSeedAAD(dekID))
	if err != nil {
		return err
	}

	phc := cryptoService.EncodePHC(s.kdfParams, salt)
	now := time.Now().UTC()

	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		header := domain.VaultHeader{
			SchemaVersion:    1,
			KdfPhc:           phc,
			WrapNonce:        wrapNonce,
			WrappedDek:       wrappedDek,
			DekID:            dekID,
			WrappedAuditSeed: wrappedSeed,
			SeedNonce:        seedNonce,
			LastSeq:          0,
			CreatedAt:        now,
		}
		if err := s.repo.CreateHeader(ctx, header); err != nil {
			return err
		}
		entry, err := s.auditUC.Append(ctx, auditSeed, audit.ActionVaultCreated, audit.TargetKindVault, "", audit.OutcomeSuccess)
		if err != nil {
			return err
		}
		return s.repo.UpdateLastSeq(ctx, entry.Seq)
	})
}

// Unlock derives the Master Key from passphrase, opens the wrapped DEK and
// audit seed, and verifies the audit chain end to end. A wrong passphrase
// and a tampered wrapped-DEK produce the same BadPassphrase outcome; chain
// tampering does not block access, it marks the result Tainted per the
// design's "must still reach credentials to rotate them" rationale.
func (s *VaultStore) Unlock(ctx context.Context, passphrase []byte) (UnlockResult, error) {
	header, err := s.repo.GetHeader(ctx)
	if err != nil {
		return UnlockResult{}, err
	}

	params, salt, err := cryptoService.DecodePHC(header.KdfPhc)
	if err != nil {
		return UnlockResult{}, err
	}

	masterKey := s.kdf.Derive(passphrase, salt, params)
	defer cryptoDomain.Zero(masterKey.Key)

	masterCipher, err := s.aeadManager.CreateCipher(masterKey.Key, s.algorithm)
	if err != nil {
		return UnlockResult{}, err
	}
	dek, err := masterCipher.Decrypt(header.WrappedDek, header.WrapNonce, cryptoDomain.WrappedDekAAD(header.DekID))
	if err != nil {
		return UnlockResult{}, cryptoDomain.ErrBadPassphrase
	}

	dekCipher, err := s.aeadManager.CreateCipher(dek, s.algorithm)
	if err != nil {
		cryptoDomain.Zero(dek)
		return UnlockResult{}, err
	}
	auditSeed, err := dekCipher.Decrypt(header.WrappedAuditSeed, header.SeedNonce, cryptoDomain.WrappedAuditSeedAAD(header.DekID))
	if err != nil {
		cryptoDomain.Zero(dek)
		return UnlockResult{}, cryptoDomain.ErrBadPassphrase
	}
	defer cryptoDomain.Zero(auditSeed)

	report, err := s.auditUC.VerifyChain(ctx, auditSeed)
	if err != nil {
		cryptoDomain.Zero(dek)
		return UnlockResult{}, err
	}
	report = checkTruncation(report, header.LastSeq)

	now := time.Now().UTC()
	result := UnlockResult{Dek: dek, DekID: header.DekID, Tainted: !report.Verified, Report: report}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.TouchLastUnlocked(ctx, now); err != nil {
			return err
		}
		outcome := audit.OutcomeSuccess
		if result.Tainted {
			outcome = audit.OutcomeTainted
		}
		entry, err := s.auditUC.Append(ctx, auditSeed, audit.ActionVaultUnlocked, audit.TargetKindVault, "", outcome)
		if err != nil {
			return err
		}
		return s.repo.UpdateLastSeq(ctx, entry.Seq)
	})
	if err != nil {
		cryptoDomain.Zero(dek)
		return UnlockResult{}, err
	}

	return result, nil
}

// ChangePassphrase verifies old by a full unlock, then re-wraps the same DEK
// under a freshly derived Master Key for new inside one transaction. The DEK
// bytes never change, so no record ciphertext is rewritten.
func (s *VaultStore) ChangePassphrase(ctx context.Context, oldPassphrase, newPassphrase []byte) error {
	if len(newPassphrase) < minPassphraseLength {
		return errors.Wrap(errors.ErrInvalidInput, "passphrase must be at least 8 characters")
	}
	unlocked, err := s.Unlock(ctx, oldPassphrase)
	if err != nil {
		return err
	}
	dek := unlocked.Dek
	defer cryptoDomain.Zero(dek)

	salt, err := s.kdf.NewSalt(s.kdfParams.SaltSize)
	if err != nil {
		return errors.Wrap(errors.ErrOsResource, "generate salt")
	}
	newMasterKey := s.kdf.Derive(newPassphrase, salt, s.kdfParams)
	defer cryptoDomain.Zero(newMasterKey.Key)

	masterCipher, err := s.aeadManager.CreateCipher(newMasterKey.Key, s.algorithm)
	if err != nil {
		return err
	}
	wrappedDek, wrapNonce, err := masterCipher.Encrypt(dek, cryptoDomain.WrappedDekAAD(unlocked.DekID))
	if err != nil {
		return err
	}

	phc := cryptoService.EncodePHC(s.kdfParams, salt)

	header, err := s.repo.GetHeader(ctx)
	if err != nil {
		return err
	}
	dekCipher, err := s.aeadManager.CreateCipher(dek, s.algorithm)
	if err != nil {
		return err
	}
	auditSeed, err := dekCipher.Decrypt(header.WrappedAuditSeed, header.SeedNonce, cryptoDomain.WrappedAuditSeedAAD(header.DekID))
	if err != nil {
		return cryptoDomain.ErrDecryptionFailed
	}
	defer cryptoDomain.Zero(auditSeed)

	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateHeaderWrap(ctx, wrapNonce, wrappedDek, phc); err != nil {
			return err
		}
		entry, err := s.auditUC.Append(ctx, auditSeed, audit.ActionPassphraseChanged, audit.TargetKindVault, "", outcomeFor(unlocked.Tainted, audit.OutcomeSuccess))
		if err != nil {
			return err
		}
		return s.repo.UpdateLastSeq(ctx, entry.Seq)
	})
}

// VerifyAuditChain recomputes the chain using the DEK-unwrapped seed. The
// caller supplies dek from an already-unlocked session; VaultStore never
// caches it.
func (s *VaultStore) VerifyAuditChain(ctx context.Context, dek []byte, dekID uuid.UUID) (audit.Report, error) {
	header, err := s.repo.GetHeader(ctx)
	if err != nil {
		return audit.Report{}, err
	}
	dekCipher, err := s.aeadManager.CreateCipher(dek, s.algorithm)
	if err != nil {
		return audit.Report{}, err
	}
	seed, err := dekCipher.Decrypt(header.WrappedAuditSeed, header.SeedNonce, cryptoDomain.WrappedAuditSeedAAD(dekID))
	if err != nil {
		return audit.Report{}, cryptoDomain.ErrDecryptionFailed
	}
	defer cryptoDomain.Zero(seed)

	report, err := s.auditUC.VerifyChain(ctx, seed)
	if err != nil {
		return audit.Report{}, err
	}
	report = checkTruncation(report, header.LastSeq)

	action := audit.ActionAuditVerified
	outcome := audit.OutcomeSuccess
	if !report.Verified {
		action = audit.ActionAuditTampered
		outcome = audit.OutcomeTainted
	}
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		entry, err := s.auditUC.Append(ctx, seed, action, audit.TargetKindVault, "", outcome)
		if err != nil {
			return err
		}
		return s.repo.UpdateLastSeq(ctx, entry.Seq)
	})
	return report, err
}

// checkTruncation flags a chain whose entries all verify but whose tail has
// been deleted: the header remembers the last appended seq, so a verified
// chain shorter than that means entries were removed from the end, which the
// HMAC links alone cannot detect.
func checkTruncation(report audit.Report, lastSeq int64) audit.Report {
	if report.Verified && lastSeq > report.TotalEntries {
		firstMissing := report.TotalEntries + 1
		report.Verified = false
		report.FirstBadSeq = &firstMissing
		report.Tainted = true
	}
	return report
}
