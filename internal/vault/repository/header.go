package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/vaultcli/internal/errors"
	"github.com/allisson/vaultcli/internal/vault/domain"
)

func (r *SQLiteRepository) GetHeader(ctx context.Context) (domain.VaultHeader, error) {
	row := r.q(ctx).QueryRowContext(ctx,
		`SELECT schema_version, kdf_phc, wrap_nonce, wrapped_dek, dek_id, wrapped_audit_seed,
		        seed_nonce, last_seq, created_at, last_unlocked_at
		 FROM vault_header WHERE id = 1`,
	)

	var (
		h              domain.VaultHeader
		dekID          string
		createdAt      string
		lastUnlockedAt sql.NullString
	)
	err := row.Scan(&h.SchemaVersion, &h.KdfPhc, &h.WrapNonce, &h.WrappedDek, &dekID, &h.WrappedAuditSeed,
		&h.SeedNonce, &h.LastSeq, &createdAt, &lastUnlockedAt)
	if err == sql.ErrNoRows {
		return domain.VaultHeader{}, domain.ErrVaultNotInitialized
	}
	if err != nil {
		return domain.VaultHeader{}, wrapStorage(err)
	}

	h.DekID, err = uuid.Parse(dekID)
	if err != nil {
		return domain.VaultHeader{}, errors.Wrap(errors.ErrCorrupt, "invalid dek_id")
	}
	h.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return domain.VaultHeader{}, errors.Wrap(errors.ErrCorrupt, "invalid created_at")
	}
	if lastUnlockedAt.Valid {
		t, err := parseTime(lastUnlockedAt.String)
		if err != nil {
			return domain.VaultHeader{}, errors.Wrap(errors.ErrCorrupt, "invalid last_unlocked_at")
		}
		h.LastUnlockedAt = &t
	}
	return h, nil
}

func (r *SQLiteRepository) CreateHeader(ctx context.Context, h domain.VaultHeader) error {
	_, err := r.q(ctx).ExecContext(ctx,
		`INSERT INTO vault_header (id, schema_version, kdf_phc, wrap_nonce, wrapped_dek, dek_id,
		                           wrapped_audit_seed, seed_nonce, last_seq, created_at, last_unlocked_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		h.SchemaVersion, h.KdfPhc, h.WrapNonce, h.WrappedDek, h.DekID.String(),
		h.WrappedAuditSeed, h.SeedNonce, h.LastSeq, formatTime(h.CreatedAt),
	)
	return wrapStorage(err)
}

func (r *SQLiteRepository) UpdateHeaderWrap(ctx context.Context, wrapNonce, wrappedDek []byte, kdfPhc string) error {
	_, err := r.q(ctx).ExecContext(ctx,
		`UPDATE vault_header SET wrap_nonce = ?, wrapped_dek = ?, kdf_phc = ? WHERE id = 1`,
		wrapNonce, wrappedDek, kdfPhc,
	)
	return wrapStorage(err)
}

func (r *SQLiteRepository) TouchLastUnlocked(ctx context.Context, at time.Time) error {
	_, err := r.q(ctx).ExecContext(ctx,
		`UPDATE vault_header SET last_unlocked_at = ? WHERE id = 1`, formatTime(at),
	)
	return wrapStorage(err)
}

func (r *SQLiteRepository) UpdateLastSeq(ctx context.Context, seq int64) error {
	_, err := r.q(ctx).ExecContext(ctx,
		`UPDATE vault_header SET last_seq = ? WHERE id = 1`, seq,
	)
	return wrapStorage(err)
}
