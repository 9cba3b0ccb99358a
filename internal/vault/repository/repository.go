// Package repository implements the vault's storage layer: the SQLite-backed vault
// header, project, credential, and tag tables, plus FTS5 search-index
// maintenance. It is the only package permitted to touch the database file
// directly.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/vaultcli/internal/database"
	"github.com/allisson/vaultcli/internal/errors"
	"github.com/allisson/vaultcli/internal/vault/domain"
)

// Repository is the store's persistence contract. The usecase layer composes these
// calls inside a single transaction per the transactional-discipline rule:
// schema mutation, FTS update, and audit append commit together or not at
// all.
type Repository interface {
	GetHeader(ctx context.Context) (domain.VaultHeader, error)
	CreateHeader(ctx context.Context, h domain.VaultHeader) error
	UpdateHeaderWrap(ctx context.Context, wrapNonce, wrappedDek []byte, kdfPhc string) error
	TouchLastUnlocked(ctx context.Context, at time.Time) error
	UpdateLastSeq(ctx context.Context, seq int64) error

	CreateProject(ctx context.Context, p domain.Project) error
	GetProjectByName(ctx context.Context, name string) (domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error

	CreateCredential(ctx context.Context, c domain.Credential) error
	GetCredential(ctx context.Context, id uuid.UUID) (domain.Credential, error)
	UpdateCredential(ctx context.Context, c domain.Credential) error
	DeleteCredential(ctx context.Context, id uuid.UUID) error
	ListCredentials(ctx context.Context, filter domain.CredentialFilter) ([]domain.Credential, error)

	SetTags(ctx context.Context, credentialID uuid.UUID, tags []string) error
	ListTags(ctx context.Context, credentialID uuid.UUID) ([]string, error)

	IndexCredential(ctx context.Context, c domain.Credential, projectName string, tags []string) error
	DeindexCredential(ctx context.Context, credentialID uuid.UUID) error
}

// SQLiteRepository is the production Repository.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository builds a Repository over db.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) q(ctx context.Context) database.Querier {
	return database.GetTx(ctx, r.db)
}

func wrapStorage(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(errors.ErrStorage, err.Error())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
