package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/vaultcli/internal/audit"
	"github.com/allisson/vaultcli/internal/vault/domain"
)

// VaultUseCase is the store's full orchestration surface. VaultStore is the only
// production implementation; the interface exists so the metrics decorator
// (and tests) can wrap or fake it without depending on VaultStore's
// concrete fields.
type VaultUseCase interface {
	Init(ctx context.Context, passphrase []byte) error
	Unlock(ctx context.Context, passphrase []byte) (UnlockResult, error)
	ChangePassphrase(ctx context.Context, oldPassphrase, newPassphrase []byte) error
	VerifyAuditChain(ctx context.Context, dek []byte, dekID uuid.UUID) (audit.Report, error)
	RecordLock(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool) error

	CreateProject(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, name string) (domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	DeleteProject(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID) error

	CreateCredential(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, in CredentialInput) (domain.Credential, error)
	GetCredential(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID) (domain.DecryptedCredential, error)
	UpdateCredential(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID, in CredentialInput) (domain.Credential, error)
	DeleteCredential(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID) error
	ListCredentials(ctx context.Context, filter domain.CredentialFilter) ([]domain.Credential, error)
	RecordCredentialCopied(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID) error

	SetTags(ctx context.Context, id uuid.UUID, tags []string) error
	ListTags(ctx context.Context, id uuid.UUID) ([]string, error)
}

var _ VaultUseCase = (*VaultStore)(nil)
