package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/vaultcli/internal/audit"
	"github.com/allisson/vaultcli/internal/metrics"
	"github.com/allisson/vaultcli/internal/vault/domain"
)

// vaultUseCaseWithMetrics decorates VaultUseCase with BusinessMetrics
// instrumentation: wrap, time, record, return.
type vaultUseCaseWithMetrics struct {
	next    VaultUseCase
	metrics metrics.BusinessMetrics
}

// NewVaultUseCaseWithMetrics wraps useCase with metrics recording under the
// "vault" domain.
func NewVaultUseCaseWithMetrics(useCase VaultUseCase, m metrics.BusinessMetrics) VaultUseCase {
	return &vaultUseCaseWithMetrics{next: useCase, metrics: m}
}

func (v *vaultUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	v.metrics.RecordOperation(ctx, "vault", operation, status)
	v.metrics.RecordDuration(ctx, "vault", operation, time.Since(start), status)
}

func (v *vaultUseCaseWithMetrics) Init(ctx context.Context, passphrase []byte) error {
	start := time.Now()
	err := v.next.Init(ctx, passphrase)
	v.record(ctx, "init", start, err)
	return err
}

func (v *vaultUseCaseWithMetrics) Unlock(ctx context.Context, passphrase []byte) (UnlockResult, error) {
	start := time.Now()
	res, err := v.next.Unlock(ctx, passphrase)
	v.record(ctx, "unlock", start, err)
	return res, err
}

func (v *vaultUseCaseWithMetrics) ChangePassphrase(ctx context.Context, oldPassphrase, newPassphrase []byte) error {
	start := time.Now()
	err := v.next.ChangePassphrase(ctx, oldPassphrase, newPassphrase)
	v.record(ctx, "change_passphrase", start, err)
	return err
}

func (v *vaultUseCaseWithMetrics) VerifyAuditChain(ctx context.Context, dek []byte, dekID uuid.UUID) (audit.Report, error) {
	start := time.Now()
	report, err := v.next.VerifyAuditChain(ctx, dek, dekID)
	v.record(ctx, "verify_audit_chain", start, err)
	return report, err
}

func (v *vaultUseCaseWithMetrics) RecordLock(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool) error {
	start := time.Now()
	err := v.next.RecordLock(ctx, dek, dekID, tainted)
	v.record(ctx, "record_lock", start, err)
	return err
}

func (v *vaultUseCaseWithMetrics) CreateProject(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, name string) (domain.Project, error) {
	start := time.Now()
	p, err := v.next.CreateProject(ctx, dek, dekID, tainted, name)
	v.record(ctx, "project_create", start, err)
	return p, err
}

func (v *vaultUseCaseWithMetrics) ListProjects(ctx context.Context) ([]domain.Project, error) {
	start := time.Now()
	projects, err := v.next.ListProjects(ctx)
	v.record(ctx, "project_list", start, err)
	return projects, err
}

func (v *vaultUseCaseWithMetrics) DeleteProject(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID) error {
	start := time.Now()
	err := v.next.DeleteProject(ctx, dek, dekID, tainted, id)
	v.record(ctx, "project_delete", start, err)
	return err
}

func (v *vaultUseCaseWithMetrics) CreateCredential(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, in CredentialInput) (domain.Credential, error) {
	start := time.Now()
	c, err := v.next.CreateCredential(ctx, dek, dekID, tainted, in)
	v.record(ctx, "credential_create", start, err)
	return c, err
}

func (v *vaultUseCaseWithMetrics) GetCredential(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID) (domain.DecryptedCredential, error) {
	start := time.Now()
	c, err := v.next.GetCredential(ctx, dek, dekID, tainted, id)
	v.record(ctx, "credential_get", start, err)
	return c, err
}

func (v *vaultUseCaseWithMetrics) UpdateCredential(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID, in CredentialInput) (domain.Credential, error) {
	start := time.Now()
	c, err := v.next.UpdateCredential(ctx, dek, dekID, tainted, id, in)
	v.record(ctx, "credential_update", start, err)
	return c, err
}

func (v *vaultUseCaseWithMetrics) DeleteCredential(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID) error {
	start := time.Now()
	err := v.next.DeleteCredential(ctx, dek, dekID, tainted, id)
	v.record(ctx, "credential_delete", start, err)
	return err
}

func (v *vaultUseCaseWithMetrics) ListCredentials(ctx context.Context, filter domain.CredentialFilter) ([]domain.Credential, error) {
	start := time.Now()
	credentials, err := v.next.ListCredentials(ctx, filter)
	v.record(ctx, "credential_list", start, err)
	return credentials, err
}

func (v *vaultUseCaseWithMetrics) RecordCredentialCopied(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID) error {
	start := time.Now()
	err := v.next.RecordCredentialCopied(ctx, dek, dekID, tainted, id)
	v.record(ctx, "credential_copied", start, err)
	return err
}

func (v *vaultUseCaseWithMetrics) SetTags(ctx context.Context, id uuid.UUID, tags []string) error {
	start := time.Now()
	err := v.next.SetTags(ctx, id, tags)
	v.record(ctx, "tags_set", start, err)
	return err
}

func (v *vaultUseCaseWithMetrics) ListTags(ctx context.Context, id uuid.UUID) ([]string, error) {
	start := time.Now()
	tags, err := v.next.ListTags(ctx, id)
	v.record(ctx, "tags_list", start, err)
	return tags, err
}
