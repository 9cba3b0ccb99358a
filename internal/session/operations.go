package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/vaultcli/internal/audit"
	"github.com/allisson/vaultcli/internal/vault/domain"
	"github.com/allisson/vaultcli/internal/vault/usecase"
)

// ChangePassphrase re-wraps the vault's DEK under a new passphrase. The
// passphrase check happens inside the store's own unlock, so this does not
// need the gateway's held DEK and works on a locked gateway too — but it
// still holds the gateway mutex for the duration, like every other
// operation, so the idle ticker and foreground calls can never interleave
// with the header re-wrap.
func (g *Gateway) ChangePassphrase(ctx context.Context, oldPassphrase, newPassphrase []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dek != nil {
		g.touch()
	}
	return g.store.ChangePassphrase(ctx, oldPassphrase, newPassphrase)
}

// VerifyAuditChain recomputes the chain using the session's live DEK.
func (g *Gateway) VerifyAuditChain(ctx context.Context) (audit.Report, error) {
	var report audit.Report
	err := g.withDek(func(dek []byte, dekID uuid.UUID, tainted bool) error {
		var err error
		report, err = g.store.VerifyAuditChain(ctx, dek, dekID)
		return err
	})
	return report, err
}

func (g *Gateway) CreateProject(ctx context.Context, name string) (domain.Project, error) {
	var p domain.Project
	err := g.withDek(func(dek []byte, dekID uuid.UUID, tainted bool) error {
		var err error
		p, err = g.store.CreateProject(ctx, dek, dekID, tainted, name)
		return err
	})
	return p, err
}

func (g *Gateway) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	err := g.withDek(func(dek []byte, dekID uuid.UUID, tainted bool) error {
		var err error
		projects, err = g.store.ListProjects(ctx)
		return err
	})
	return projects, err
}

func (g *Gateway) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return g.withDek(func(dek []byte, dekID uuid.UUID, tainted bool) error {
		return g.store.DeleteProject(ctx, dek, dekID, tainted, id)
	})
}

func (g *Gateway) CreateCredential(ctx context.Context, in usecase.CredentialInput) (domain.Credential, error) {
	var c domain.Credential
	err := g.withDek(func(dek []byte, dekID uuid.UUID, tainted bool) error {
		var err error
		c, err = g.store.CreateCredential(ctx, dek, dekID, tainted, in)
		return err
	})
	return c, err
}

func (g *Gateway) GetCredential(ctx context.Context, id uuid.UUID) (domain.DecryptedCredential, error) {
	var c domain.DecryptedCredential
	err := g.withDek(func(dek []byte, dekID uuid.UUID, tainted bool) error {
		var err error
		c, err = g.store.GetCredential(ctx, dek, dekID, tainted, id)
		return err
	})
	return c, err
}

func (g *Gateway) UpdateCredential(ctx context.Context, id uuid.UUID, in usecase.CredentialInput) (domain.Credential, error) {
	var c domain.Credential
	err := g.withDek(func(dek []byte, dekID uuid.UUID, tainted bool) error {
		var err error
		c, err = g.store.UpdateCredential(ctx, dek, dekID, tainted, id, in)
		return err
	})
	return c, err
}

func (g *Gateway) DeleteCredential(ctx context.Context, id uuid.UUID) error {
	return g.withDek(func(dek []byte, dekID uuid.UUID, tainted bool) error {
		return g.store.DeleteCredential(ctx, dek, dekID, tainted, id)
	})
}

func (g *Gateway) ListCredentials(ctx context.Context, filter domain.CredentialFilter) ([]domain.Credential, error) {
	var credentials []domain.Credential
	err := g.withDek(func(dek []byte, dekID uuid.UUID, tainted bool) error {
		var err error
		credentials, err = g.store.ListCredentials(ctx, filter)
		return err
	})
	return credentials, err
}

func (g *Gateway) RecordCredentialCopied(ctx context.Context, id uuid.UUID) error {
	return g.withDek(func(dek []byte, dekID uuid.UUID, tainted bool) error {
		return g.store.RecordCredentialCopied(ctx, dek, dekID, tainted, id)
	})
}

func (g *Gateway) SetTags(ctx context.Context, id uuid.UUID, tags []string) error {
	return g.withDek(func(dek []byte, dekID uuid.UUID, tainted bool) error {
		return g.store.SetTags(ctx, id, tags)
	})
}

func (g *Gateway) ListTags(ctx context.Context, id uuid.UUID) ([]string, error) {
	var tags []string
	err := g.withDek(func(dek []byte, dekID uuid.UUID, tainted bool) error {
		var err error
		tags, err = g.store.ListTags(ctx, id)
		return err
	})
	return tags, err
}
