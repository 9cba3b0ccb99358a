package usecase

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/vaultcli/internal/audit"
	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
	customValidation "github.com/allisson/vaultcli/internal/validation"
	"github.com/allisson/vaultcli/internal/vault/domain"
	"github.com/allisson/vaultcli/internal/vault/record"
)

// unwrapAuditSeed recovers the plaintext audit HMAC seed for this call. It is
// re-derived on every mutation rather than cached, keeping VaultStore
// stateless between gateway calls; the session above it is the only layer
// allowed to hold the DEK across calls.
func (s *VaultStore) unwrapAuditSeed(ctx context.Context, dek []byte, dekID uuid.UUID) ([]byte, error) {
	header, err := s.repo.GetHeader(ctx)
	if err != nil {
		return nil, err
	}
	dekCipher, err := s.aeadManager.CreateCipher(dek, s.algorithm)
	if err != nil {
		return nil, err
	}
	seed, err := dekCipher.Decrypt(header.WrappedAuditSeed, header.SeedNonce, cryptoDomain.WrappedAuditSeedAAD(dekID))
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return seed, nil
}

// outcomeFor reports the outcome an audit entry should record given the
// session's current taint state: every entry written while the
// session is tainted records outcome=tainted regardless of whether the
// underlying operation itself succeeded or failed, so a reader of the log
// sees the taint on every row until the vault is re-unlocked clean.
func outcomeFor(tainted bool, base audit.Outcome) audit.Outcome {
	if tainted {
		return audit.OutcomeTainted
	}
	return base
}

// CreateProject inserts a new project and appends a ProjectCreated entry.
func (s *VaultStore) CreateProject(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, name string) (domain.Project, error) {
	if err := customValidation.WrapValidationError(validation.Validate(name,
		validation.Required, customValidation.NotBlank, customValidation.NoWhitespace)); err != nil {
		return domain.Project{}, err
	}
	seed, err := s.unwrapAuditSeed(ctx, dek, dekID)
	if err != nil {
		return domain.Project{}, err
	}
	defer cryptoDomain.Zero(seed)

	p := domain.Project{ID: uuid.Must(uuid.NewV7()), Name: name, CreatedAt: time.Now().UTC()}

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateProject(ctx, p); err != nil {
			return err
		}
		entry, err := s.auditUC.Append(ctx, seed, audit.ActionProjectCreated, audit.TargetKindProject, p.ID.String(), outcomeFor(tainted, audit.OutcomeSuccess))
		if err != nil {
			return err
		}
		return s.repo.UpdateLastSeq(ctx, entry.Seq)
	})
	if err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

func (s *VaultStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *VaultStore) DeleteProject(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID) error {
	seed, err := s.unwrapAuditSeed(ctx, dek, dekID)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(seed)

	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteProject(ctx, id); err != nil {
			return err
		}
		entry, err := s.auditUC.Append(ctx, seed, audit.ActionProjectDeleted, audit.TargetKindProject, id.String(), outcomeFor(tainted, audit.OutcomeSuccess))
		if err != nil {
			return err
		}
		return s.repo.UpdateLastSeq(ctx, entry.Seq)
	})
}

// CredentialInput carries the plaintext fields a caller supplies when
// creating or updating a credential. SearchByURL opts the url_hint into the
// search index, per the "caller-supplied plaintext only" population rule.
//
// On update, a blank secret field keeps the stored ciphertext untouched; the
// corresponding Clear flag erases it. Tags follow the same contract through
// nil (keep the stored tag set) versus a non-nil slice (replace it), and
// ClearProject detaches the credential from its project.
type CredentialInput struct {
	ProjectID   *uuid.UUID
	Title       string
	Username    string
	Password    string
	URL         string
	Notes       string
	TOTPSeed    string
	Tags        []string
	URLHint     string
	SearchByURL bool

	ClearProject  bool
	ClearUsername bool
	ClearPassword bool
	ClearURL      bool
	ClearNotes    bool
	ClearTOTP     bool
}

// HintFromURL derives the opt-in plaintext search hint from a full URL: the
// bare host only, never the scheme, path, or query. Returns "" when raw does
// not parse as a URL with a host.
func HintFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return u.Hostname()
}

// Validate checks the plaintext metadata fields a caller supplies. Secret
// field values are never validated beyond encryption: any byte string is a
// legal password.
func (in CredentialInput) Validate() error {
	return customValidation.WrapValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, customValidation.NotBlank),
		validation.Field(&in.URLHint, validation.When(in.SearchByURL, customValidation.URLHint)),
		validation.Field(&in.Tags, validation.Each(customValidation.NotBlank, customValidation.NoWhitespace)),
	))
}

// CreateCredential encrypts every supplied field under a fresh per-field
// subkey and persists the row, its tags, its search-index entry, and a
// CredentialCreated audit entry in one transaction.
func (s *VaultStore) CreateCredential(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, in CredentialInput) (domain.Credential, error) {
	if err := in.Validate(); err != nil {
		return domain.Credential{}, err
	}
	seed, err := s.unwrapAuditSeed(ctx, dek, dekID)
	if err != nil {
		return domain.Credential{}, err
	}
	defer cryptoDomain.Zero(seed)

	now := time.Now().UTC()
	c := domain.Credential{
		ID:        uuid.Must(uuid.NewV7()),
		ProjectID: in.ProjectID,
		Title:     in.Title,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.SearchByURL {
		c.URLHint = in.URLHint
	}

	if err := s.sealFields(dek, dekID, &c, in, 1, false); err != nil {
		return domain.Credential{}, err
	}

	var projectName string
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateCredential(ctx, c); err != nil {
			return err
		}
		if err := s.repo.SetTags(ctx, c.ID, in.Tags); err != nil {
			return err
		}
		if c.ProjectID != nil {
			projects, err := s.repo.ListProjects(ctx)
			if err != nil {
				return err
			}
			for _, p := range projects {
				if p.ID == *c.ProjectID {
					projectName = p.Name
					break
				}
			}
		}
		if err := s.repo.IndexCredential(ctx, c, projectName, in.Tags); err != nil {
			return err
		}
		entry, err := s.auditUC.Append(ctx, seed, audit.ActionCredentialCreated, audit.TargetKindCredential, c.ID.String(), outcomeFor(tainted, audit.OutcomeSuccess))
		if err != nil {
			return err
		}
		return s.repo.UpdateLastSeq(ctx, entry.Seq)
	})
	if err != nil {
		return domain.Credential{}, err
	}
	return c, nil
}

// sealFields encrypts each non-empty field of in into c's *_ct columns at
// the given version. With keepBlank set (the update path), a blank value
// leaves c's existing blob and field version in place and only an explicit
// Clear flag nulls the column; without it (the create path), blank means the
// field is simply absent.
func (s *VaultStore) sealFields(dek []byte, dekID uuid.UUID, c *domain.Credential, in CredentialInput, version int, keepBlank bool) error {
	type fieldSpec struct {
		tag   record.FieldTag
		value string
		clear bool
		blob  *[]byte
		ver   *int
	}
	specs := []fieldSpec{
		{record.FieldUsername, in.Username, in.ClearUsername, &c.UsernameCt, &c.FieldVersions.Username},
		{record.FieldPassword, in.Password, in.ClearPassword, &c.PasswordCt, &c.FieldVersions.Password},
		{record.FieldURL, in.URL, in.ClearURL, &c.URLCt, &c.FieldVersions.URL},
		{record.FieldNotes, in.Notes, in.ClearNotes, &c.NotesCt, &c.FieldVersions.Notes},
		{record.FieldTOTP, in.TOTPSeed, in.ClearTOTP, &c.TOTPCt, &c.FieldVersions.TOTP},
	}
	for _, spec := range specs {
		switch {
		case spec.clear:
			*spec.blob = nil
			*spec.ver = 0
		case spec.value != "":
			blob, err := s.cipher.EncryptField(dek, dekID, c.ID, spec.tag, version, []byte(spec.value))
			if err != nil {
				return err
			}
			*spec.blob = blob
			*spec.ver = version
		case !keepBlank:
			*spec.blob = nil
		}
	}
	return nil
}

// GetCredential decrypts every field of credential id and appends a
// CredentialRead audit entry: the entry is appended
// after decryption succeeds and before the gateway returns.
func (s *VaultStore) GetCredential(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID) (domain.DecryptedCredential, error) {
	c, err := s.repo.GetCredential(ctx, id)
	if err != nil {
		return domain.DecryptedCredential{}, err
	}
	tags, err := s.repo.ListTags(ctx, id)
	if err != nil {
		return domain.DecryptedCredential{}, err
	}

	seed, err := s.unwrapAuditSeed(ctx, dek, dekID)
	if err != nil {
		return domain.DecryptedCredential{}, err
	}
	defer cryptoDomain.Zero(seed)

	dc, decErr := s.decryptCredential(dek, dekID, c, tags)
	outcome := audit.OutcomeSuccess
	if decErr != nil {
		outcome = audit.OutcomeFailure
	}
	outcome = outcomeFor(tainted, outcome)

	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		entry, err := s.auditUC.Append(ctx, seed, audit.ActionCredentialRead, audit.TargetKindCredential, id.String(), outcome)
		if err != nil {
			return err
		}
		return s.repo.UpdateLastSeq(ctx, entry.Seq)
	})
	if err != nil {
		return domain.DecryptedCredential{}, err
	}
	if decErr != nil {
		return domain.DecryptedCredential{}, decErr
	}
	return dc, nil
}

func (s *VaultStore) decryptCredential(dek []byte, dekID uuid.UUID, c domain.Credential, tags []string) (domain.DecryptedCredential, error) {
	dc := domain.DecryptedCredential{
		ID:        c.ID,
		ProjectID: c.ProjectID,
		Title:     c.Title,
		Tags:      tags,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}

	type fieldSpec struct {
		tag  record.FieldTag
		blob []byte
		ver  int
		dst  *string
	}
	specs := []fieldSpec{
		{record.FieldUsername, c.UsernameCt, c.FieldVersions.Username, &dc.Username},
		{record.FieldPassword, c.PasswordCt, c.FieldVersions.Password, &dc.Password},
		{record.FieldURL, c.URLCt, c.FieldVersions.URL, &dc.URL},
		{record.FieldNotes, c.NotesCt, c.FieldVersions.Notes, &dc.Notes},
		{record.FieldTOTP, c.TOTPCt, c.FieldVersions.TOTP, &dc.TOTPSeed},
	}
	for _, spec := range specs {
		if spec.blob == nil {
			continue
		}
		plaintext, err := s.cipher.DecryptField(dek, dekID, c.ID, spec.tag, spec.ver, spec.blob)
		if err != nil {
			return domain.DecryptedCredential{}, err
		}
		*spec.dst = string(plaintext)
	}
	return dc, nil
}

// UpdateCredential re-encrypts every supplied field under the credential's
// new version, so stale ciphertext from a previous version can never be
// substituted back in undetected. Blank fields keep their stored ciphertext
// (at the field version it was sealed under); only the input's Clear flags
// erase a field. A nil tag slice keeps the stored tag set.
func (s *VaultStore) UpdateCredential(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID, in CredentialInput) (domain.Credential, error) {
	existing, err := s.repo.GetCredential(ctx, id)
	if err != nil {
		return domain.Credential{}, err
	}
	if in.Title == "" {
		in.Title = existing.Title
	}
	if err := in.Validate(); err != nil {
		return domain.Credential{}, err
	}

	seed, err := s.unwrapAuditSeed(ctx, dek, dekID)
	if err != nil {
		return domain.Credential{}, err
	}
	defer cryptoDomain.Zero(seed)

	newVersion := existing.Version + 1
	c := existing
	c.Title = in.Title
	c.Version = newVersion
	c.UpdatedAt = time.Now().UTC()
	switch {
	case in.ProjectID != nil:
		c.ProjectID = in.ProjectID
	case in.ClearProject:
		c.ProjectID = nil
	}
	if in.SearchByURL && in.URLHint != "" {
		c.URLHint = in.URLHint
	}
	if in.ClearURL {
		c.URLHint = ""
	}

	if err := s.sealFields(dek, dekID, &c, in, newVersion, true); err != nil {
		return domain.Credential{}, err
	}

	tags := in.Tags
	if tags == nil {
		tags, err = s.repo.ListTags(ctx, id)
		if err != nil {
			return domain.Credential{}, err
		}
	}

	var projectName string
	err = s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateCredential(ctx, c); err != nil {
			return err
		}
		if err := s.repo.SetTags(ctx, c.ID, tags); err != nil {
			return err
		}
		if c.ProjectID != nil {
			projects, err := s.repo.ListProjects(ctx)
			if err != nil {
				return err
			}
			for _, p := range projects {
				if p.ID == *c.ProjectID {
					projectName = p.Name
					break
				}
			}
		}
		if err := s.repo.IndexCredential(ctx, c, projectName, tags); err != nil {
			return err
		}
		entry, err := s.auditUC.Append(ctx, seed, audit.ActionCredentialUpdated, audit.TargetKindCredential, c.ID.String(), outcomeFor(tainted, audit.OutcomeSuccess))
		if err != nil {
			return err
		}
		return s.repo.UpdateLastSeq(ctx, entry.Seq)
	})
	if err != nil {
		return domain.Credential{}, err
	}
	return c, nil
}

func (s *VaultStore) DeleteCredential(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID) error {
	seed, err := s.unwrapAuditSeed(ctx, dek, dekID)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(seed)

	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteCredential(ctx, id); err != nil {
			return err
		}
		if err := s.repo.DeindexCredential(ctx, id); err != nil {
			return err
		}
		entry, err := s.auditUC.Append(ctx, seed, audit.ActionCredentialDeleted, audit.TargetKindCredential, id.String(), outcomeFor(tainted, audit.OutcomeSuccess))
		if err != nil {
			return err
		}
		return s.repo.UpdateLastSeq(ctx, entry.Seq)
	})
}

func (s *VaultStore) ListCredentials(ctx context.Context, filter domain.CredentialFilter) ([]domain.Credential, error) {
	return s.repo.ListCredentials(ctx, filter)
}

// RecordLock appends the VaultLocked audit entry using the still-live DEK,
// as the terminal step before the session zeroizes it. Per the design, this
// must run before the DEK is released, whether the transition was triggered
// by an explicit lock or by the idle timer.
func (s *VaultStore) RecordLock(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool) error {
	seed, err := s.unwrapAuditSeed(ctx, dek, dekID)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(seed)

	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		entry, err := s.auditUC.Append(ctx, seed, audit.ActionVaultLocked, audit.TargetKindVault, "", outcomeFor(tainted, audit.OutcomeSuccess))
		if err != nil {
			return err
		}
		return s.repo.UpdateLastSeq(ctx, entry.Seq)
	})
}

// RecordCredentialCopied appends the audit entry for a clipboard copy. The
// core never touches the OS clipboard; an external collaborator calls this
// after it has performed the copy.
func (s *VaultStore) RecordCredentialCopied(ctx context.Context, dek []byte, dekID uuid.UUID, tainted bool, id uuid.UUID) error {
	seed, err := s.unwrapAuditSeed(ctx, dek, dekID)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(seed)

	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		entry, err := s.auditUC.Append(ctx, seed, audit.ActionCredentialCopied, audit.TargetKindCredential, id.String(), outcomeFor(tainted, audit.OutcomeSuccess))
		if err != nil {
			return err
		}
		return s.repo.UpdateLastSeq(ctx, entry.Seq)
	})
}

// SetTags replaces a credential's tag set and refreshes its search-index row.
func (s *VaultStore) SetTags(ctx context.Context, id uuid.UUID, tags []string) error {
	c, err := s.repo.GetCredential(ctx, id)
	if err != nil {
		return err
	}
	var projectName string
	if c.ProjectID != nil {
		projects, err := s.repo.ListProjects(ctx)
		if err != nil {
			return err
		}
		for _, p := range projects {
			if p.ID == *c.ProjectID {
				projectName = p.Name
				break
			}
		}
	}
	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SetTags(ctx, id, tags); err != nil {
			return err
		}
		return s.repo.IndexCredential(ctx, c, projectName, tags)
	})
}

func (s *VaultStore) ListTags(ctx context.Context, id uuid.UUID) ([]string, error) {
	return s.repo.ListTags(ctx, id)
}
