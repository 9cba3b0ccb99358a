// Package domain defines the vault's persistent entities: the single vault
// header, projects, credentials, and tags.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// VaultHeader is the vault's single row, carrying the KDF parameters, the
// wrapped DEK, the audit HMAC seed (also wrapped), and the last-known audit
// sequence number used to detect truncation on unlock.
type VaultHeader struct {
	SchemaVersion    int
	KdfPhc           string
	WrapNonce        []byte
	WrappedDek       []byte
	DekID            uuid.UUID
	WrappedAuditSeed []byte
	SeedNonce        []byte
	LastSeq          int64
	CreatedAt        time.Time
	LastUnlockedAt   *time.Time
}

// Project groups credentials under a plaintext, user-chosen name.
type Project struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// FieldVersions records the credential.version each encrypted field was last
// sealed under, so a decrypt can rebuild the exact AAD used at encryption
// time even if other fields were updated more recently.
type FieldVersions struct {
	Username int
	Password int
	URL      int
	Notes    int
	TOTP     int
}

// Credential is one stored secret. Title and ProjectID are always plaintext
// (so metadata search never needs to unlock a field); every other sensitive
// attribute is carried as an opaque ciphertext blob, or nil when unset.
type Credential struct {
	ID            uuid.UUID
	ProjectID     *uuid.UUID
	Title         string
	URLHint       string
	UsernameCt    []byte
	PasswordCt    []byte
	URLCt         []byte
	NotesCt       []byte
	TOTPCt        []byte
	FieldVersions FieldVersions
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DecryptedCredential is a Credential with every field opened, returned by
// usecase-level reads. Secret fields are held in the caller's responsibility;
// the vault never caches them beyond the call that produced this value.
type DecryptedCredential struct {
	ID        uuid.UUID
	ProjectID *uuid.UUID
	Title     string
	Username  string
	Password  string
	URL       string
	Notes     string
	TOTPSeed  string
	Tags      []string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tag is a plaintext label attached to a credential. (CredentialID, Tag) is
// the natural key; a credential may carry any number of tags.
type Tag struct {
	CredentialID uuid.UUID
	Tag          string
}

// CredentialFilter narrows list_credentials by plaintext metadata only.
type CredentialFilter struct {
	ProjectID *uuid.UUID
	Tag       string
	Query     string // full-text query over title/url_hint/tags
}
