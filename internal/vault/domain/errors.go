package domain

import (
	"github.com/allisson/vaultcli/internal/errors"
)

// Vault-level domain errors, each wrapping a taxonomy sentinel from
// internal/errors so callers can match on the sentinel while still getting a
// specific message.
var (
	ErrCredentialNotFound  = errors.Wrap(errors.ErrNotFound, "credential not found")
	ErrProjectNotFound     = errors.Wrap(errors.ErrNotFound, "project not found")
	ErrProjectNameTaken    = errors.Wrap(errors.ErrConflict, "project name already exists")
	ErrVaultNotInitialized = errors.Wrap(errors.ErrNotFound, "vault not initialized")
	ErrVaultAlreadyExists  = errors.Wrap(errors.ErrConflict, "vault already initialized")
	ErrSessionLocked       = errors.Wrap(errors.ErrLocked, "vault is locked")
)
