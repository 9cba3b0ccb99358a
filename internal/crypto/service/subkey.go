package service

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
)

// FieldTag identifies which field of a credential a derived subkey protects.
// Every subkey is bound to exactly one field tag so a compromised subkey for
// one field cannot be replayed to decrypt another. Concrete tag values live
// in internal/vault/record, which aliases this type.
type FieldTag string

// DeriveFieldKey derives a per-field subkey from the vault's DEK via
// HKDF-SHA256, domain-separated by field tag, credential ID, and DEK
// generation so no two fields, credentials, or DEK generations ever share a
// subkey.
//
// This generalizes a one-purpose HKDF derivation of a single signing key
// into a keyed-by-identity derivation reused for every encrypted field in
// the vault. The audit chain does not use it: its HMAC key is the audit seed.
func DeriveFieldKey(dek []byte, tag FieldTag, credentialID uuid.UUID, dekID uuid.UUID) ([]byte, error) {
	info := buildInfo(tag, credentialID, dekID)
	reader := hkdf.New(sha256.New, dek, nil, info)
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

func buildInfo(tag FieldTag, credentialID, dekID uuid.UUID) []byte {
	info := make([]byte, 0, len(tag)+len(credentialID)+len(dekID)+8)
	info = appendLengthPrefixed(info, []byte(tag))
	info = append(info, credentialID[:]...)
	info = append(info, dekID[:]...)
	return info
}

// appendLengthPrefixed appends a 4-byte big-endian length prefix followed by
// data, preventing ambiguity when concatenating variable-length fields into a
// single HKDF info string or HMAC message.
func appendLengthPrefixed(buf, data []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, data...)
	return buf
}
