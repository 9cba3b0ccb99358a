package service

import (
	"encoding/base64"
	"fmt"
	"strings"

	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
)

// PHC string layout: $argon2id$v=19$m=<memKiB>,t=<iterations>,p=<parallelism>$<salt-b64>
//
// This is the standard PHC string format Argon2id reference implementations
// use; parsing it with encoding/csv or a regexp library would be overkill for
// three comma-separated integers and one base64 field, so it's hand-rolled
// here rather than pulled from the ecosystem.
const phcPrefix = "$argon2id$v=19$"

// EncodePHC renders a Master Key's salt and cost parameters as a PHC string
// suitable for storage in the vault header.
func EncodePHC(params cryptoDomain.KdfParams, salt []byte) string {
	return fmt.Sprintf("%sm=%d,t=%d,p=%d$%s",
		phcPrefix,
		params.MemoryKiB, params.Iterations, params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
	)
}

// DecodePHC parses a PHC string back into cost parameters and salt.
func DecodePHC(phc string) (cryptoDomain.KdfParams, []byte, error) {
	var params cryptoDomain.KdfParams

	if !strings.HasPrefix(phc, phcPrefix) {
		return params, nil, cryptoDomain.ErrInvalidPHC
	}
	rest := strings.TrimPrefix(phc, phcPrefix)

	parts := strings.SplitN(rest, "$", 2)
	if len(parts) != 2 {
		return params, nil, cryptoDomain.ErrInvalidPHC
	}

	n, err := fmt.Sscanf(parts[0], "m=%d,t=%d,p=%d", &params.MemoryKiB, &params.Iterations, &params.Parallelism)
	if err != nil || n != 3 {
		return params, nil, cryptoDomain.ErrInvalidPHC
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return params, nil, cryptoDomain.ErrInvalidPHC
	}
	params.SaltSize = uint32(len(salt))

	return params, salt, nil
}
