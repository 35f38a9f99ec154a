package secretvault

import (
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	masterKeyLen = 32
)

// DeriveMasterKey derives a deterministic master key from a password and
// salt (§4.1, §8: "derive_master_key(p, salt) is deterministic; equal for
// equal (p, salt)"). The same algorithm (scrypt) the original Python
// implementation uses, ported rather than reinvented.
func DeriveMasterKey(password string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, masterKeyLen)
	if err != nil {
		return nil, fmt.Errorf("deriving master key: %w", err)
	}
	return key, nil
}
