package crypto

import (
	"crypto/sha256"
	"errors"
	"strings"
)

// KeySize is the AES-256 key length used by the vault cipher.
const KeySize = 32

var ErrEmptySecret = errors.New("crypto: encryption secret is empty")

// DeriveKey turns the configured vault secret into the fixed 32-byte AES key.
// The derivation is a single SHA-256 of the secret, which is the scheme the
// records already at rest were written with. Call it once at startup and fail
// the process if it errors; never defer the check to the first encrypt.
func DeriveKey(secret string) ([KeySize]byte, error) {
	var key [KeySize]byte
	if strings.TrimSpace(secret) == "" {
		return key, ErrEmptySecret
	}
	key = sha256.Sum256([]byte(secret))
	return key, nil
}
