// Package otp generates and checks the 6-digit codes mailed out during
// account registration.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

const Digits = 6

var codeSpace = big.NewInt(1_000_000)

// NewCode returns a random zero-padded 6-digit verification code.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", Digits, n), nil
}

// Match compares a submitted code against the stored one in constant time.
func Match(submitted, stored string) bool {
	if len(submitted) != Digits || len(stored) != Digits {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}
