package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// IVSize is the CBC initialization vector length, 16 bytes.
const IVSize = aes.BlockSize

var ErrDecrypt = errors.New("crypto: decryption failed")

// Cipher encrypts vault secrets with AES-256-CBC. Every Encrypt call draws a
// fresh random IV; ciphertext and IV are returned hex-encoded, which is the
// at-rest format of vault records.
//
// CBC carries no integrity tag. Decrypt rejects malformed input and bad
// padding, but undetected tampering can still yield wrong plaintext. The
// record format predates this implementation and is kept for compatibility
// with existing rows.
type Cipher struct {
	block cipher.Block
}

// NewCipher builds a Cipher from an already-derived key. The key is an
// explicit constructor argument so tests can inject their own; nothing in
// this package holds process-wide state.
func NewCipher(key [KeySize]byte) (*Cipher, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return &Cipher{block: block}, nil
}

// Encrypt seals plaintext under a fresh random IV and returns both halves
// hex-encoded. The two values must be stored together; neither is useful
// alone.
func (c *Cipher) Encrypt(plaintext string) (ctHex, ivHex string, err error) {
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", "", err
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ct, padded)
	Zero(padded)

	return hex.EncodeToString(ct), hex.EncodeToString(iv), nil
}

// Decrypt is pure: the same ciphertext, IV and key always yield the same
// plaintext. Malformed hex, a wrong-length IV, a non-block-multiple
// ciphertext, or invalid padding all fail with ErrDecrypt; it never returns
// garbage for a fault it can detect.
func (c *Cipher) Decrypt(ctHex, ivHex string) (string, error) {
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad iv encoding", ErrDecrypt)
	}
	if len(iv) != IVSize {
		return "", fmt.Errorf("%w: iv is %d bytes, want %d", ErrDecrypt, len(iv), IVSize)
	}
	ct, err := hex.DecodeString(ctHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext encoding", ErrDecrypt)
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d is not a block multiple", ErrDecrypt, len(ct))
	}

	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(pt, ct)

	out, err := pkcs7Unpad(pt, aes.BlockSize)
	if err != nil {
		Zero(pt)
		return "", err
	}
	s := string(out)
	Zero(pt)
	return s, nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, fmt.Errorf("%w: invalid padded length", ErrDecrypt)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrDecrypt)
		}
	}
	return b[:len(b)-n], nil
}
