// Package internal holds the engine's random-material helpers: numeric
// one-time codes, opaque tokens, and the hash used to key them.
package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const opaqueTokenBytes = 32

// NewOpaqueToken returns a fresh 256-bit random token encoded with
// unpadded base64url. Callers store only HashToken of it.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken derives the storage key for an opaque token. SHA-256 keeps
// the plaintext out of the cache so a cache dump cannot be replayed.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// NewCode returns a uniformly random numeric code of the given length.
// Each digit is drawn independently with rejection sampling so no
// digit is favored.
func NewCode(digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("generate code: length must be positive")
	}

	out := make([]byte, digits)
	buf := make([]byte, 1)
	for i := 0; i < digits; {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		// 250 is the largest multiple of 10 that fits in a byte.
		if buf[0] >= 250 {
			continue
		}
		out[i] = '0' + buf[0]%10
		i++
	}
	return string(out), nil
}
