// Package random provides support for generating unguessable identifiers.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DefaultByteLength is the number of random bytes used when callers have no
// reason to pick their own size.
const DefaultByteLength = 32

// Hex returns a cryptographically random hex string built from byteLength
// bytes of entropy. The resulting string is twice byteLength characters.
func Hex(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultByteLength
	}

	b := make([]byte, byteLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}

	return hex.EncodeToString(b), nil
}
