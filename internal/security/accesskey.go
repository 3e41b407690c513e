package security

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateAccessKey returns a random 32-hex-character organization access key.
// The caller hashes it for storage and hands the plaintext to the organization
// superuser exactly once.
func GenerateAccessKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
