package security

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies secrets (user passwords and organization access
// keys) using bcrypt. Callers must not log or persist plaintext secrets; only
// the digest is stored. bcrypt's comparison is constant-time, so key
// verification does not leak timing.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31). Cost 12 is a
// reasonable default for interactive login; access-key verification uses the
// same cost.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a salted bcrypt digest of plaintext, as a string suitable for
// storage. Do not pass an empty plaintext.
func (h *Hasher) Hash(plaintext []byte) (string, error) {
	b, err := bcrypt.GenerateFromPassword(plaintext, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies plaintext against the stored digest. Returns nil if they
// match; returns an error (including bcrypt.ErrMismatchedHashAndPassword) if
// they do not or on invalid digest.
func (h *Hasher) Compare(digest string, plaintext []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(digest), plaintext)
}
