package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash([]byte("password123"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if digest == "password123" {
		t.Fatal("digest must not equal plaintext")
	}
	if err := h.Compare(digest, []byte("password123")); err != nil {
		t.Errorf("Compare(correct): %v", err)
	}
	if err := h.Compare(digest, []byte("wrong")); err == nil {
		t.Error("Compare(wrong) should fail")
	}
	if err := h.Compare("not-a-bcrypt-digest", []byte("password123")); err == nil {
		t.Error("Compare on garbage digest should fail")
	}
}

func TestHashSalted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, err := h.Hash([]byte("same-secret"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash([]byte("same-secret"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same plaintext must differ (random salt)")
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	testCases := []struct {
		in   int
		want int
	}{
		{0, bcrypt.DefaultCost},
		{-1, bcrypt.DefaultCost},
		{2, bcrypt.MinCost},
		{12, 12},
		{99, bcrypt.MaxCost},
	}
	for _, tc := range testCases {
		if got := NewHasher(tc.in).Cost; got != tc.want {
			t.Errorf("NewHasher(%d).Cost = %d, want %d", tc.in, got, tc.want)
		}
	}
}
