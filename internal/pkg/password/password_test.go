package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !h.Verify("correct horse battery", hash) {
		t.Fatal("expected password to verify")
	}
	if h.Verify("wrong", hash) {
		t.Fatal("expected wrong password to fail")
	}
}

func TestHashRejectsLongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("a", MaxLength+1)); err != ErrTooLong {
		t.Fatalf("expected ErrTooLong, got %v", err)
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	if h := NewHasher(1); h.cost != bcrypt.MinCost {
		t.Fatalf("expected min cost, got %d", h.cost)
	}
	if h := NewHasher(99); h.cost != bcrypt.MaxCost {
		t.Fatalf("expected max cost, got %d", h.cost)
	}
}
