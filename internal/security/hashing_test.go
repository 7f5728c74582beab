package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(4)

	hash, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash equals plaintext")
	}
	if !h.Compare(hash, "correct horse battery staple") {
		t.Error("Compare: correct password rejected")
	}
}

func TestHasher_CompareWrongPassword(t *testing.T) {
	h := NewHasher(4)

	hash, err := h.Hash("password-one")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h.Compare(hash, "password-two") {
		t.Error("Compare: wrong password accepted")
	}
	if h.Compare(hash, "") {
		t.Error("Compare: empty password accepted")
	}
}

func TestHasher_SaltedHashesDiffer(t *testing.T) {
	h := NewHasher(4)

	h1, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := h.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ (salt)")
	}
}

func TestHasher_CostFallsBackToDefault(t *testing.T) {
	// Out-of-range costs take the default rather than MaxCost: a cost-31
	// hash runs for hours, so a misconfiguration must not inherit it.
	for _, cost := range []int{-1, 0, 3, 32, 100} {
		if got := NewHasher(cost).Cost; got != bcrypt.DefaultCost {
			t.Errorf("cost %d: got %d, want DefaultCost %d", cost, got, bcrypt.DefaultCost)
		}
	}
	for _, cost := range []int{bcrypt.MinCost, 10, bcrypt.MaxCost} {
		if got := NewHasher(cost).Cost; got != cost {
			t.Errorf("cost %d: got %d, want unchanged", cost, got)
		}
	}
	if _, err := NewHasher(bcrypt.MinCost).Hash("p"); err != nil {
		t.Errorf("Hash at MinCost: %v", err)
	}
}

func TestHasher_DummyHashNeverMatches(t *testing.T) {
	h := NewHasher(4)
	for _, pw := range []string{"", "password", "dummy", "hunter2"} {
		if h.Compare(DummyHash, pw) {
			t.Errorf("DummyHash matched %q", pw)
		}
	}
}
