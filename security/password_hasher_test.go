package security

import (
	"strings"
	"testing"
)

func newFastHasher() *Argon2Hasher {
	return NewArgon2Hasher(WithCost(1, 8*1024))
}

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	hasher := newFastHasher()
	encoded, err := hasher.Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("expected argon2id encoding, got %q", encoded)
	}
	if strings.Contains(encoded, "correct-horse") {
		t.Fatalf("hash leaks plaintext")
	}

	ok, err := hasher.Verify("correct-horse", encoded)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	ok, err = hasher.Verify("wrong-horse", encoded)
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, ok=%v err=%v", ok, err)
	}
}

func TestArgon2Hasher_SaltsEachHash(t *testing.T) {
	hasher := newFastHasher()
	first, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct salted hashes")
	}
}

func TestArgon2Hasher_Errors(t *testing.T) {
	hasher := newFastHasher()
	if _, err := hasher.Hash(""); err == nil {
		t.Fatalf("expected empty password error")
	}
	if _, err := hasher.Verify("pw", ""); err == nil {
		t.Fatalf("expected empty hash error")
	}
	if _, err := hasher.Verify("pw", "not-a-hash"); err == nil {
		t.Fatalf("expected malformed hash error")
	}
}
