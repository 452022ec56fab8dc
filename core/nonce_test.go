package core

import "testing"

func TestAlphanumericNonceGenerator_LengthAndAlphabet(t *testing.T) {
	generator := AlphanumericNonceGenerator{}
	for _, length := range []int{1, 16, 32, 64, 257} {
		nonce, err := generator.Generate(length)
		if err != nil {
			t.Fatalf("generate(%d): %v", length, err)
		}
		if len(nonce) != length {
			t.Fatalf("expected length %d, got %d", length, len(nonce))
		}
		if !IsAlphanumeric(nonce) {
			t.Fatalf("expected alphanumeric nonce, got %q", nonce)
		}
	}
}

func TestAlphanumericNonceGenerator_RepeatedCallsDiffer(t *testing.T) {
	generator := AlphanumericNonceGenerator{}
	seen := map[string]struct{}{}
	for range 200 {
		nonce, err := generator.Generate(DefaultNonceLength)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, dup := seen[nonce]; dup {
			t.Fatalf("duplicate nonce %q", nonce)
		}
		seen[nonce] = struct{}{}
	}
}

func TestAlphanumericNonceGenerator_CoversAlphabet(t *testing.T) {
	nonce, err := AlphanumericNonceGenerator{}.Generate(20000)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	counts := map[byte]int{}
	for i := 0; i < len(nonce); i++ {
		counts[nonce[i]]++
	}
	if len(counts) != len(nonceAlphabet) {
		t.Fatalf("expected all %d symbols to appear, got %d", len(nonceAlphabet), len(counts))
	}
}

func TestAlphanumericNonceGenerator_RejectsNonPositiveLength(t *testing.T) {
	for _, length := range []int{0, -1} {
		if _, err := (AlphanumericNonceGenerator{}).Generate(length); KindOf(err) != KindBadInput {
			t.Fatalf("expected bad input for length %d, got %v", length, err)
		}
	}
}

func TestIsAlphanumeric(t *testing.T) {
	if !IsAlphanumeric("abcXYZ019") {
		t.Fatalf("expected alphanumeric")
	}
	for _, value := range []string{"a-b", "a b", "é", "_"} {
		if IsAlphanumeric(value) {
			t.Fatalf("expected %q to be rejected", value)
		}
	}
}
