package internal

import "testing"

func TestNewOpaqueTokenShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 64; i++ {
		token, err := NewOpaqueToken()
		if err != nil {
			t.Fatalf("NewOpaqueToken: %v", err)
		}
		if len(token) != 43 {
			t.Fatalf("token length = %d, want 43", len(token))
		}
		if _, dup := seen[token]; dup {
			t.Fatal("duplicate token")
		}
		seen[token] = struct{}{}
	}
}

func TestHashTokenIsStableAndDistinct(t *testing.T) {
	if HashToken("a") != HashToken("a") {
		t.Fatal("hash is not deterministic")
	}
	if HashToken("a") == HashToken("b") {
		t.Fatal("distinct inputs hashed identically")
	}
	if HashToken("secret") == "secret" {
		t.Fatal("hash must not echo its input")
	}
}

func TestNewCode(t *testing.T) {
	for _, digits := range []int{4, 6, 10} {
		code, err := NewCode(digits)
		if err != nil {
			t.Fatalf("NewCode(%d): %v", digits, err)
		}
		if len(code) != digits {
			t.Fatalf("code length = %d, want %d", len(code), digits)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit", code)
			}
		}
	}

	if _, err := NewCode(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}
