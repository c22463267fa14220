package password

import (
	"strings"
	"testing"
)

func fastParams() Params {
	// Cheap parameters keep the test suite quick; production costs are
	// validated at config level, not here.
	return Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(fastParams())

	digest, err := h.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected digest prefix: %s", digest)
	}

	ok, err := h.Verify("correct-horse", digest)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = h.Verify("wrong-horse", digest)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashIsSalted(t *testing.T) {
	h := NewHasher(fastParams())

	first, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same input are identical; salt is not random")
	}
}

func TestVerifyUsesEmbeddedParams(t *testing.T) {
	old := NewHasher(fastParams())
	digest, err := old.Hash("correct-horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	// A hasher with raised costs must still verify digests produced
	// under the old parameters.
	raised := fastParams()
	raised.Memory = 16 * 1024
	raised.Time = 2
	ok, err := NewHasher(raised).Verify("correct-horse", digest)
	if err != nil || !ok {
		t.Fatalf("old digest rejected after cost bump: ok=%v err=%v", ok, err)
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := NewHasher(fastParams())

	cases := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$",
	}
	for _, digest := range cases {
		if ok, err := h.Verify("anything", digest); err == nil || ok {
			t.Fatalf("digest %q: ok=%v err=%v, want error", digest, ok, err)
		}
	}
}
