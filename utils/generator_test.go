package utils

import (
	"strings"
	"testing"
)

func TestGenerateReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateReference()
		if err != nil {
			t.Fatalf("GenerateReference() error = %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("reference %q has length %d, want 8", code, len(code))
		}
		for _, c := range code {
			if !strings.ContainsRune(letterBytes, c) {
				t.Fatalf("reference %q contains %q, outside the readable alphabet", code, c)
			}
		}
		seen[code] = true
	}
	// Collisions over 100 draws from a 32^8 space mean the generator is broken.
	if len(seen) != 100 {
		t.Errorf("generated %d distinct references out of 100", len(seen))
	}
}

func TestGenerateTrackingToken(t *testing.T) {
	a, err := GenerateTrackingToken()
	if err != nil {
		t.Fatalf("GenerateTrackingToken() error = %v", err)
	}
	b, err := GenerateTrackingToken()
	if err != nil {
		t.Fatalf("GenerateTrackingToken() error = %v", err)
	}

	if len(a) != 48 {
		t.Errorf("token length = %d, want 48 hex chars", len(a))
	}
	if a == b {
		t.Error("two tokens are identical")
	}
	if strings.ToLower(a) != a {
		t.Error("token is not lowercase hex")
	}
}
