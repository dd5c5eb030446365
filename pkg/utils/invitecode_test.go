package utils

import (
	"strings"
	"testing"
)

func TestGenerateInviteCode(t *testing.T) {
	code := GenerateInviteCode("group-1-20260830")
	if len(code) != inviteCodeLength {
		t.Fatalf("expected %d characters, got %q", inviteCodeLength, code)
	}
	for _, ch := range code {
		if !strings.ContainsRune(inviteCodeAlphabet, ch) {
			t.Fatalf("code %q contains character outside alphabet", code)
		}
	}

	// Same key, same code; different keys should practically never collide
	if GenerateInviteCode("group-1-20260830") != code {
		t.Fatalf("code generation should be deterministic for a key")
	}
	if GenerateInviteCode("group-2-20260830") == code {
		t.Fatalf("different keys produced the same code")
	}
}
