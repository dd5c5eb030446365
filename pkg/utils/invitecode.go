package utils

import (
	"crypto/sha256"
	"time"
)

const (
	InviteExpiration   = 7 * 24 * time.Hour
	inviteCodeLength   = 8
	inviteCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

// GenerateInviteCode derives a short shareable code from the given unique
// key. The key should change per request (group id + timestamp) so codes
// don't collide; the unique index on group_invites.code backstops the rest.
func GenerateInviteCode(uniqueKey string) string {
	h := sha256.New()
	h.Write([]byte(uniqueKey))
	hash := h.Sum(nil)

	code := make([]byte, inviteCodeLength)
	for i := 0; i < inviteCodeLength; i++ {
		code[i] = inviteCodeAlphabet[int(hash[i])%len(inviteCodeAlphabet)]
	}
	return string(code)
}
