package models

import (
	"testing"
	"time"
)

func TestInviteCanAccept(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	inv := GroupInvite{ExpiresAt: &future}
	if !inv.CanAccept(now) {
		t.Fatalf("fresh invite should be redeemable")
	}

	used := uint(7)
	inv.UsedBy = &used
	inv.UsedAt = &past
	if inv.CanAccept(now) {
		t.Fatalf("used invite should not be redeemable")
	}

	inv = GroupInvite{ExpiresAt: &past}
	if inv.CanAccept(now) {
		t.Fatalf("expired invite should not be redeemable")
	}

	inv = GroupInvite{}
	if !inv.CanAccept(now) {
		t.Fatalf("invite without expiry should be redeemable until used")
	}
}
