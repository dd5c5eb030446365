package models

import (
	"testing"
	"time"
)

func TestShareWindowOpen(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)
	later := now.Add(time.Hour)

	s := RideGroupShare{Status: ShareStatusActive}
	if !s.WindowOpen(now) {
		t.Fatalf("share without window should always be open")
	}

	s.StartsAt = &later
	if s.WindowOpen(now) {
		t.Fatalf("share before its start should be closed")
	}

	s.StartsAt = &earlier
	s.EndsAt = &later
	if !s.WindowOpen(now) {
		t.Fatalf("share inside its window should be open")
	}

	s.EndsAt = &earlier
	if s.WindowOpen(now) {
		t.Fatalf("share past its end should be closed")
	}
}

func TestShareEffectiveStatus(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)

	s := RideGroupShare{Status: ShareStatusActive}
	if got := s.EffectiveStatus(now); got != ShareStatusActive {
		t.Fatalf("expected active, got %s", got)
	}

	// Expiry is derived at read time, the row still says active
	s.EndsAt = &past
	if got := s.EffectiveStatus(now); got != ShareStatusExpired {
		t.Fatalf("expected expired, got %s", got)
	}

	s.Status = ShareStatusRevoked
	if got := s.EffectiveStatus(now); got != ShareStatusRevoked {
		t.Fatalf("revoked wins over expiry, got %s", got)
	}
}

func TestShareActiveAt(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)

	s := RideGroupShare{Status: ShareStatusActive}
	if !s.ActiveAt(now) {
		t.Fatalf("active share with no window should take claims")
	}

	s.StartsAt = &future
	if s.ActiveAt(now) {
		t.Fatalf("share before its window should not take claims")
	}

	s = RideGroupShare{Status: ShareStatusRevoked}
	if s.ActiveAt(now) {
		t.Fatalf("revoked share should not take claims")
	}
}
