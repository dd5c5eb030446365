package handlers

import (
	"testing"
	"time"

	"github.com/ridelink/ridelink-backend/internal/models"
	"gorm.io/gorm"
)

func share(id, rideID, groupID uint, priority int, exclusive bool, created time.Time) models.RideGroupShare {
	return models.RideGroupShare{
		Model:     gorm.Model{ID: id, CreatedAt: created},
		RideID:    rideID,
		GroupID:   groupID,
		Priority:  priority,
		Exclusive: exclusive,
		Status:    models.ShareStatusActive,
	}
}

func TestVisibleOffersMembership(t *testing.T) {
	now := time.Now()
	shares := []models.RideGroupShare{
		share(1, 10, 100, 0, false, now),
		share(2, 10, 200, 0, false, now),
	}
	member := map[uint]bool{100: true}

	got := visibleOffers(shares, member, now)
	if len(got) != 1 || got[0].GroupID != 100 {
		t.Fatalf("expected only the member group's share, got %+v", got)
	}
}

func TestVisibleOffersExclusivity(t *testing.T) {
	now := time.Now()
	// Group 200 holds an exclusive share on ride 10; the ride must be
	// hidden from group 100's audience while it is active.
	shares := []models.RideGroupShare{
		share(1, 10, 100, 5, false, now),
		share(2, 10, 200, 0, true, now),
		share(3, 11, 100, 0, false, now),
	}

	got := visibleOffers(shares, map[uint]bool{100: true}, now)
	if len(got) != 1 || got[0].RideID != 11 {
		t.Fatalf("expected ride 10 hidden by exclusive share, got %+v", got)
	}

	// A member of the exclusive group still sees its share
	got = visibleOffers(shares, map[uint]bool{200: true}, now)
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected exclusive holder to see its share, got %+v", got)
	}
}

func TestVisibleOffersExpiredExclusiveDoesNotHide(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)

	exclusive := share(2, 10, 200, 0, true, now)
	exclusive.EndsAt = &past

	shares := []models.RideGroupShare{
		share(1, 10, 100, 0, false, now),
		exclusive,
	}

	got := visibleOffers(shares, map[uint]bool{100: true}, now)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expired exclusive share must not hide the ride, got %+v", got)
	}
}

func TestSortOffers(t *testing.T) {
	now := time.Now()
	offers := []models.RideGroupShare{
		share(1, 10, 100, 0, false, now),
		share(2, 11, 100, 5, false, now),
		share(3, 12, 100, 5, false, now.Add(-time.Hour)),
	}

	sortOffers(offers)

	if offers[0].ID != 3 || offers[1].ID != 2 || offers[2].ID != 1 {
		t.Fatalf("expected order [3 2 1] (priority desc, oldest first), got [%d %d %d]",
			offers[0].ID, offers[1].ID, offers[2].ID)
	}
}
