package authz

import (
	"errors"

	"github.com/ridelink/ridelink-backend/internal/models"
	"gorm.io/gorm"
)

// ErrForbidden is returned when an actor may not touch the requested ride.
var ErrForbidden = errors.New("forbidden")

// Actor is the authenticated caller as resolved by the auth middleware.
type Actor struct {
	ID    uint
	Roles []models.Role
}

// RideRef is the slice of a ride the gate needs to decide access.
type RideRef struct {
	CreatorID        uint
	AssignedDriverID *uint
}

// Ref projects a ride onto the fields the gate looks at.
func Ref(ride *models.Ride) RideRef {
	return RideRef{CreatorID: ride.CreatorID, AssignedDriverID: ride.AssignedDriverID}
}

// HasRole reports whether the actor carries the given role.
func (a Actor) HasRole(role models.Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsPrivileged is true for admins and dispatchers.
func IsPrivileged(a Actor) bool {
	return a.HasRole(models.RoleAdmin) || a.HasRole(models.RoleDispatcher)
}

// CanAccessRide gates single-ride mutations (edit, delete, assign, share,
// approve). Assigned drivers deliberately do NOT pass: they can see their
// rides through the scope filter and advance the status, but the
// creator-level endpoints stay creator + privileged only.
func CanAccessRide(a Actor, ride RideRef) bool {
	return IsPrivileged(a) || ride.CreatorID == a.ID
}

// AssertCanAccessRide returns ErrForbidden unless CanAccessRide holds.
func AssertCanAccessRide(a Actor, ride RideRef) error {
	if !CanAccessRide(a, ride) {
		return ErrForbidden
	}
	return nil
}

// CanViewRide mirrors RideScopeFilter for a single loaded ride.
func CanViewRide(a Actor, ride RideRef) bool {
	if IsPrivileged(a) {
		return true
	}
	if a.ID == 0 {
		return false
	}
	if ride.CreatorID == a.ID {
		return true
	}
	return ride.AssignedDriverID != nil && *ride.AssignedDriverID == a.ID
}

// RideScopeFilter returns a gorm scope restricting ride queries to what
// the actor may see. Privileged actors see everything; everyone else sees
// rides they created or are driving; an actor without an identity sees
// nothing.
func RideScopeFilter(a Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if IsPrivileged(a) {
			return db
		}
		if a.ID == 0 {
			return db.Where("1 = 0")
		}
		return db.Where("creator_id = ? OR assigned_driver_id = ?", a.ID, a.ID)
	}
}
