package authz

import (
	"testing"

	"github.com/ridelink/ridelink-backend/internal/models"
)

func TestIsPrivileged(t *testing.T) {
	admin := Actor{ID: 1, Roles: []models.Role{models.RoleAdmin}}
	dispatcher := Actor{ID: 2, Roles: []models.Role{models.RoleDispatcher}}
	driver := Actor{ID: 3, Roles: []models.Role{models.RoleDriver}}
	customer := Actor{ID: 4, Roles: []models.Role{models.RoleCustomer}}

	if !IsPrivileged(admin) || !IsPrivileged(dispatcher) {
		t.Fatalf("admin and dispatcher are privileged")
	}
	if IsPrivileged(driver) || IsPrivileged(customer) {
		t.Fatalf("driver and customer are not privileged")
	}
	if IsPrivileged(Actor{}) {
		t.Fatalf("empty actor is not privileged")
	}
}

func TestCanAccessRideAsymmetry(t *testing.T) {
	driverID := uint(3)
	ride := RideRef{CreatorID: 4, AssignedDriverID: &driverID}

	creator := Actor{ID: 4, Roles: []models.Role{models.RoleCustomer}}
	if !CanAccessRide(creator, ride) {
		t.Fatalf("creator may mutate their ride")
	}

	// The assigned driver can see the ride but gets no mutation rights;
	// status updates have their own narrower permission path.
	assignedDriver := Actor{ID: driverID, Roles: []models.Role{models.RoleDriver}}
	if CanAccessRide(assignedDriver, ride) {
		t.Fatalf("assigned driver must not pass the mutation gate")
	}
	if !CanViewRide(assignedDriver, ride) {
		t.Fatalf("assigned driver must still see the ride")
	}

	admin := Actor{ID: 99, Roles: []models.Role{models.RoleAdmin}}
	if !CanAccessRide(admin, ride) {
		t.Fatalf("admin may mutate any ride")
	}

	stranger := Actor{ID: 50, Roles: []models.Role{models.RoleDriver}}
	if CanAccessRide(stranger, ride) || CanViewRide(stranger, ride) {
		t.Fatalf("unrelated driver sees nothing")
	}
}

func TestAssertCanAccessRide(t *testing.T) {
	ride := RideRef{CreatorID: 4}

	if err := AssertCanAccessRide(Actor{ID: 4}, ride); err != nil {
		t.Fatalf("creator: unexpected error %v", err)
	}
	if err := AssertCanAccessRide(Actor{ID: 5}, ride); err != ErrForbidden {
		t.Fatalf("stranger: expected ErrForbidden, got %v", err)
	}
}

func TestCanViewRideNoIdentity(t *testing.T) {
	ride := RideRef{CreatorID: 0}
	if CanViewRide(Actor{}, ride) {
		t.Fatalf("actor without identity sees nothing")
	}
}
