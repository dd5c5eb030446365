package models

import "testing"

func TestStatusFlowOrdering(t *testing.T) {
	if StatusIndex(StatusUnassigned) != 0 {
		t.Fatalf("expected unassigned first in flow")
	}
	if StatusIndex(StatusCompleted) != len(StatusFlow)-1 {
		t.Fatalf("expected completed last in flow")
	}
	if StatusIndex("clear") != -1 {
		t.Fatalf("clear is not a modeled status")
	}
	if IsValidStatus("cancelled") {
		t.Fatalf("cancelled is not a modeled status")
	}
}

func TestNextStatus(t *testing.T) {
	next, ok := NextStatus(StatusPOB)
	if !ok || next != StatusCompleted {
		t.Fatalf("expected pob -> completed, got %s (ok=%v)", next, ok)
	}
	if _, ok := NextStatus(StatusCompleted); ok {
		t.Fatalf("completed is terminal")
	}
	if _, ok := NextStatus("bogus"); ok {
		t.Fatalf("unknown status has no successor")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name       string
		from, to   RideStatus
		privileged bool
		want       bool
	}{
		{"driver advances one step", StatusAssigned, StatusOnMyWay, false, true},
		{"driver finishes ride", StatusPOB, StatusCompleted, false, true},
		{"driver cannot skip", StatusAssigned, StatusPOB, false, false},
		{"admin may skip forward", StatusAssigned, StatusPOB, true, true},
		{"admin cannot go backward", StatusPOB, StatusOnMyWay, true, false},
		{"no shortcut from unassigned", StatusUnassigned, StatusOnLocation, false, false},
		{"unassigned even for admin", StatusUnassigned, StatusOnLocation, true, false},
		{"assignment is not a status update", StatusUnassigned, StatusAssigned, true, false},
		{"unassignment is not a status update", StatusAssigned, StatusUnassigned, true, false},
		{"no self transition", StatusOnMyWay, StatusOnMyWay, false, false},
		{"unknown target", StatusAssigned, "clear", true, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to, tt.privileged); got != tt.want {
			t.Errorf("%s: CanTransition(%s, %s, %v) = %v, want %v",
				tt.name, tt.from, tt.to, tt.privileged, got, tt.want)
		}
	}
}
