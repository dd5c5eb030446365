package models

type RideStatus string

// Ride lifecycle. The order of StatusFlow is the order rides move through:
// a driver advances one step at a time, admins and dispatchers may jump
// forward. Moves into or out of unassigned/assigned also change
// assigned_driver_id and go through the assign/unassign/approve paths,
// never through a plain status update.
const (
	StatusUnassigned RideStatus = "unassigned"
	StatusAssigned   RideStatus = "assigned"
	StatusOnMyWay    RideStatus = "on_my_way"
	StatusOnLocation RideStatus = "on_location"
	StatusPOB        RideStatus = "pob"
	StatusCompleted  RideStatus = "completed"
)

var StatusFlow = []RideStatus{
	StatusUnassigned,
	StatusAssigned,
	StatusOnMyWay,
	StatusOnLocation,
	StatusPOB,
	StatusCompleted,
}

// StatusIndex returns the position of s in StatusFlow, or -1 for an
// unknown status.
func StatusIndex(s RideStatus) int {
	for i, v := range StatusFlow {
		if v == s {
			return i
		}
	}
	return -1
}

// IsValidStatus reports whether s is one of the six lifecycle values.
func IsValidStatus(s RideStatus) bool {
	return StatusIndex(s) >= 0
}

// NextStatus returns the immediate successor of s. ok is false when s is
// terminal or unknown.
func NextStatus(s RideStatus) (RideStatus, bool) {
	i := StatusIndex(s)
	if i < 0 || i == len(StatusFlow)-1 {
		return "", false
	}
	return StatusFlow[i+1], true
}

// CanTransition reports whether a status update from -> to is legal.
// Drivers get exactly the next step; privileged actors may skip forward.
// Transitions touching unassigned or assigned are excluded here because
// they also mutate the assigned driver.
func CanTransition(from, to RideStatus, privileged bool) bool {
	fi := StatusIndex(from)
	ti := StatusIndex(to)
	if fi < 0 || ti < 0 {
		return false
	}
	if from == StatusUnassigned || to == StatusUnassigned || to == StatusAssigned {
		return false
	}
	if privileged {
		return ti > fi
	}
	return ti == fi+1
}
