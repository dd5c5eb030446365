package models

import (
	"time"

	"gorm.io/gorm"
)

type ShareStatus string

const (
	ShareStatusActive  ShareStatus = "active"
	ShareStatusRevoked ShareStatus = "revoked"
	ShareStatusExpired ShareStatus = "expired"
)

// RideGroupShare offers a ride to every driver in a group. At most one
// share exists per (ride, group) pair, enforced by a composite unique
// index. Shares are never hard-deleted; revoked ones stay queryable.
type RideGroupShare struct {
	gorm.Model
	RideID    uint        `json:"rideId" gorm:"column:ride_id;not null;uniqueIndex:idx_shares_ride_group"`
	GroupID   uint        `json:"groupId" gorm:"column:group_id;not null;uniqueIndex:idx_shares_ride_group"`
	Exclusive bool        `json:"exclusive" gorm:"column:exclusive;not null;default:false"`
	Priority  int         `json:"priority" gorm:"column:priority;not null;default:0"`
	StartsAt  *time.Time  `json:"startsAt" gorm:"column:starts_at"`
	EndsAt    *time.Time  `json:"endsAt" gorm:"column:ends_at"`
	Status    ShareStatus `json:"status" gorm:"column:status;not null;default:'active'"`

	Ride  *Ride        `json:"ride,omitempty" gorm:"foreignKey:RideID"`
	Group *DriverGroup `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// TableName specifies the table name
func (RideGroupShare) TableName() string {
	return "ride_group_shares"
}

// WindowOpen reports whether the visibility window contains now. A share
// with no window is always open.
func (s *RideGroupShare) WindowOpen(now time.Time) bool {
	if s.StartsAt != nil && now.Before(*s.StartsAt) {
		return false
	}
	if s.EndsAt != nil && !now.Before(*s.EndsAt) {
		return false
	}
	return true
}

// EffectiveStatus derives the status at read time: a nominally active
// share past its end is expired. No background job flips rows.
func (s *RideGroupShare) EffectiveStatus(now time.Time) ShareStatus {
	if s.Status == ShareStatusRevoked {
		return ShareStatusRevoked
	}
	if s.EndsAt != nil && !now.Before(*s.EndsAt) {
		return ShareStatusExpired
	}
	return s.Status
}

// ActiveAt reports whether the share can take claims at now.
func (s *RideGroupShare) ActiveAt(now time.Time) bool {
	return s.EffectiveStatus(now) == ShareStatusActive && s.WindowOpen(now)
}
