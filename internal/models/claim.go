package models

import (
	"gorm.io/gorm"
)

type ClaimStatus string

const (
	ClaimStatusQueued    ClaimStatus = "queued"
	ClaimStatusApproved  ClaimStatus = "approved"
	ClaimStatusRejected  ClaimStatus = "rejected"
	ClaimStatusWithdrawn ClaimStatus = "withdrawn"
)

// RideClaim is a driver's request to take a shared ride. A partial unique
// index on (ride_id, driver_id) WHERE status = 'queued' keeps a driver to
// one pending claim per ride; see database.RunMigrations. Once a claim
// leaves queued it is immutable history.
type RideClaim struct {
	gorm.Model
	RideID   uint        `json:"rideId" gorm:"column:ride_id;not null;index"`
	ShareID  *uint       `json:"shareId" gorm:"column:share_id;index"`
	DriverID uint        `json:"driverId" gorm:"column:driver_id;not null;index"`
	Status   ClaimStatus `json:"status" gorm:"column:status;not null;default:'queued'"`

	Ride   *Ride           `json:"ride,omitempty" gorm:"foreignKey:RideID"`
	Share  *RideGroupShare `json:"share,omitempty" gorm:"foreignKey:ShareID"`
	Driver *User           `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
}

// TableName specifies the table name
func (RideClaim) TableName() string {
	return "ride_claims"
}
