package models

import (
	"time"

	"gorm.io/gorm"
)

type RideType string

const (
	RideTypeReservation RideType = "reservation"
	RideTypeASAP        RideType = "asap"
)

// Payment is embedded in Ride; the dispatch core records it but never
// charges anything itself.
type Payment struct {
	Method string  `json:"method" gorm:"column:method"`
	Paid   bool    `json:"paid" gorm:"column:paid;default:false"`
	Amount float64 `json:"amount" gorm:"column:amount"`
}

// Ride is the root entity of the dispatch workflow. Shares and claims
// reference it; the ride row itself is the serialization point for every
// assignment-affecting write.
type Ride struct {
	gorm.Model
	CreatorID        uint       `json:"creatorId" gorm:"column:creator_id;not null;index"`
	AssignedDriverID *uint      `json:"assignedDriverId" gorm:"column:assigned_driver_id;index"`
	Status           RideStatus `json:"status" gorm:"column:status;not null;default:'unassigned'"`
	Datetime         time.Time  `json:"datetime" gorm:"column:datetime;not null"`
	Type             RideType   `json:"type" gorm:"column:type;not null;default:'reservation'"`
	Payment          Payment    `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`

	// Geo fields are consumed as given; no geocoding or routing happens here.
	FromAddr   string  `json:"fromAddress" gorm:"column:from_addr;not null"`
	FromLat    float64 `json:"fromLat" gorm:"column:from_lat"`
	FromLng    float64 `json:"fromLng" gorm:"column:from_lng"`
	ToAddr     string  `json:"toAddress" gorm:"column:to_addr;not null"`
	ToLat      float64 `json:"toLat" gorm:"column:to_lat"`
	ToLng      float64 `json:"toLng" gorm:"column:to_lng"`
	DistanceKm float64 `json:"distanceKm" gorm:"column:distance_km"`

	Creator        *User `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	AssignedDriver *User `json:"assignedDriver,omitempty" gorm:"foreignKey:AssignedDriverID"`
}

// TableName specifies the table name
func (Ride) TableName() string {
	return "rides"
}
