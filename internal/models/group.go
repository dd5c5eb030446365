package models

import (
	"time"

	"gorm.io/gorm"
)

// DriverGroup is an audience for ride shares.
type DriverGroup struct {
	gorm.Model
	Name      string `json:"name" gorm:"column:name;unique;not null"`
	CreatedBy uint   `json:"createdBy" gorm:"column:created_by;not null"`
}

// TableName specifies the table name
func (DriverGroup) TableName() string {
	return "driver_groups"
}

// GroupMember links a driver into a group. One row per (group, driver).
type GroupMember struct {
	gorm.Model
	GroupID  uint `json:"groupId" gorm:"column:group_id;not null;uniqueIndex:idx_group_members_group_driver"`
	DriverID uint `json:"driverId" gorm:"column:driver_id;not null;uniqueIndex:idx_group_members_group_driver"`

	Group  *DriverGroup `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	Driver *User        `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
}

// TableName specifies the table name
func (GroupMember) TableName() string {
	return "group_members"
}

// GroupInvite onboards a driver into a group via a one-time code. Invites
// are peripheral to the ride state machine.
type GroupInvite struct {
	gorm.Model
	GroupID   uint       `json:"groupId" gorm:"column:group_id;not null;index"`
	Code      string     `json:"code" gorm:"column:code;unique;not null"`
	CreatedBy uint       `json:"createdBy" gorm:"column:created_by;not null"`
	UsedBy    *uint      `json:"usedBy,omitempty" gorm:"column:used_by"`
	UsedAt    *time.Time `json:"usedAt,omitempty" gorm:"column:used_at"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" gorm:"column:expires_at"`

	Group *DriverGroup `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// TableName specifies the table name
func (GroupInvite) TableName() string {
	return "group_invites"
}

// IsUsed returns true if the invite has been accepted.
func (i *GroupInvite) IsUsed() bool {
	return i.UsedAt != nil
}

// IsExpired returns true once the invite passed its expiry, if it has one.
func (i *GroupInvite) IsExpired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}

// CanAccept reports whether the invite is still redeemable.
func (i *GroupInvite) CanAccept(now time.Time) bool {
	return !i.IsUsed() && !i.IsExpired(now)
}
