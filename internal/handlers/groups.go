package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridelink/ridelink-backend/internal/authz"
	"github.com/ridelink/ridelink-backend/internal/middleware"
	"github.com/ridelink/ridelink-backend/internal/models"
	"github.com/ridelink/ridelink-backend/pkg/utils"
	"gorm.io/gorm"
)

// CreateGroup creates a driver group that rides can be shared with
func CreateGroup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		if !authz.IsPrivileged(actor) {
			c.JSON(403, gin.H{"error": "Only dispatchers and admins can create groups"})
			return
		}

		var input struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		group := models.DriverGroup{Name: input.Name, CreatedBy: actor.ID}
		if err := db.Create(&group).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(409, gin.H{"error": "A group with this name already exists"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to create group"})
			return
		}

		c.JSON(201, group)
	}
}

// ListGroups lists all groups for privileged actors, or the driver's own
// memberships
func ListGroups(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		page, limit, offset := utils.ParsePagination(c.Query("page"), c.Query("limit"))

		query := db.Model(&models.DriverGroup{})
		if !authz.IsPrivileged(actor) {
			query = query.
				Joins("JOIN group_members ON group_members.group_id = driver_groups.id AND group_members.deleted_at IS NULL").
				Where("group_members.driver_id = ?", actor.ID)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to count groups"})
			return
		}

		var groups []models.DriverGroup
		if err := query.Order("driver_groups.name ASC").
			Offset(offset).Limit(limit).
			Find(&groups).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch groups"})
			return
		}

		c.JSON(200, utils.NewPageEnvelope(groups, page, limit, total))
	}
}

// AddMember adds a driver to a group
func AddMember(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		if !authz.IsPrivileged(actor) {
			c.JSON(403, gin.H{"error": "Only dispatchers and admins can manage members"})
			return
		}

		groupID, ok := parseID(c, "groupId")
		if !ok {
			return
		}

		var input struct {
			DriverID uint `json:"driverId" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var group models.DriverGroup
		if err := db.First(&group, groupID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Group not found"})
			return
		}

		var driver models.User
		if err := db.First(&driver, input.DriverID).Error; err != nil || driver.Role != models.RoleDriver {
			c.JSON(400, gin.H{"error": "Driver not found"})
			return
		}

		member := models.GroupMember{GroupID: groupID, DriverID: input.DriverID}
		if err := db.Create(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(409, gin.H{"error": "Driver is already a member of this group"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to add member"})
			return
		}

		c.JSON(201, member)
	}
}

// RemoveMember removes a driver from a group
func RemoveMember(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		if !authz.IsPrivileged(actor) {
			c.JSON(403, gin.H{"error": "Only dispatchers and admins can manage members"})
			return
		}

		groupID, ok := parseID(c, "groupId")
		if !ok {
			return
		}
		driverID, ok := parseID(c, "driverId")
		if !ok {
			return
		}

		res := db.Where("group_id = ? AND driver_id = ?", groupID, driverID).
			Delete(&models.GroupMember{})
		if res.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to remove member"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(404, gin.H{"error": "Membership not found"})
			return
		}

		c.JSON(200, gin.H{"ok": true})
	}
}

// ListMembers lists a group's drivers
func ListMembers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		if !authz.IsPrivileged(actor) {
			c.JSON(403, gin.H{"error": "Only dispatchers and admins can view members"})
			return
		}

		groupID, ok := parseID(c, "groupId")
		if !ok {
			return
		}

		var members []models.GroupMember
		if err := db.Preload("Driver").
			Where("group_id = ?", groupID).
			Order("created_at ASC").
			Find(&members).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch members"})
			return
		}

		c.JSON(200, members)
	}
}

// CreateInvite mints a one-time invite code for a group
func CreateInvite(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		if !authz.IsPrivileged(actor) {
			c.JSON(403, gin.H{"error": "Only dispatchers and admins can create invites"})
			return
		}

		groupID, ok := parseID(c, "groupId")
		if !ok {
			return
		}

		var group models.DriverGroup
		if err := db.First(&group, groupID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Group not found"})
			return
		}

		uniqueKey := fmt.Sprintf("%d-%d-%s", groupID, actor.ID, time.Now().Format("20060102150405.000"))
		expiresAt := time.Now().Add(utils.InviteExpiration)

		invite := models.GroupInvite{
			GroupID:   groupID,
			Code:      utils.GenerateInviteCode(uniqueKey),
			CreatedBy: actor.ID,
			ExpiresAt: &expiresAt,
		}

		if err := db.Create(&invite).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create invite"})
			return
		}

		c.JSON(201, invite)
	}
}

// AcceptInvite redeems an invite code, adding the calling driver to the
// group. The conditional update on used_by makes redemption race-safe.
func AcceptInvite(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		if !actor.HasRole(models.RoleDriver) {
			c.JSON(403, gin.H{"error": "Only drivers can accept invites"})
			return
		}

		var input struct {
			Code string `json:"code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var invite models.GroupInvite
		if err := db.Where("code = ?", input.Code).First(&invite).Error; err != nil {
			c.JSON(404, gin.H{"error": "Invite not found"})
			return
		}

		if !invite.CanAccept(time.Now()) {
			c.JSON(409, gin.H{"error": "Invite is no longer valid"})
			return
		}

		now := time.Now()
		err := db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.GroupInvite{}).
				Where("id = ? AND used_by IS NULL", invite.ID).
				Updates(map[string]interface{}{"used_by": actor.ID, "used_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrDuplicatedKey
			}

			member := models.GroupMember{GroupID: invite.GroupID, DriverID: actor.ID}
			return tx.Create(&member).Error
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(409, gin.H{"error": "Invite already used or driver already a member"})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to accept invite"})
			return
		}

		c.JSON(200, gin.H{"ok": true, "groupId": invite.GroupID})
	}
}
