package handlers

import (
	"errors"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridelink/ridelink-backend/internal/authz"
	"github.com/ridelink/ridelink-backend/internal/middleware"
	"github.com/ridelink/ridelink-backend/internal/models"
	"github.com/ridelink/ridelink-backend/internal/observability"
	"github.com/ridelink/ridelink-backend/internal/services"
	"github.com/ridelink/ridelink-backend/pkg/utils"
	"gorm.io/gorm"
)

// CreateShare offers an unassigned ride to a driver group
func CreateShare(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		rideID, ok := parseID(c, "rideId")
		if !ok {
			return
		}

		var input struct {
			GroupID   uint       `json:"groupId" binding:"required"`
			Exclusive bool       `json:"exclusive"`
			Priority  int        `json:"priority"`
			StartsAt  *time.Time `json:"startsAt"`
			EndsAt    *time.Time `json:"endsAt"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.StartsAt != nil && input.EndsAt != nil && !input.EndsAt.After(*input.StartsAt) {
			c.JSON(400, gin.H{"error": "Share window must end after it starts"})
			return
		}

		var ride models.Ride
		if err := db.First(&ride, rideID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}

		if err := authz.AssertCanAccessRide(actor, authz.Ref(&ride)); err != nil {
			c.JSON(403, gin.H{"error": "Unauthorized to share this ride"})
			return
		}

		// A ride with a committed driver cannot be freshly offered
		if ride.Status != models.StatusUnassigned {
			c.JSON(409, gin.H{"error": "Ride is not unassigned"})
			return
		}

		var group models.DriverGroup
		if err := db.First(&group, input.GroupID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Group not found"})
			return
		}

		share := models.RideGroupShare{
			RideID:    rideID,
			GroupID:   input.GroupID,
			Exclusive: input.Exclusive,
			Priority:  input.Priority,
			StartsAt:  input.StartsAt,
			EndsAt:    input.EndsAt,
			Status:    models.ShareStatusActive,
		}

		if err := db.Create(&share).Error; err != nil {
			// The composite unique index owns the one-share-per-group rule
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(409, gin.H{"error": "Ride is already shared with this group"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to create share"})
			return
		}

		observability.SharesCreatedTotal.Inc()

		// Offer the ride to every group member currently connected
		var members []models.GroupMember
		if err := db.Where("group_id = ?", input.GroupID).Find(&members).Error; err == nil {
			notification := services.ShareCreated{
				ShareID:   share.ID,
				RideID:    rideID,
				GroupID:   input.GroupID,
				Priority:  share.Priority,
				Exclusive: share.Exclusive,
			}
			for _, m := range members {
				hub.SendShareCreated(m.DriverID, notification)
			}
		}

		c.JSON(201, share)
	}
}

// RevokeShare marks a share revoked. Approved claims are history and stay
// untouched; only future queued claims are cut off.
func RevokeShare(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		shareID, ok := parseID(c, "shareId")
		if !ok {
			return
		}

		var share models.RideGroupShare
		if err := db.Preload("Ride").First(&share, shareID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Share not found"})
			return
		}

		if share.Ride == nil {
			c.JSON(404, gin.H{"error": "Share not found"})
			return
		}
		if err := authz.AssertCanAccessRide(actor, authz.Ref(share.Ride)); err != nil {
			c.JSON(403, gin.H{"error": "Unauthorized to revoke this share"})
			return
		}

		res := db.Model(&models.RideGroupShare{}).
			Where("id = ? AND status = ?", shareID, models.ShareStatusActive).
			Update("status", models.ShareStatusRevoked)
		if res.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to revoke share"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(409, gin.H{"error": "Share is not active"})
			return
		}

		c.JSON(200, gin.H{"ok": true, "status": models.ShareStatusRevoked})
	}
}

// ListActiveShares lists shares of a ride that can currently take claims.
// Expiry is computed at read time; rows past their window are filtered out
// even when still nominally active.
func ListActiveShares(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		rideID, ok := parseID(c, "rideId")
		if !ok {
			return
		}

		var ride models.Ride
		if err := db.First(&ride, rideID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}
		if err := authz.AssertCanAccessRide(actor, authz.Ref(&ride)); err != nil {
			c.JSON(403, gin.H{"error": "Unauthorized to view shares"})
			return
		}

		var shares []models.RideGroupShare
		if err := db.Preload("Group").
			Where("ride_id = ? AND status = ?", rideID, models.ShareStatusActive).
			Order("priority DESC, created_at ASC").
			Find(&shares).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch shares"})
			return
		}

		now := time.Now()
		active := make([]models.RideGroupShare, 0, len(shares))
		for _, s := range shares {
			if s.ActiveAt(now) {
				active = append(active, s)
			}
		}

		c.JSON(200, active)
	}
}

// ListRevokedShares lists revoked shares kept for history
func ListRevokedShares(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		rideID, ok := parseID(c, "rideId")
		if !ok {
			return
		}

		var ride models.Ride
		if err := db.First(&ride, rideID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}
		if err := authz.AssertCanAccessRide(actor, authz.Ref(&ride)); err != nil {
			c.JSON(403, gin.H{"error": "Unauthorized to view shares"})
			return
		}

		var shares []models.RideGroupShare
		if err := db.Preload("Group").
			Where("ride_id = ? AND status = ?", rideID, models.ShareStatusRevoked).
			Order("updated_at DESC").
			Find(&shares).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch shares"})
			return
		}

		c.JSON(200, shares)
	}
}

// visibleOffers filters candidate shares down to what one driver may see
// at now: the share must be claimable, and an active exclusive share on
// the same ride hides it from every other share's audience.
func visibleOffers(shares []models.RideGroupShare, memberGroups map[uint]bool, now time.Time) []models.RideGroupShare {
	exclusiveByRide := make(map[uint]uint) // rideID -> groupID holding exclusivity
	for _, s := range shares {
		if s.Exclusive && s.ActiveAt(now) {
			exclusiveByRide[s.RideID] = s.GroupID
		}
	}

	out := make([]models.RideGroupShare, 0, len(shares))
	for _, s := range shares {
		if !memberGroups[s.GroupID] || !s.ActiveAt(now) {
			continue
		}
		if holder, ok := exclusiveByRide[s.RideID]; ok && holder != s.GroupID {
			continue
		}
		out = append(out, s)
	}
	return out
}

// sortOffers surfaces higher-priority shares first, oldest first on ties
func sortOffers(shares []models.RideGroupShare) {
	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Priority != shares[j].Priority {
			return shares[i].Priority > shares[j].Priority
		}
		return shares[i].CreatedAt.Before(shares[j].CreatedAt)
	})
}

// DriverOffers lists the shares currently claimable by the calling driver
// through group membership
func DriverOffers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		if !actor.HasRole(models.RoleDriver) {
			c.JSON(403, gin.H{"error": "Only drivers can view ride offers"})
			return
		}

		page, limit, offset := utils.ParsePagination(c.Query("page"), c.Query("limit"))

		var memberships []models.GroupMember
		if err := db.Where("driver_id = ?", actor.ID).Find(&memberships).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch group memberships"})
			return
		}
		memberGroups := make(map[uint]bool, len(memberships))
		groupIDs := make([]uint, 0, len(memberships))
		for _, m := range memberships {
			memberGroups[m.GroupID] = true
			groupIDs = append(groupIDs, m.GroupID)
		}
		if len(groupIDs) == 0 {
			c.JSON(200, utils.NewPageEnvelope([]models.RideGroupShare{}, page, limit, 0))
			return
		}

		// Fetch all active shares for rides the driver's groups were
		// offered, not only the driver's own, so exclusivity can be
		// evaluated across competing shares.
		var rideIDs []uint
		if err := db.Model(&models.RideGroupShare{}).
			Where("group_id IN ? AND status = ?", groupIDs, models.ShareStatusActive).
			Distinct().Pluck("ride_id", &rideIDs).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch offers"})
			return
		}
		if len(rideIDs) == 0 {
			c.JSON(200, utils.NewPageEnvelope([]models.RideGroupShare{}, page, limit, 0))
			return
		}

		var shares []models.RideGroupShare
		if err := db.Preload("Ride").
			Joins("JOIN rides ON rides.id = ride_group_shares.ride_id AND rides.status = ? AND rides.deleted_at IS NULL", models.StatusUnassigned).
			Where("ride_group_shares.ride_id IN ? AND ride_group_shares.status = ?", rideIDs, models.ShareStatusActive).
			Find(&shares).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch offers"})
			return
		}

		offers := visibleOffers(shares, memberGroups, time.Now())
		sortOffers(offers)

		total := int64(len(offers))
		if offset >= len(offers) {
			offers = []models.RideGroupShare{}
		} else {
			end := offset + limit
			if end > len(offers) {
				end = len(offers)
			}
			offers = offers[offset:end]
		}

		c.JSON(200, utils.NewPageEnvelope(offers, page, limit, total))
	}
}
