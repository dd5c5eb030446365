package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ridelink/ridelink-backend/internal/authz"
	"github.com/ridelink/ridelink-backend/internal/middleware"
	"github.com/ridelink/ridelink-backend/internal/models"
	"github.com/ridelink/ridelink-backend/internal/observability"
	"github.com/ridelink/ridelink-backend/internal/services"
	"gorm.io/gorm"
)

var errClaimNotQueued = errors.New("claim is no longer queued")

// QueueClaim creates a queued claim for the calling driver against a
// share. The partial unique index on ride_claims is what actually keeps a
// driver to one pending claim per ride; the checks before the insert only
// produce friendlier errors.
func QueueClaim(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		if !actor.HasRole(models.RoleDriver) {
			c.JSON(403, gin.H{"error": "Only drivers can claim rides"})
			return
		}

		shareID, ok := parseID(c, "shareId")
		if !ok {
			return
		}

		var share models.RideGroupShare
		if err := db.Preload("Ride").First(&share, shareID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Share not found"})
			return
		}

		now := time.Now()
		// Inactive, revoked, and out-of-window shares all read as absent
		if !share.ActiveAt(now) {
			c.JSON(404, gin.H{"error": "Share is not open for claims"})
			return
		}

		var membership models.GroupMember
		if err := db.Where("group_id = ? AND driver_id = ?", share.GroupID, actor.ID).
			First(&membership).Error; err != nil {
			c.JSON(404, gin.H{"error": "Share is not open for claims"})
			return
		}

		// An active exclusive share on the ride hides every other share
		if !share.Exclusive {
			var exclusives []models.RideGroupShare
			if err := db.Where("ride_id = ? AND status = ? AND exclusive = ? AND id <> ?",
				share.RideID, models.ShareStatusActive, true, share.ID).
				Find(&exclusives).Error; err == nil {
				for _, e := range exclusives {
					if e.ActiveAt(now) {
						c.JSON(404, gin.H{"error": "Share is not open for claims"})
						return
					}
				}
			}
		}

		if share.Ride == nil || share.Ride.Status != models.StatusUnassigned {
			c.JSON(409, gin.H{"error": "Ride is no longer open for claims"})
			return
		}

		claim := models.RideClaim{
			RideID:   share.RideID,
			ShareID:  &share.ID,
			DriverID: actor.ID,
			Status:   models.ClaimStatusQueued,
		}

		if err := db.Create(&claim).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(409, gin.H{"error": "You already have a pending claim on this ride"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to queue claim"})
			return
		}

		observability.ClaimsQueuedTotal.Inc()

		ctx := context.Background()
		services.PublishRideUpdate(ctx, share.RideID, "claim_queued", map[string]interface{}{
			"claimId":  claim.ID,
			"driverId": actor.ID,
		})

		hub.SendClaimQueued(services.ClaimQueued{
			ClaimID:  claim.ID,
			RideID:   share.RideID,
			DriverID: actor.ID,
		})

		c.JSON(201, claim)
	}
}

// ListClaims lists a ride's claims for its creator or a privileged actor
func ListClaims(db *gorm.DB) gin.HandlerFunc {
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
			c.JSON(403, gin.H{"error": "Unauthorized to view claims"})
			return
		}

		var claims []models.RideClaim
		if err := db.Preload("Driver").Preload("Share").
			Where("ride_id = ?", rideID).
			Order("created_at ASC").
			Find(&claims).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch claims"})
			return
		}

		c.JSON(200, claims)
	}
}

// ApproveClaim approves a queued claim: the claim wins the ride, all other
// queued claims are rejected, and active shares are revoked. Everything
// rides in one transaction; the conditional update on the ride row decides
// the winner when two approvals race, and the loser gets a 409.
func ApproveClaim(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		rideID, ok := parseID(c, "rideId")
		if !ok {
			return
		}
		claimID, ok := parseID(c, "claimId")
		if !ok {
			return
		}

		var ride models.Ride
		if err := db.First(&ride, rideID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}
		if err := authz.AssertCanAccessRide(actor, authz.Ref(&ride)); err != nil {
			c.JSON(403, gin.H{"error": "Unauthorized to approve claims"})
			return
		}

		var claim models.RideClaim
		if err := db.Where("id = ? AND ride_id = ?", claimID, rideID).First(&claim).Error; err != nil {
			c.JSON(404, gin.H{"error": "Claim not found"})
			return
		}
		if claim.Status != models.ClaimStatusQueued {
			c.JSON(409, gin.H{"error": "Claim is not queued"})
			return
		}

		var rejected []models.RideClaim

		err := db.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Ride{}).
				Where("id = ? AND status = ? AND assigned_driver_id IS NULL", rideID, models.StatusUnassigned).
				Updates(map[string]interface{}{
					"status":             models.StatusAssigned,
					"assigned_driver_id": claim.DriverID,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errRideUnavailable
			}

			res = tx.Model(&models.RideClaim{}).
				Where("id = ? AND status = ?", claim.ID, models.ClaimStatusQueued).
				Update("status", models.ClaimStatusApproved)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Withdrawn between our read and the update
				return errClaimNotQueued
			}

			if err := tx.Where("ride_id = ? AND status = ? AND id <> ?",
				rideID, models.ClaimStatusQueued, claim.ID).
				Find(&rejected).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.RideClaim{}).
				Where("ride_id = ? AND status = ? AND id <> ?", rideID, models.ClaimStatusQueued, claim.ID).
				Update("status", models.ClaimStatusRejected).Error; err != nil {
				return err
			}

			return tx.Model(&models.RideGroupShare{}).
				Where("ride_id = ? AND status = ?", rideID, models.ShareStatusActive).
				Update("status", models.ShareStatusRevoked).Error
		})
		if errors.Is(err, errRideUnavailable) || errors.Is(err, errClaimNotQueued) {
			observability.ClaimApprovalsTotal.WithLabelValues("lost").Inc()
			c.JSON(409, gin.H{"error": "Ride is no longer available for this claim"})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to approve claim"})
			return
		}

		observability.ClaimApprovalsTotal.WithLabelValues("won").Inc()
		observability.RidesAssignedTotal.Inc()

		ctx := context.Background()
		services.CacheRideStatus(ctx, rideID, string(models.StatusAssigned))
		services.PublishRideUpdate(ctx, rideID, "claim_approved", map[string]interface{}{
			"claimId":  claim.ID,
			"driverId": claim.DriverID,
		})

		hub.SendClaimResolved(claim.DriverID, services.ClaimResolved{
			ClaimID: claim.ID,
			RideID:  rideID,
			Status:  string(models.ClaimStatusApproved),
		})
		for _, r := range rejected {
			hub.SendClaimResolved(r.DriverID, services.ClaimResolved{
				ClaimID: r.ID,
				RideID:  rideID,
				Status:  string(models.ClaimStatusRejected),
			})
		}

		c.JSON(200, gin.H{"ok": true, "status": models.StatusAssigned})
	}
}

// RejectClaim rejects a queued claim without touching the ride
func RejectClaim(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		rideID, ok := parseID(c, "rideId")
		if !ok {
			return
		}
		claimID, ok := parseID(c, "claimId")
		if !ok {
			return
		}

		var ride models.Ride
		if err := db.First(&ride, rideID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}
		if err := authz.AssertCanAccessRide(actor, authz.Ref(&ride)); err != nil {
			c.JSON(403, gin.H{"error": "Unauthorized to reject claims"})
			return
		}

		var claim models.RideClaim
		if err := db.Where("id = ? AND ride_id = ?", claimID, rideID).First(&claim).Error; err != nil {
			c.JSON(404, gin.H{"error": "Claim not found"})
			return
		}

		res := db.Model(&models.RideClaim{}).
			Where("id = ? AND status = ?", claimID, models.ClaimStatusQueued).
			Update("status", models.ClaimStatusRejected)
		if res.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to reject claim"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(409, gin.H{"error": "Claim is not queued"})
			return
		}

		hub.SendClaimResolved(claim.DriverID, services.ClaimResolved{
			ClaimID: claim.ID,
			RideID:  rideID,
			Status:  string(models.ClaimStatusRejected),
		})

		c.JSON(200, gin.H{"ok": true, "status": models.ClaimStatusRejected})
	}
}

// WithdrawClaim lets the claiming driver withdraw a queued claim
func WithdrawClaim(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		rideID, ok := parseID(c, "rideId")
		if !ok {
			return
		}
		claimID, ok := parseID(c, "claimId")
		if !ok {
			return
		}

		var claim models.RideClaim
		if err := db.Where("id = ? AND ride_id = ?", claimID, rideID).First(&claim).Error; err != nil {
			c.JSON(404, gin.H{"error": "Claim not found"})
			return
		}

		if claim.DriverID != actor.ID {
			c.JSON(403, gin.H{"error": "Unauthorized to withdraw this claim"})
			return
		}

		res := db.Model(&models.RideClaim{}).
			Where("id = ? AND status = ?", claimID, models.ClaimStatusQueued).
			Update("status", models.ClaimStatusWithdrawn)
		if res.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to withdraw claim"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(409, gin.H{"error": "Claim is not queued"})
			return
		}

		c.JSON(200, gin.H{"ok": true, "status": models.ClaimStatusWithdrawn})
	}
}
