package handlers

import (
	"context"
	"errors"
	"strconv"
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

var errRideUnavailable = errors.New("ride is no longer unassigned")

func parseID(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(v), true
}

// CreateRide handles the creation of a new ride
func CreateRide(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)

		var input struct {
			Datetime time.Time `json:"datetime" binding:"required"`
			Type     string    `json:"type" binding:"required,oneof=reservation asap"`
			From     struct {
				Lat     float64 `json:"lat"`
				Lng     float64 `json:"lng"`
				Address string  `json:"address" binding:"required"`
			} `json:"from" binding:"required"`
			To struct {
				Lat     float64 `json:"lat"`
				Lng     float64 `json:"lng"`
				Address string  `json:"address" binding:"required"`
			} `json:"to" binding:"required"`
			DistanceKm float64 `json:"distanceKm"`
			Payment    struct {
				Method string  `json:"method"`
				Amount float64 `json:"amount"`
			} `json:"payment"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		ride := models.Ride{
			CreatorID:  actor.ID,
			Status:     models.StatusUnassigned,
			Datetime:   input.Datetime,
			Type:       models.RideType(input.Type),
			FromAddr:   input.From.Address,
			FromLat:    input.From.Lat,
			FromLng:    input.From.Lng,
			ToAddr:     input.To.Address,
			ToLat:      input.To.Lat,
			ToLng:      input.To.Lng,
			DistanceKm: input.DistanceKm,
			Payment: models.Payment{
				Method: input.Payment.Method,
				Amount: input.Payment.Amount,
			},
		}

		if err := db.Create(&ride).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to create ride"})
			return
		}

		c.JSON(201, ride)
	}
}

// ListRides retrieves rides visible to the actor with pagination
func ListRides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		page, limit, offset := utils.ParsePagination(c.Query("page"), c.Query("limit"))

		query := db.Model(&models.Ride{}).Scopes(authz.RideScopeFilter(actor))

		if status := c.Query("status"); status != "" {
			if !models.IsValidStatus(models.RideStatus(status)) {
				c.JSON(400, gin.H{"error": "Invalid status filter"})
				return
			}
			query = query.Where("status = ?", status)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to count rides"})
			return
		}

		var rides []models.Ride
		if err := query.Preload("Creator").Preload("AssignedDriver").
			Order("datetime DESC").
			Offset(offset).Limit(limit).
			Find(&rides).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch rides"})
			return
		}

		c.JSON(200, utils.NewPageEnvelope(rides, page, limit, total))
	}
}

// GetRide retrieves a single ride if the actor may see it
func GetRide(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		rideID, ok := parseID(c, "rideId")
		if !ok {
			return
		}

		var ride models.Ride
		if err := db.Preload("Creator").Preload("AssignedDriver").First(&ride, rideID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}

		// Scope failures read as not-found so hidden rides don't leak
		if !authz.CanViewRide(actor, authz.Ref(&ride)) {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}

		c.JSON(200, ride)
	}
}

// GetRideStatus returns the current status, served from the Redis snapshot
// when possible
func GetRideStatus(db *gorm.DB) gin.HandlerFunc {
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

		if !authz.CanViewRide(actor, authz.Ref(&ride)) {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}

		ctx := context.Background()
		if cached, err := services.GetCachedRideStatus(ctx, rideID); err == nil && cached != "" {
			c.JSON(200, gin.H{"rideId": rideID, "status": cached})
			return
		}

		c.JSON(200, gin.H{"rideId": rideID, "status": ride.Status})
	}
}

// AssignDriver directly assigns a driver to an unassigned ride. Outstanding
// queued claims are rejected and active shares revoked in the same
// transaction, so a ride is spoken for through exactly one path.
func AssignDriver(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		rideID, ok := parseID(c, "rideId")
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

		var ride models.Ride
		if err := db.First(&ride, rideID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}

		if err := authz.AssertCanAccessRide(actor, authz.Ref(&ride)); err != nil {
			c.JSON(403, gin.H{"error": "Unauthorized to assign this ride"})
			return
		}

		var driver models.User
		if err := db.First(&driver, input.DriverID).Error; err != nil || driver.Role != models.RoleDriver {
			c.JSON(400, gin.H{"error": "Driver not found"})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			// Conditional update on the ride row is the serialization
			// point against concurrent claim approvals.
			res := tx.Model(&models.Ride{}).
				Where("id = ? AND status = ? AND assigned_driver_id IS NULL", rideID, models.StatusUnassigned).
				Updates(map[string]interface{}{
					"status":             models.StatusAssigned,
					"assigned_driver_id": input.DriverID,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errRideUnavailable
			}

			if err := tx.Model(&models.RideClaim{}).
				Where("ride_id = ? AND status = ?", rideID, models.ClaimStatusQueued).
				Update("status", models.ClaimStatusRejected).Error; err != nil {
				return err
			}

			return tx.Model(&models.RideGroupShare{}).
				Where("ride_id = ? AND status = ?", rideID, models.ShareStatusActive).
				Update("status", models.ShareStatusRevoked).Error
		})
		if errors.Is(err, errRideUnavailable) {
			c.JSON(409, gin.H{"error": "Ride is not unassigned"})
			return
		}
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to assign driver"})
			return
		}

		observability.RidesAssignedTotal.Inc()

		ctx := context.Background()
		services.CacheRideStatus(ctx, rideID, string(models.StatusAssigned))
		services.PublishRideUpdate(ctx, rideID, "assigned", map[string]interface{}{
			"driverId": input.DriverID,
		})

		hub.SendRideStatusUpdate(input.DriverID, services.RideStatusUpdate{
			RideID: rideID,
			Status: string(models.StatusAssigned),
		})
		hub.SendRideStatusUpdate(ride.CreatorID, services.RideStatusUpdate{
			RideID: rideID,
			Status: string(models.StatusAssigned),
		})

		c.JSON(200, gin.H{"ok": true, "status": models.StatusAssigned})
	}
}

// UnassignDriver clears the assigned driver and returns the ride to
// unassigned. Shares and claims are left as they are; revoking or
// re-offering is an explicit follow-up action.
func UnassignDriver(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
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
			c.JSON(403, gin.H{"error": "Unauthorized to unassign this ride"})
			return
		}

		res := db.Model(&models.Ride{}).
			Where("id = ? AND status = ? AND assigned_driver_id IS NOT NULL", rideID, models.StatusAssigned).
			Updates(map[string]interface{}{
				"status":             models.StatusUnassigned,
				"assigned_driver_id": nil,
			})
		if res.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to unassign driver"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(409, gin.H{"error": "Ride has no removable driver"})
			return
		}

		ctx := context.Background()
		services.CacheRideStatus(ctx, rideID, string(models.StatusUnassigned))
		services.PublishRideUpdate(ctx, rideID, "unassigned", nil)

		if ride.AssignedDriverID != nil {
			hub.SendRideStatusUpdate(*ride.AssignedDriverID, services.RideStatusUpdate{
				RideID: rideID,
				Status: string(models.StatusUnassigned),
			})
		}

		c.JSON(200, gin.H{"ok": true, "status": models.StatusUnassigned})
	}
}

// SetRideStatus advances a ride along its lifecycle. The assigned driver
// moves one step at a time; admins and dispatchers may jump forward.
func SetRideStatus(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		rideID, ok := parseID(c, "rideId")
		if !ok {
			return
		}

		var input struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		next := models.RideStatus(input.Status)
		if !models.IsValidStatus(next) {
			c.JSON(400, gin.H{"error": "Invalid status"})
			return
		}

		var ride models.Ride
		if err := db.First(&ride, rideID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}

		// Transition legality is reported before eligibility so an
		// impossible move reads as invalid, not forbidden
		privileged := authz.IsPrivileged(actor)
		if !models.CanTransition(ride.Status, next, privileged) {
			c.JSON(422, gin.H{"error": "Invalid status transition"})
			return
		}

		isAssignedDriver := ride.AssignedDriverID != nil && *ride.AssignedDriverID == actor.ID
		if !privileged && !isAssignedDriver {
			c.JSON(403, gin.H{"error": "Unauthorized to update this ride"})
			return
		}

		// Guard against a concurrent transition between read and write
		res := db.Model(&models.Ride{}).
			Where("id = ? AND status = ?", rideID, ride.Status).
			Update("status", next)
		if res.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to update ride status"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(409, gin.H{"error": "Ride status changed concurrently"})
			return
		}

		ctx := context.Background()
		services.CacheRideStatus(ctx, rideID, string(next))
		services.PublishRideUpdate(ctx, rideID, "status_update", map[string]interface{}{
			"status": string(next),
		})

		update := services.RideStatusUpdate{RideID: rideID, Status: string(next)}
		hub.SendRideStatusUpdate(ride.CreatorID, update)
		if ride.AssignedDriverID != nil {
			hub.SendRideStatusUpdate(*ride.AssignedDriverID, update)
		}

		c.JSON(200, gin.H{"ok": true, "status": next})
	}
}

// DeleteRide hard-deletes a ride and cascades to its shares and claims
func DeleteRide(db *gorm.DB) gin.HandlerFunc {
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
			c.JSON(403, gin.H{"error": "Unauthorized to delete this ride"})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Unscoped().Where("ride_id = ?", rideID).Delete(&models.RideClaim{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("ride_id = ?", rideID).Delete(&models.RideGroupShare{}).Error; err != nil {
				return err
			}
			return tx.Unscoped().Delete(&models.Ride{}, rideID).Error
		})
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete ride"})
			return
		}

		ctx := context.Background()
		services.InvalidateRideStatus(ctx, rideID)
		services.PublishRideUpdate(ctx, rideID, "deleted", nil)

		c.JSON(200, gin.H{"ok": true, "message": "Ride successfully deleted"})
	}
}
