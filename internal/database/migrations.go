package database

import (
	"github.com/ridelink/ridelink-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Ride{},
		&models.RideGroupShare{},
		&models.RideClaim{},
		&models.DriverGroup{},
		&models.GroupMember{},
		&models.GroupInvite{},
	)
	if err != nil {
		return err
	}

	// Partial unique index: a driver holds at most one queued claim per
	// ride. This closes the race between concurrent claim attempts that an
	// application-level pre-check cannot; once the claim leaves queued the
	// row drops out of the index and history can accumulate.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ride_claims_one_queued
		ON ride_claims (ride_id, driver_id)
		WHERE status = 'queued'
	`).Error; err != nil {
		return err
	}

	// Update rides table constraint
	db.Exec(`ALTER TABLE rides DROP CONSTRAINT IF EXISTS rides_status_check`)
	if err := db.Exec(`ALTER TABLE rides ADD CONSTRAINT rides_status_check
		CHECK (status IN ('unassigned', 'assigned', 'on_my_way', 'on_location', 'pob', 'completed'))`).Error; err != nil {
		return err
	}

	db.Exec(`ALTER TABLE ride_claims DROP CONSTRAINT IF EXISTS ride_claims_status_check`)
	if err := db.Exec(`ALTER TABLE ride_claims ADD CONSTRAINT ride_claims_status_check
		CHECK (status IN ('queued', 'approved', 'rejected', 'withdrawn'))`).Error; err != nil {
		return err
	}

	db.Exec(`ALTER TABLE ride_group_shares DROP CONSTRAINT IF EXISTS ride_group_shares_status_check`)
	if err := db.Exec(`ALTER TABLE ride_group_shares ADD CONSTRAINT ride_group_shares_status_check
		CHECK (status IN ('active', 'revoked', 'expired'))`).Error; err != nil {
		return err
	}

	return nil
}
