package database

import (
	"github.com/chachabrian/carpool-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.City{},
		&models.Route{},
		&models.Car{},
		&models.Ride{},
		&models.Location{},
		&models.RideRegistration{},
	)
	if err != nil {
		return err
	}

	// A route never connects a city to itself
	db.Exec(`ALTER TABLE routes DROP CONSTRAINT IF EXISTS routes_distinct_cities_check`)
	if err := db.Exec(`ALTER TABLE routes ADD CONSTRAINT routes_distinct_cities_check CHECK (from_city_id <> to_city_id)`).Error; err != nil {
		return err
	}

	// Booked seats can never exceed capacity
	db.Exec(`ALTER TABLE rides DROP CONSTRAINT IF EXISTS rides_seats_check`)
	if err := db.Exec(`ALTER TABLE rides ADD CONSTRAINT rides_seats_check CHECK (booked_seats >= 0 AND booked_seats <= available_seats)`).Error; err != nil {
		return err
	}

	// Ride status values
	db.Exec(`ALTER TABLE rides DROP CONSTRAINT IF EXISTS rides_status_check`)
	if err := db.Exec(`ALTER TABLE rides ADD CONSTRAINT rides_status_check CHECK (status IN ('AVAILABLE', 'COMPLETED', 'DELETED'))`).Error; err != nil {
		return err
	}

	// Candidate location kind values
	db.Exec(`ALTER TABLE locations DROP CONSTRAINT IF EXISTS locations_kind_check`)
	if err := db.Exec(`ALTER TABLE locations ADD CONSTRAINT locations_kind_check CHECK (kind IN ('pickup', 'dropoff'))`).Error; err != nil {
		return err
	}

	return nil
}
