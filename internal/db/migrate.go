package db

import (
	"fmt"

	"rideaxis/internal/models"

	"gorm.io/gorm"
)

// Migrate creates or updates every table. Order matters: referenced tables first.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Terminal{},
		&models.Driver{},
		&models.TerminalAdmin{},
		&models.Ride{},
		&models.Seat{},
		&models.DriverRating{},
		&models.RideLocation{},
	); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	return nil
}
