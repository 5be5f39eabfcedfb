package services

import (
	"errors"
	"fmt"
	"time"

	"rideaxis/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

var timestampColumn = clause.Column{Name: "timestamp"}

// departedRide loads the driver's ride and checks that it is being tracked.
func departedRide(db *gorm.DB, driverID, rideID uint) (*models.Ride, error) {
	ride, err := findOwnRide(db, driverID, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != models.RideStatusDeparted {
		return ride, ErrRideNotDeparted
	}
	return ride, nil
}

// SaveLocation appends one point to a departed ride of the driver.
func SaveLocation(db *gorm.DB, driverID, rideID uint, at Coordinates) (*models.RideLocation, error) {
	if _, err := departedRide(db, driverID, rideID); err != nil {
		return nil, err
	}
	loc := &models.RideLocation{
		RideID:    rideID,
		Latitude:  at.Latitude,
		Longitude: at.Longitude,
	}
	if err := db.Create(loc).Error; err != nil {
		return nil, fmt.Errorf("save location for ride %d: %w", rideID, err)
	}
	return loc, nil
}

// SaveLocations stores a batch queued while the driver was offline. Points
// get consecutive timestamps in submission order.
func SaveLocations(db *gorm.DB, driverID, rideID uint, points []Coordinates) ([]models.RideLocation, error) {
	if _, err := departedRide(db, driverID, rideID); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}

	base := time.Now().Add(-time.Duration(len(points)-1) * time.Millisecond)
	locs := make([]models.RideLocation, 0, len(points))
	for i, p := range points {
		locs = append(locs, models.RideLocation{
			RideID:    rideID,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Timestamp: base.Add(time.Duration(i) * time.Millisecond),
		})
	}
	if err := db.Create(&locs).Error; err != nil {
		return nil, fmt.Errorf("save locations for ride %d: %w", rideID, err)
	}
	return locs, nil
}

// LatestLocation returns the newest point of the ride, or nil.
func LatestLocation(db *gorm.DB, rideID uint) (*models.RideLocation, error) {
	var loc models.RideLocation
	err := db.Where("ride_id = ?", rideID).
		Order(clause.OrderByColumn{Column: timestampColumn, Desc: true}).
		Order("id DESC").
		First(&loc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// RideLocations returns the whole track of a ride, oldest first.
func RideLocations(db *gorm.DB, rideID uint) ([]models.RideLocation, error) {
	var locs []models.RideLocation
	err := db.Where("ride_id = ?", rideID).
		Order(clause.OrderByColumn{Column: timestampColumn}).
		Order("id").
		Find(&locs).Error
	return locs, err
}

// PruneLocations deletes points older than cutoff that belong to completed
// rides.
func PruneLocations(db *gorm.DB, cutoff time.Time) (int64, error) {
	completed := db.Model(&models.Ride{}).Select("id").Where("status = ?", models.RideStatusCompleted)
	res := db.Where(clause.Lt{Column: timestampColumn, Value: cutoff}).
		Where("ride_id IN (?)", completed).
		Delete(&models.RideLocation{})
	return res.RowsAffected, res.Error
}
