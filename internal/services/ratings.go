package services

import (
	"errors"
	"math"

	"rideaxis/internal/models"

	"gorm.io/gorm"
)

var (
	ErrAlreadyRated   = errors.New("you already rated this driver")
	ErrDriverNotFound = errors.New("driver not found")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
)

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// AverageRating is the mean rating of a driver, 0 without ratings.
func AverageRating(db *gorm.DB, driverID uint) (float64, error) {
	var avg float64
	err := db.Model(&models.DriverRating{}).
		Select("COALESCE(AVG(rating), 0)").
		Where("driver_id = ?", driverID).
		Scan(&avg).Error
	return avg, err
}

// AverageRatings returns the mean rating per driver. Drivers without
// ratings are absent from the map. A nil ids slice covers every driver.
func AverageRatings(db *gorm.DB, driverIDs []uint) (map[uint]float64, error) {
	var rows []struct {
		DriverID uint
		Avg      float64
	}
	q := db.Model(&models.DriverRating{}).Select("driver_id, AVG(rating) AS avg").Group("driver_id")
	if driverIDs != nil {
		if len(driverIDs) == 0 {
			return map[uint]float64{}, nil
		}
		q = q.Where("driver_id IN ?", driverIDs)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]float64, len(rows))
	for _, r := range rows {
		out[r.DriverID] = r.Avg
	}
	return out, nil
}

func HasRated(db *gorm.DB, driverID uint, ip string) (bool, error) {
	var count int64
	err := db.Model(&models.DriverRating{}).
		Where("driver_id = ? AND ip_address = ?", driverID, ip).
		Count(&count).Error
	return count > 0, err
}

// RateDriver stores one rating per driver and client IP and returns the new
// average.
func RateDriver(db *gorm.DB, driverID uint, rating int, ip string) (float64, error) {
	if rating < 1 || rating > 5 {
		return 0, ErrInvalidRating
	}

	var driver models.Driver
	if err := db.Select("id").First(&driver, driverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrDriverNotFound
		}
		return 0, err
	}

	rated, err := HasRated(db, driverID, ip)
	if err != nil {
		return 0, err
	}
	if rated {
		return 0, ErrAlreadyRated
	}

	if err := db.Create(&models.DriverRating{
		DriverID:  driverID,
		Rating:    rating,
		IPAddress: ip,
	}).Error; err != nil {
		// lost a race against the unique index
		if rated, _ := HasRated(db, driverID, ip); rated {
			return 0, ErrAlreadyRated
		}
		return 0, err
	}

	return AverageRating(db, driverID)
}

// DriverRatings lists a driver's ratings, newest first.
func DriverRatings(db *gorm.DB, driverID uint) ([]models.DriverRating, error) {
	var ratings []models.DriverRating
	err := db.Where("driver_id = ?", driverID).Order("created_at DESC, id DESC").Find(&ratings).Error
	return ratings, err
}
