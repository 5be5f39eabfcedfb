package models

import (
	"time"
)

// RideLocation is one point of a departed ride's location history.
type RideLocation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	RideID    uint      `json:"ride_id" gorm:"not null;index"`
	Latitude  float64   `json:"latitude" gorm:"type:decimal(9,6);not null"`
	Longitude float64   `json:"longitude" gorm:"type:decimal(9,6);not null"`
	Timestamp time.Time `json:"timestamp" gorm:"autoCreateTime;index"`
}

// LocationPoint is the payload pushed to riders watching a ride.
type LocationPoint struct {
	RideID    uint      `json:"ride_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

func (l *RideLocation) Point() LocationPoint {
	return LocationPoint{
		RideID:    l.RideID,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Timestamp: l.Timestamp,
	}
}
