package models

import (
	"time"
)

// DriverRating is a 1..5 star vote. One vote per driver and client IP.
type DriverRating struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	DriverID  uint      `json:"driver_id" gorm:"not null;uniqueIndex:idx_driver_rating_ip"`
	Rating    int       `json:"rating" gorm:"not null"`
	IPAddress string    `json:"-" gorm:"type:varchar(45);not null;uniqueIndex:idx_driver_rating_ip"`
	CreatedAt time.Time `json:"created_at"`
}
