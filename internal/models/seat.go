package models

import "database/sql/driver"

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusTaken     SeatStatus = "taken"
)

func (s SeatStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s SeatStatus) IsValid() bool {
	return s == SeatStatusAvailable || s == SeatStatusTaken
}

// Seat is one cell of the vehicle seat map; X and Y are map coordinates.
type Seat struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	RideID     uint       `json:"ride_id" gorm:"not null;index"`
	SeatNumber string     `json:"seat_number" gorm:"type:varchar(10);not null"`
	X          int        `json:"x" gorm:"not null"`
	Y          int        `json:"y" gorm:"not null"`
	Status     SeatStatus `json:"status" gorm:"type:varchar(20);default:'available'"`
}
