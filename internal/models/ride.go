package models

import (
	"database/sql/driver"
	"time"
)

type RideStatus string

const (
	RideStatusScheduled RideStatus = "scheduled" // created by a terminal admin, not yet activated
	RideStatusWaiting   RideStatus = "waiting"   // boarding at the terminal
	RideStatusDeparted  RideStatus = "departed"
	RideStatusCompleted RideStatus = "completed"
)

func (s RideStatus) Display() string {
	switch s {
	case RideStatusScheduled:
		return "Scheduled"
	case RideStatusWaiting:
		return "Waiting at Terminal"
	case RideStatusDeparted:
		return "Departed"
	case RideStatusCompleted:
		return "Completed"
	}
	return string(s)
}

func (s RideStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s RideStatus) IsValid() bool {
	switch s {
	case RideStatusScheduled, RideStatusWaiting, RideStatusDeparted, RideStatusCompleted:
		return true
	}
	return false
}

// ActiveRideStatuses are the statuses shown on the public board.
var ActiveRideStatuses = []RideStatus{RideStatusWaiting, RideStatusDeparted}

type Ride struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	DriverID         uint       `json:"driver_id" gorm:"not null;index"`
	CreatedByAdminID *uint      `json:"created_by_admin_id,omitempty" gorm:"index"`
	AssignedDriverID *uint      `json:"assigned_driver_id,omitempty" gorm:"index"`
	Terminal         string     `json:"terminal" gorm:"type:varchar(100);not null"`
	Location         string     `json:"location" gorm:"type:varchar(100);not null"`
	StartPoint       string     `json:"start_point" gorm:"type:varchar(100);default:'NAVAL';index"`
	Route            string     `json:"route" gorm:"type:varchar(100);not null"`
	DepartureTime    time.Time  `json:"departure_time" gorm:"not null"`
	SeatsAvailable   int        `json:"seats_available" gorm:"not null;default:0"`
	PlateNumber      string     `json:"plate_number" gorm:"type:varchar(20);not null"`
	Status           RideStatus `json:"status" gorm:"type:varchar(20);default:'scheduled';index"`
	ActivatedAt      *time.Time `json:"activated_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Driver         Driver         `json:"-" gorm:"foreignKey:DriverID;constraint:OnDelete:CASCADE"`
	AssignedDriver *Driver        `json:"-" gorm:"foreignKey:AssignedDriverID;constraint:OnDelete:CASCADE"`
	CreatedByAdmin *TerminalAdmin `json:"-" gorm:"foreignKey:CreatedByAdminID;constraint:OnDelete:SET NULL"`
	Seats          []Seat         `json:"-" gorm:"foreignKey:RideID;constraint:OnDelete:CASCADE"`
	Locations      []RideLocation `json:"-" gorm:"foreignKey:RideID;constraint:OnDelete:CASCADE"`
}

func (r *Ride) IsAdminCreated() bool {
	return r.CreatedByAdminID != nil
}

// CanDriverEdit is false for schedules published by a terminal admin.
func (r *Ride) CanDriverEdit() bool {
	return !r.IsAdminCreated()
}

type RideResponse struct {
	ID                 uint       `json:"id"`
	DriverID           uint       `json:"driver_id"`
	DriverName         string     `json:"driver_name,omitempty"`
	AssignedDriverID   *uint      `json:"assigned_driver_id,omitempty"`
	AssignedDriverName string     `json:"assigned_driver_name,omitempty"`
	CreatedByAdminID   *uint      `json:"created_by_admin_id,omitempty"`
	Terminal           string     `json:"terminal"`
	Location           string     `json:"location"`
	StartPoint         string     `json:"start_point"`
	Route              string     `json:"route"`
	DepartureTime      time.Time  `json:"departure_time"`
	SeatsAvailable     int        `json:"seats_available"`
	PlateNumber        string     `json:"plate_number"`
	Status             RideStatus `json:"status"`
	StatusDisplay      string     `json:"status_display"`
	ActivatedAt        *time.Time `json:"activated_at,omitempty"`
	IsAdminCreated     bool       `json:"is_admin_created"`
	Seats              []Seat     `json:"seats,omitempty"`
	DriverAvgRating    *float64   `json:"driver_avg_rating,omitempty"`
}

// NewRideResponse copies preloaded associations when they are present.
func NewRideResponse(r *Ride) RideResponse {
	resp := RideResponse{
		ID:               r.ID,
		DriverID:         r.DriverID,
		AssignedDriverID: r.AssignedDriverID,
		CreatedByAdminID: r.CreatedByAdminID,
		Terminal:         r.Terminal,
		Location:         r.Location,
		StartPoint:       r.StartPoint,
		Route:            r.Route,
		DepartureTime:    r.DepartureTime,
		SeatsAvailable:   r.SeatsAvailable,
		PlateNumber:      r.PlateNumber,
		Status:           r.Status,
		StatusDisplay:    r.Status.Display(),
		ActivatedAt:      r.ActivatedAt,
		IsAdminCreated:   r.IsAdminCreated(),
		Seats:            r.Seats,
	}
	if r.Driver.ID != 0 {
		resp.DriverName = r.Driver.FullName()
	}
	if r.AssignedDriver != nil {
		resp.AssignedDriverName = r.AssignedDriver.FullName()
	}
	return resp
}

func NewRideResponses(rides []Ride) []RideResponse {
	out := make([]RideResponse, 0, len(rides))
	for i := range rides {
		out = append(out, NewRideResponse(&rides[i]))
	}
	return out
}
