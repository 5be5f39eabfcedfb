package forms

import (
	"fmt"
	"strings"
	"time"
)

const PasswordMismatch = "Passwords do not match."

type DriverRegisterForm struct {
	Username  string `form:"username" json:"username" binding:"required,max=150"`
	Email     string `form:"email" json:"email" binding:"required,email,max=254"`
	Password1 string `form:"password1" json:"password1" binding:"required,min=8"`
	Password2 string `form:"password2" json:"password2" binding:"required"`
	FirstName string `form:"first_name" json:"first_name" binding:"max=30"`
	LastName  string `form:"last_name" json:"last_name" binding:"max=30"`
	Address   string `form:"address" json:"address" binding:"max=255"`
	Sex       string `form:"sex" json:"sex" binding:"omitempty,oneof=Male Female"`
}

// Clean runs the checks that span more than one field.
func (f *DriverRegisterForm) Clean() error {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
	if f.Password1 != f.Password2 {
		return Errors{{Field: "password2", Message: PasswordMismatch}}
	}
	return nil
}

type LoginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// ProfileForm edits the driver's own account. A zero or missing
// assigned_terminal_id clears the terminal.
type ProfileForm struct {
	FirstName          string `form:"first_name" json:"first_name" binding:"max=30"`
	LastName           string `form:"last_name" json:"last_name" binding:"max=30"`
	Email              string `form:"email" json:"email" binding:"required,email,max=254"`
	Username           string `form:"username" json:"username" binding:"required,max=150"`
	Address            string `form:"address" json:"address" binding:"max=255"`
	Sex                string `form:"sex" json:"sex" binding:"omitempty,oneof=Male Female"`
	AssignedTerminalID *uint  `form:"assigned_terminal_id" json:"assigned_terminal_id"`
}

// TerminalID normalises the optional terminal selection.
func (f *ProfileForm) TerminalID() *uint {
	if f.AssignedTerminalID == nil || *f.AssignedTerminalID == 0 {
		return nil
	}
	id := *f.AssignedTerminalID
	return &id
}

type RideForm struct {
	Terminal       string `form:"terminal" json:"terminal" binding:"required,max=100"`
	Location       string `form:"location" json:"location" binding:"required,max=100"`
	Route          string `form:"route" json:"route" binding:"required,route"`
	DepartureTime  string `form:"departure_time" json:"departure_time" binding:"required"`
	SeatsAvailable int    `form:"seats_available" json:"seats_available" binding:"gte=0"`
	PlateNumber    string `form:"plate_number" json:"plate_number" binding:"required,max=20"`
}

type ScheduleForm struct {
	Route          string `form:"route" json:"route" binding:"required,route"`
	DepartureTime  string `form:"departure_time" json:"departure_time" binding:"required"`
	PlateNumber    string `form:"plate_number" json:"plate_number" binding:"required,max=20"`
	AssignedDriver uint   `form:"assigned_driver" json:"assigned_driver" binding:"required"`
}

type SeatStatusForm struct {
	SeatID uint   `json:"seat_id" binding:"required"`
	Status string `json:"status" binding:"required,seatstatus"`
}

type LocationForm struct {
	RideID    uint     `json:"ride_id" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required,latitude"`
	Longitude *float64 `json:"longitude" binding:"required,longitude"`
}

type PointForm struct {
	Latitude  *float64 `json:"latitude" binding:"required,latitude"`
	Longitude *float64 `json:"longitude" binding:"required,longitude"`
}

// MaxBatchPoints caps one offline sync upload.
const MaxBatchPoints = 50

type LocationBatchForm struct {
	RideID uint        `json:"ride_id" binding:"required"`
	Points []PointForm `json:"points" binding:"required,min=1,max=50,dive"`
}

type RatingForm struct {
	Rating int `form:"rating" json:"rating" binding:"required,min=1,max=5"`
}

type RideStatusForm struct {
	Status string `form:"status" json:"status" binding:"required,oneof=waiting departed completed"`
}

type RideFilterForm struct {
	Status string `form:"status" binding:"omitempty,eq=all|ridestatus"`
}

type RejectForm struct {
	RejectionReason string `form:"rejection_reason" json:"rejection_reason"`
}

var departureLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ParseDepartureTime accepts RFC 3339 or a datetime-local value, the latter
// interpreted in loc.
func ParseDepartureTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range departureLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, value); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, Errors{{Field: "departure_time", Message: fmt.Sprintf("Enter a valid date/time: %q.", value)}}
}
