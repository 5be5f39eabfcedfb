package models

import (
	"time"
)

// Terminal is a physical dispatch point. Rides starting there carry its
// Code in Ride.StartPoint.
type Terminal struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Code        string    `json:"code" gorm:"type:varchar(50);uniqueIndex;not null"`
	Address     string    `json:"address,omitempty" gorm:"type:text;default:''"`
	PhoneNumber string    `json:"phone_number,omitempty" gorm:"type:varchar(15);default:''"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
}

// DisplayLocation is what schedules created at the terminal show as their
// pickup location.
func (t *Terminal) DisplayLocation() string {
	if t.Address != "" {
		return t.Address
	}
	return t.Name
}

// Route codes double as the default terminal codes.
const (
	RouteNaval    = "NAVAL"
	RouteOrmoc    = "ORMOC"
	RouteTacloban = "TACLOBAN"
	RouteLeyte    = "LEYTE"
)

var RouteChoices = []string{RouteNaval, RouteOrmoc, RouteTacloban, RouteLeyte}

func IsValidRoute(code string) bool {
	for _, r := range RouteChoices {
		if r == code {
			return true
		}
	}
	return false
}
