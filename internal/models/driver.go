package models

import (
	"database/sql/driver"
	"strings"
	"time"
)

type TerminalStatus string

const (
	TerminalStatusPending  TerminalStatus = "pending"
	TerminalStatusApproved TerminalStatus = "approved"
	TerminalStatusRejected TerminalStatus = "rejected"
)

const DefaultProfilePicture = "profile_pictures/default.png"

func (s TerminalStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s TerminalStatus) Display() string {
	switch s {
	case TerminalStatusPending:
		return "Pending Approval"
	case TerminalStatusApproved:
		return "Approved"
	case TerminalStatusRejected:
		return "Rejected"
	}
	return string(s)
}

// Color is the badge colour shown next to the approval status.
func (s TerminalStatus) Color() string {
	switch s {
	case TerminalStatusPending:
		return "#ffc107"
	case TerminalStatusApproved:
		return "#28a745"
	case TerminalStatusRejected:
		return "#dc3545"
	}
	return "#6c757d"
}

type Driver struct {
	ID                      uint           `json:"id" gorm:"primaryKey"`
	Username                string         `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Email                   string         `json:"email" gorm:"type:varchar(254);uniqueIndex;not null"`
	PasswordHash            string         `json:"-" gorm:"column:password_hash;not null"`
	FirstName               string         `json:"first_name" gorm:"type:varchar(30);default:''"`
	LastName                string         `json:"last_name" gorm:"type:varchar(30);default:''"`
	Address                 string         `json:"address" gorm:"type:varchar(255);default:''"`
	Sex                     string         `json:"sex" gorm:"type:varchar(10);default:''"`
	ProfilePicture          string         `json:"profile_picture" gorm:"type:varchar(255);default:'profile_pictures/default.png'"`
	AssignedTerminalID      *uint          `json:"assigned_terminal_id" gorm:"index"`
	TerminalStatus          TerminalStatus `json:"terminal_status" gorm:"type:varchar(20);default:'pending'"`
	TerminalRejectionReason string         `json:"terminal_rejection_reason,omitempty" gorm:"type:text;default:''"`
	IsActive                bool           `json:"is_active" gorm:"default:true"`
	IsStaff                 bool           `json:"is_staff" gorm:"default:false"`
	DateJoined              time.Time      `json:"date_joined"`
	LastLogin               *time.Time     `json:"last_login,omitempty"`

	AssignedTerminal *Terminal      `json:"-" gorm:"foreignKey:AssignedTerminalID;constraint:OnDelete:SET NULL"`
	Ratings          []DriverRating `json:"-" gorm:"foreignKey:DriverID;constraint:OnDelete:CASCADE"`
}

// IsTerminalApproved reports whether the driver may publish rides from
// their terminal.
func (d *Driver) IsTerminalApproved() bool {
	return d.AssignedTerminalID != nil && d.TerminalStatus == TerminalStatusApproved
}

// FullName falls back to the username when no name was given.
func (d *Driver) FullName() string {
	name := strings.TrimSpace(d.FirstName + " " + d.LastName)
	if name == "" {
		return d.Username
	}
	return name
}

type DriverResponse struct {
	ID                      uint           `json:"id"`
	Username                string         `json:"username"`
	Email                   string         `json:"email"`
	FirstName               string         `json:"first_name"`
	LastName                string         `json:"last_name"`
	FullName                string         `json:"full_name"`
	Address                 string         `json:"address"`
	Sex                     string         `json:"sex"`
	ProfilePicture          string         `json:"profile_picture"`
	IsActive                bool           `json:"is_active"`
	AssignedTerminalID      *uint          `json:"assigned_terminal_id"`
	TerminalStatus          TerminalStatus `json:"terminal_status"`
	TerminalRejectionReason string         `json:"terminal_rejection_reason,omitempty"`
	DateJoined              time.Time      `json:"date_joined"`
}

func NewDriverResponse(d *Driver) DriverResponse {
	picture := d.ProfilePicture
	if picture != "" && picture[0] != '/' {
		picture = "/uploads/" + picture
	}
	return DriverResponse{
		ID:                      d.ID,
		Username:                d.Username,
		Email:                   d.Email,
		FirstName:               d.FirstName,
		LastName:                d.LastName,
		FullName:                d.FullName(),
		Address:                 d.Address,
		Sex:                     d.Sex,
		ProfilePicture:          picture,
		IsActive:                d.IsActive,
		AssignedTerminalID:      d.AssignedTerminalID,
		TerminalStatus:          d.TerminalStatus,
		TerminalRejectionReason: d.TerminalRejectionReason,
		DateJoined:              d.DateJoined,
	}
}

// DriverSummary is a roster row on the terminal admin pages.
type DriverSummary struct {
	Driver    DriverResponse `json:"driver"`
	RideCount int64          `json:"ride_count"`
	AvgRating float64        `json:"avg_rating"`
}
