package models

import (
	"time"
)

// TerminalAdmin is an operator account bound to exactly one terminal.
type TerminalAdmin struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Username     string     `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"type:varchar(254);uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"column:password_hash;not null"`
	FirstName    string     `json:"first_name" gorm:"type:varchar(30);not null"`
	LastName     string     `json:"last_name" gorm:"type:varchar(30);not null"`
	TerminalID   *uint      `json:"terminal_id" gorm:"uniqueIndex"`
	PhoneNumber  string     `json:"phone_number,omitempty" gorm:"type:varchar(15);default:''"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`

	Terminal *Terminal `json:"terminal,omitempty" gorm:"foreignKey:TerminalID;constraint:OnDelete:CASCADE"`
}
