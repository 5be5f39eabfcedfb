// Package testutil opens throwaway databases and seeds fixtures for tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"rideaxis/internal/db"
	"rideaxis/internal/models"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter int64

// NewDB returns a migrated in-memory database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:rideaxis_test_%d?mode=memory&cache=shared", atomic.AddInt64(&dbCounter, 1))
	gdb, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

const Password = "s3cret-pass"

func hash(t *testing.T) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(h)
}

func Terminal(t *testing.T, gdb *gorm.DB, code string) *models.Terminal {
	t.Helper()
	term := &models.Terminal{
		Name:     code + " Terminal",
		Code:     code,
		Address:  code + " Bus Station",
		IsActive: true,
	}
	if err := gdb.Create(term).Error; err != nil {
		t.Fatalf("create terminal: %v", err)
	}
	return term
}

// Driver creates a driver with Password. A nil terminal leaves it unassigned.
func Driver(t *testing.T, gdb *gorm.DB, username string, term *models.Terminal, status models.TerminalStatus) *models.Driver {
	t.Helper()
	d := &models.Driver{
		Username:       username,
		Email:          username + "@example.com",
		PasswordHash:   hash(t),
		FirstName:      "First" + username,
		LastName:       "Last",
		ProfilePicture: models.DefaultProfilePicture,
		TerminalStatus: status,
		IsActive:       true,
		DateJoined:     time.Now(),
	}
	if term != nil {
		d.AssignedTerminalID = &term.ID
	}
	if err := gdb.Create(d).Error; err != nil {
		t.Fatalf("create driver: %v", err)
	}
	return d
}

func TerminalAdmin(t *testing.T, gdb *gorm.DB, username string, term *models.Terminal) *models.TerminalAdmin {
	t.Helper()
	a := &models.TerminalAdmin{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash(t),
		FirstName:    "Admin",
		LastName:     username,
		TerminalID:   &term.ID,
		IsActive:     true,
	}
	if err := gdb.Create(a).Error; err != nil {
		t.Fatalf("create terminal admin: %v", err)
	}
	a.Terminal = term
	return a
}

// Ride inserts a ride owned by driver without seats.
func Ride(t *testing.T, gdb *gorm.DB, driver *models.Driver, startPoint string, status models.RideStatus, departure time.Time) *models.Ride {
	t.Helper()
	r := &models.Ride{
		DriverID:       driver.ID,
		Terminal:       startPoint + " Terminal",
		Location:       startPoint + " Bus Station",
		StartPoint:     startPoint,
		Route:          models.RouteTacloban,
		DepartureTime:  departure,
		SeatsAvailable: 14,
		PlateNumber:    "ABC-1234",
		Status:         status,
	}
	if err := gdb.Create(r).Error; err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return r
}
