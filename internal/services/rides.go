package services

import (
	"errors"
	"fmt"
	"time"

	"rideaxis/internal/models"

	"gorm.io/gorm"
)

var (
	ErrRideNotFound        = errors.New("ride not found")
	ErrNoAssignedRide      = errors.New("no assigned ride to activate")
	ErrTerminalNotApproved = errors.New("terminal registration not approved")
	ErrAssignedRidePending = errors.New("assigned schedule awaits activation")
	ErrRideNotEditable     = errors.New("ride was scheduled by a terminal admin")
	ErrRideNotDeparted     = errors.New("ride is not departed")
	ErrInvalidTransition   = errors.New("invalid ride status transition")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrSeatNotFound        = errors.New("seat not found")
	ErrDriverNotEligible   = errors.New("driver cannot be assigned at this terminal")
)

type seatPosition struct{ X, Y int }

// DefaultSeatPositions is the van layout: driver and front passenger, three
// rows of three, and a back row of four.
var DefaultSeatPositions = []seatPosition{
	{40, 40}, {140, 40},
	{20, 110}, {80, 110}, {140, 110},
	{20, 170}, {80, 170}, {140, 170},
	{20, 230}, {80, 230}, {140, 230},
	{15, 290}, {64, 290}, {115, 290}, {163, 290},
}

// CreateDefaultSeats adds S1..S15 to the ride. S1 is the driver seat and
// starts taken.
func CreateDefaultSeats(tx *gorm.DB, rideID uint) error {
	seats := make([]models.Seat, 0, len(DefaultSeatPositions))
	for i, pos := range DefaultSeatPositions {
		status := models.SeatStatusAvailable
		if i == 0 {
			status = models.SeatStatusTaken
		}
		seats = append(seats, models.Seat{
			RideID:     rideID,
			SeatNumber: fmt.Sprintf("S%d", i+1),
			X:          pos.X,
			Y:          pos.Y,
			Status:     status,
		})
	}
	if err := tx.Create(&seats).Error; err != nil {
		return fmt.Errorf("create seats for ride %d: %w", rideID, err)
	}
	return nil
}

// RecountSeats stores the number of available seats on the ride and returns it.
func RecountSeats(tx *gorm.DB, rideID uint) (int, error) {
	var count int64
	if err := tx.Model(&models.Seat{}).
		Where("ride_id = ? AND status = ?", rideID, models.SeatStatusAvailable).
		Count(&count).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&models.Ride{}).Where("id = ?", rideID).
		Update("seats_available", count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func orderedSeats(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// FindAssignedRide returns the schedule waiting for the driver to activate
// it, or nil.
func FindAssignedRide(db *gorm.DB, driverID uint) (*models.Ride, error) {
	var ride models.Ride
	err := db.Preload("Seats", orderedSeats).
		Where("assigned_driver_id = ? AND status = ?", driverID, models.RideStatusScheduled).
		Order("departure_time").
		First(&ride).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

// FindActiveRide returns the driver's waiting or departed ride, or nil.
func FindActiveRide(db *gorm.DB, driverID uint) (*models.Ride, error) {
	var ride models.Ride
	err := db.Preload("Seats", orderedSeats).
		Where("driver_id = ? AND status IN ?", driverID, models.ActiveRideStatuses).
		Order("id").
		First(&ride).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

// ActivateAssignedRide moves the driver's scheduled ride to waiting.
func ActivateAssignedRide(db *gorm.DB, driverID uint) (*models.Ride, error) {
	var activated *models.Ride
	err := db.Transaction(func(tx *gorm.DB) error {
		ride, err := FindAssignedRide(tx, driverID)
		if err != nil {
			return err
		}
		if ride == nil {
			return ErrNoAssignedRide
		}

		now := time.Now()
		if err := tx.Model(&models.Ride{}).Where("id = ?", ride.ID).Updates(map[string]interface{}{
			"status":       models.RideStatusWaiting,
			"driver_id":    driverID,
			"activated_at": now,
		}).Error; err != nil {
			return err
		}
		if _, err := RecountSeats(tx, ride.ID); err != nil {
			return err
		}

		activated = &models.Ride{}
		return tx.Preload("Seats", orderedSeats).First(activated, ride.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}

type RideInput struct {
	Terminal       string
	Location       string
	Route          string
	DepartureTime  time.Time
	SeatsAvailable int
	PlateNumber    string
}

// SaveDriverRide creates the driver's ride or updates their active one.
// The ride is always left waiting at the driver's terminal with its seat
// count recomputed. created reports whether a new ride was inserted.
func SaveDriverRide(db *gorm.DB, driver *models.Driver, in RideInput) (ride *models.Ride, created bool, err error) {
	err = db.Transaction(func(tx *gorm.DB) error {
		assigned, err := FindAssignedRide(tx, driver.ID)
		if err != nil {
			return err
		}
		if assigned != nil {
			return ErrAssignedRidePending
		}
		if !driver.IsTerminalApproved() {
			return ErrTerminalNotApproved
		}

		var terminal models.Terminal
		if err := tx.First(&terminal, *driver.AssignedTerminalID).Error; err != nil {
			return fmt.Errorf("load terminal: %w", err)
		}

		active, err := FindActiveRide(tx, driver.ID)
		if err != nil {
			return err
		}
		if active != nil && !active.CanDriverEdit() {
			return ErrRideNotEditable
		}

		if active == nil {
			active = &models.Ride{}
			created = true
		}
		active.DriverID = driver.ID
		active.Terminal = in.Terminal
		active.Location = in.Location
		active.StartPoint = terminal.Code
		active.Route = in.Route
		active.DepartureTime = in.DepartureTime
		active.SeatsAvailable = in.SeatsAvailable
		active.PlateNumber = in.PlateNumber
		active.Status = models.RideStatusWaiting
		active.Seats = nil

		if err := tx.Omit("Seats", "Locations", "Driver", "AssignedDriver", "CreatedByAdmin").Save(active).Error; err != nil {
			return err
		}

		var seatCount int64
		if err := tx.Model(&models.Seat{}).Where("ride_id = ?", active.ID).Count(&seatCount).Error; err != nil {
			return err
		}
		if seatCount == 0 {
			if err := CreateDefaultSeats(tx, active.ID); err != nil {
				return err
			}
		}
		if _, err := RecountSeats(tx, active.ID); err != nil {
			return err
		}

		ride = &models.Ride{}
		return tx.Preload("Seats", orderedSeats).First(ride, active.ID).Error
	})
	if err != nil {
		return nil, false, err
	}
	return ride, created, nil
}

func findOwnRide(db *gorm.DB, driverID, rideID uint) (*models.Ride, error) {
	var ride models.Ride
	err := db.Where("id = ? AND driver_id = ?", rideID, driverID).First(&ride).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

// DepartRide marks the driver's own waiting ride as departed. Departing an
// already departed ride is a no-op.
func DepartRide(db *gorm.DB, driverID, rideID uint) (*models.Ride, error) {
	ride, err := findOwnRide(db, driverID, rideID)
	if err != nil {
		return nil, err
	}
	switch ride.Status {
	case models.RideStatusDeparted:
		return ride, nil
	case models.RideStatusWaiting:
	default:
		return ride, fmt.Errorf("%w: ride %d is %s", ErrInvalidTransition, ride.ID, ride.Status)
	}

	if err := db.Model(ride).Update("status", models.RideStatusDeparted).Error; err != nil {
		return nil, err
	}
	ride.Status = models.RideStatusDeparted
	return ride, nil
}

// CompleteRide archives the driver's own ride. Only departed rides can be
// completed.
func CompleteRide(db *gorm.DB, driverID, rideID uint) (*models.Ride, error) {
	ride, err := findOwnRide(db, driverID, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != models.RideStatusDeparted {
		return ride, fmt.Errorf("%w: ride %d is %s", ErrRideNotDeparted, ride.ID, ride.Status)
	}
	if err := db.Model(ride).Update("status", models.RideStatusCompleted).Error; err != nil {
		return nil, err
	}
	ride.Status = models.RideStatusCompleted
	return ride, nil
}

// UpdateSeatStatus toggles a seat on one of the driver's rides and returns
// the new available count with the ride it belongs to.
func UpdateSeatStatus(db *gorm.DB, driverID, seatID uint, status models.SeatStatus) (available int, rideID uint, err error) {
	if !status.IsValid() {
		return 0, 0, ErrInvalidStatus
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		var seat models.Seat
		err := tx.Joins("JOIN rides ON rides.id = seats.ride_id").
			Where("seats.id = ? AND rides.driver_id = ?", seatID, driverID).
			First(&seat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSeatNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&seat).Update("status", status).Error; err != nil {
			return err
		}
		rideID = seat.RideID
		available, err = RecountSeats(tx, seat.RideID)
		return err
	})
	return available, rideID, err
}

func RideExists(db *gorm.DB, rideID uint) (bool, error) {
	var n int64
	if err := db.Model(&models.Ride{}).Where("id = ?", rideID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// TerminalRide loads a ride that starts at the given terminal code.
func TerminalRide(db *gorm.DB, terminalCode string, rideID uint) (*models.Ride, error) {
	var ride models.Ride
	err := db.Where("id = ? AND start_point = ?", rideID, terminalCode).First(&ride).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

// SetRideStatusByAdmin lets a terminal admin force waiting, departed or
// completed on a ride from their terminal.
func SetRideStatusByAdmin(db *gorm.DB, terminalCode string, rideID uint, status models.RideStatus) (*models.Ride, error) {
	switch status {
	case models.RideStatusWaiting, models.RideStatusDeparted, models.RideStatusCompleted:
	default:
		return nil, ErrInvalidStatus
	}

	ride, err := TerminalRide(db, terminalCode, rideID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(ride).Update("status", status).Error; err != nil {
		return nil, err
	}
	ride.Status = status
	return ride, nil
}

// DeleteRideCascade removes a ride with its seats and location history.
func DeleteRideCascade(tx *gorm.DB, rideID uint) error {
	if err := tx.Where("ride_id = ?", rideID).Delete(&models.Seat{}).Error; err != nil {
		return err
	}
	if err := tx.Where("ride_id = ?", rideID).Delete(&models.RideLocation{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Ride{}, rideID).Error
}

func DeleteTerminalRide(db *gorm.DB, terminalCode string, rideID uint) error {
	ride, err := TerminalRide(db, terminalCode, rideID)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return DeleteRideCascade(tx, ride.ID)
	})
}

// DeleteSchedule removes a schedule that has not been activated yet.
func DeleteSchedule(db *gorm.DB, terminalCode string, rideID uint) error {
	var ride models.Ride
	err := db.Where("id = ? AND start_point = ? AND status = ?", rideID, terminalCode, models.RideStatusScheduled).
		First(&ride).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRideNotFound
	}
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return DeleteRideCascade(tx, ride.ID)
	})
}

// EligibleDrivers are the approved, active drivers a schedule can be
// assigned to.
func EligibleDrivers(db *gorm.DB, terminalID uint) ([]models.Driver, error) {
	var drivers []models.Driver
	err := db.Where("assigned_terminal_id = ? AND terminal_status = ? AND is_active = ?",
		terminalID, models.TerminalStatusApproved, true).
		Order("first_name, last_name").
		Find(&drivers).Error
	return drivers, err
}

type ScheduleInput struct {
	Route            string
	DepartureTime    time.Time
	PlateNumber      string
	AssignedDriverID uint
}

// CreateSchedule publishes a scheduled ride at the admin's terminal for an
// eligible driver. Seats are created up front; seats_available stays 0
// until the driver activates the ride.
func CreateSchedule(db *gorm.DB, admin *models.TerminalAdmin, in ScheduleInput) (*models.Ride, *models.Driver, error) {
	if admin.Terminal == nil {
		return nil, nil, fmt.Errorf("terminal admin %d has no terminal", admin.ID)
	}
	terminal := admin.Terminal

	var driver models.Driver
	err := db.Where("id = ? AND assigned_terminal_id = ? AND terminal_status = ? AND is_active = ?",
		in.AssignedDriverID, terminal.ID, models.TerminalStatusApproved, true).
		First(&driver).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrDriverNotEligible
	}
	if err != nil {
		return nil, nil, err
	}

	adminID := admin.ID
	driverID := driver.ID
	ride := &models.Ride{
		DriverID:         driver.ID,
		CreatedByAdminID: &adminID,
		AssignedDriverID: &driverID,
		Terminal:         terminal.Name,
		Location:         terminal.DisplayLocation(),
		StartPoint:       terminal.Code,
		Route:            in.Route,
		DepartureTime:    in.DepartureTime,
		SeatsAvailable:   0,
		PlateNumber:      in.PlateNumber,
		Status:           models.RideStatusScheduled,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Seats", "Locations", "Driver", "AssignedDriver", "CreatedByAdmin").Create(ride).Error; err != nil {
			return err
		}
		return CreateDefaultSeats(tx, ride.ID)
	})
	if err != nil {
		return nil, nil, err
	}
	return ride, &driver, nil
}

// TerminalRides lists rides starting at the terminal, newest departure
// first. An empty status means every status.
func TerminalRides(db *gorm.DB, terminalCode string, status models.RideStatus, limit int) ([]models.Ride, error) {
	q := db.Preload("Driver").Where("start_point = ?", terminalCode)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rides []models.Ride
	err := q.Order("departure_time DESC").Find(&rides).Error
	return rides, err
}

// ScheduledRides lists a terminal's schedules in departure order.
func ScheduledRides(db *gorm.DB, terminalCode string) ([]models.Ride, error) {
	var rides []models.Ride
	err := db.Preload("AssignedDriver").Preload("CreatedByAdmin").
		Where("start_point = ? AND status = ?", terminalCode, models.RideStatusScheduled).
		Order("departure_time").
		Find(&rides).Error
	return rides, err
}

// CompletedRides returns the driver's completed rides, newest first.
// limit <= 0 returns all of them.
func CompletedRides(db *gorm.DB, driverID uint, limit int) ([]models.Ride, error) {
	q := db.Where("driver_id = ? AND status = ?", driverID, models.RideStatusCompleted).
		Order("departure_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rides []models.Ride
	err := q.Find(&rides).Error
	return rides, err
}

// BoardRides are the rides shown on the public index, with their seats and
// drivers.
func BoardRides(db *gorm.DB) ([]models.Ride, error) {
	var rides []models.Ride
	err := db.Preload("Driver").Preload("Seats", orderedSeats).
		Where("status IN ?", models.ActiveRideStatuses).
		Order("departure_time").
		Find(&rides).Error
	return rides, err
}

type TerminalStats struct {
	TotalDrivers   int64 `json:"total_drivers"`
	PendingDrivers int64 `json:"pending_drivers"`
	TotalRides     int64 `json:"total_rides"`
	ActiveRides    int64 `json:"active_rides"`
	CompletedRides int64 `json:"completed_rides"`
	ScheduledRides int64 `json:"scheduled_rides"`
}

// CollectTerminalStats gathers the dashboard counters. Active means waiting.
func CollectTerminalStats(db *gorm.DB, terminal *models.Terminal) (TerminalStats, error) {
	var s TerminalStats
	counts := []struct {
		dst   *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&s.TotalDrivers, &models.Driver{}, "assigned_terminal_id = ? AND terminal_status = ?", []interface{}{terminal.ID, models.TerminalStatusApproved}},
		{&s.PendingDrivers, &models.Driver{}, "assigned_terminal_id = ? AND terminal_status = ?", []interface{}{terminal.ID, models.TerminalStatusPending}},
		{&s.TotalRides, &models.Ride{}, "start_point = ?", []interface{}{terminal.Code}},
		{&s.ActiveRides, &models.Ride{}, "start_point = ? AND status = ?", []interface{}{terminal.Code, models.RideStatusWaiting}},
		{&s.CompletedRides, &models.Ride{}, "start_point = ? AND status = ?", []interface{}{terminal.Code, models.RideStatusCompleted}},
		{&s.ScheduledRides, &models.Ride{}, "start_point = ? AND status = ?", []interface{}{terminal.Code, models.RideStatusScheduled}},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where(c.where, c.args...).Count(c.dst).Error; err != nil {
			return s, err
		}
	}
	return s, nil
}

// DriverTerminalRides lists the rides a driver ran from the terminal, newest
// departure first.
func DriverTerminalRides(db *gorm.DB, driverID uint, terminalCode string) ([]models.Ride, error) {
	var rides []models.Ride
	err := db.Where("driver_id = ? AND start_point = ?", driverID, terminalCode).
		Order("departure_time DESC").
		Find(&rides).Error
	return rides, err
}
