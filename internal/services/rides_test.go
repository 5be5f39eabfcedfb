package services_test

import (
	"errors"
	"testing"
	"time"

	"rideaxis/internal/models"
	"rideaxis/internal/services"
	"rideaxis/internal/testutil"
)

func rideInput() services.RideInput {
	return services.RideInput{
		Terminal:       "Naval Terminal",
		Location:       "Naval Bus Station",
		Route:          models.RouteTacloban,
		DepartureTime:  time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		SeatsAvailable: 99,
		PlateNumber:    "XYZ-987",
	}
}

func TestSaveDriverRideCreatesSeatsOnce(t *testing.T) {
	db := testutil.NewDB(t)
	term := testutil.Terminal(t, db, models.RouteNaval)
	driver := testutil.Driver(t, db, "juan", term, models.TerminalStatusApproved)

	ride, created, err := services.SaveDriverRide(db, driver, rideInput())
	if err != nil {
		t.Fatalf("save ride: %v", err)
	}
	if !created {
		t.Fatal("expected a new ride")
	}
	if ride.Status != models.RideStatusWaiting {
		t.Fatalf("status = %s, want waiting", ride.Status)
	}
	if ride.StartPoint != term.Code {
		t.Fatalf("start_point = %q, want %q", ride.StartPoint, term.Code)
	}
	if len(ride.Seats) != len(services.DefaultSeatPositions) {
		t.Fatalf("seats = %d, want %d", len(ride.Seats), len(services.DefaultSeatPositions))
	}
	if ride.Seats[0].SeatNumber != "S1" || ride.Seats[0].Status != models.SeatStatusTaken {
		t.Fatalf("driver seat = %+v", ride.Seats[0])
	}
	// submitted count is replaced by the real one
	if ride.SeatsAvailable != 14 {
		t.Fatalf("seats_available = %d, want 14", ride.SeatsAvailable)
	}

	in := rideInput()
	in.PlateNumber = "NEW-111"
	updated, created, err := services.SaveDriverRide(db, driver, in)
	if err != nil {
		t.Fatalf("update ride: %v", err)
	}
	if created || updated.ID != ride.ID {
		t.Fatalf("expected update of ride %d, got created=%v id=%d", ride.ID, created, updated.ID)
	}
	if updated.PlateNumber != "NEW-111" {
		t.Fatalf("plate = %q", updated.PlateNumber)
	}

	var seats int64
	db.Model(&models.Seat{}).Where("ride_id = ?", ride.ID).Count(&seats)
	if seats != int64(len(services.DefaultSeatPositions)) {
		t.Fatalf("seat rows = %d after update", seats)
	}
}

func TestSaveDriverRidePreconditions(t *testing.T) {
	db := testutil.NewDB(t)
	term := testutil.Terminal(t, db, models.RouteNaval)
	admin := testutil.TerminalAdmin(t, db, "boss", term)

	pending := testutil.Driver(t, db, "pending", term, models.TerminalStatusPending)
	if _, _, err := services.SaveDriverRide(db, pending, rideInput()); !errors.Is(err, services.ErrTerminalNotApproved) {
		t.Fatalf("pending driver: err = %v", err)
	}

	approved := testutil.Driver(t, db, "approved", term, models.TerminalStatusApproved)
	schedule, _, err := services.CreateSchedule(db, admin, services.ScheduleInput{
		Route:            models.RouteOrmoc,
		DepartureTime:    time.Now().Add(time.Hour),
		PlateNumber:      "SCH-1",
		AssignedDriverID: approved.ID,
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if _, _, err := services.SaveDriverRide(db, approved, rideInput()); !errors.Is(err, services.ErrAssignedRidePending) {
		t.Fatalf("assigned pending: err = %v", err)
	}

	if _, err := services.ActivateAssignedRide(db, approved.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, _, err := services.SaveDriverRide(db, approved, rideInput()); !errors.Is(err, services.ErrRideNotEditable) {
		t.Fatalf("admin ride edit: err = %v", err)
	}

	var stored models.Ride
	db.First(&stored, schedule.ID)
	if stored.PlateNumber != "SCH-1" {
		t.Fatalf("admin ride was modified: %+v", stored)
	}
}

func TestCreateScheduleAndActivate(t *testing.T) {
	db := testutil.NewDB(t)
	term := testutil.Terminal(t, db, models.RouteNaval)
	other := testutil.Terminal(t, db, models.RouteOrmoc)
	admin := testutil.TerminalAdmin(t, db, "boss", term)
	driver := testutil.Driver(t, db, "maria", term, models.TerminalStatusApproved)
	outsider := testutil.Driver(t, db, "outsider", other, models.TerminalStatusApproved)

	if _, _, err := services.CreateSchedule(db, admin, services.ScheduleInput{
		Route: models.RouteLeyte, DepartureTime: time.Now(), PlateNumber: "P-1", AssignedDriverID: outsider.ID,
	}); !errors.Is(err, services.ErrDriverNotEligible) {
		t.Fatalf("outsider: err = %v", err)
	}

	ride, assigned, err := services.CreateSchedule(db, admin, services.ScheduleInput{
		Route: models.RouteLeyte, DepartureTime: time.Now(), PlateNumber: "P-1", AssignedDriverID: driver.ID,
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if assigned.ID != driver.ID {
		t.Fatalf("assigned = %d", assigned.ID)
	}
	if ride.Status != models.RideStatusScheduled || ride.SeatsAvailable != 0 {
		t.Fatalf("schedule = %+v", ride)
	}
	if ride.Terminal != term.Name || ride.Location != term.Address || ride.StartPoint != term.Code {
		t.Fatalf("schedule location fields = %q %q %q", ride.Terminal, ride.Location, ride.StartPoint)
	}
	if !ride.IsAdminCreated() || *ride.CreatedByAdminID != admin.ID {
		t.Fatal("schedule must remember its admin")
	}

	scheduled, err := services.ScheduledRides(db, term.Code)
	if err != nil || len(scheduled) != 1 {
		t.Fatalf("scheduled rides = %d, %v", len(scheduled), err)
	}

	active, err := services.ActivateAssignedRide(db, driver.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if active.Status != models.RideStatusWaiting || active.ActivatedAt == nil {
		t.Fatalf("activated ride = %+v", active)
	}
	if active.SeatsAvailable != 14 {
		t.Fatalf("seats_available = %d, want 14", active.SeatsAvailable)
	}

	if _, err := services.ActivateAssignedRide(db, driver.ID); !errors.Is(err, services.ErrNoAssignedRide) {
		t.Fatalf("second activate: err = %v", err)
	}
}

func TestRideLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	term := testutil.Terminal(t, db, models.RouteNaval)
	driver := testutil.Driver(t, db, "pedro", term, models.TerminalStatusApproved)
	stranger := testutil.Driver(t, db, "stranger", term, models.TerminalStatusApproved)
	ride := testutil.Ride(t, db, driver, term.Code, models.RideStatusWaiting, time.Now())

	if _, err := services.CompleteRide(db, driver.ID, ride.ID); !errors.Is(err, services.ErrRideNotDeparted) {
		t.Fatalf("complete while waiting: err = %v", err)
	}
	if _, err := services.DepartRide(db, stranger.ID, ride.ID); !errors.Is(err, services.ErrRideNotFound) {
		t.Fatalf("depart someone else's ride: err = %v", err)
	}

	departed, err := services.DepartRide(db, driver.ID, ride.ID)
	if err != nil || departed.Status != models.RideStatusDeparted {
		t.Fatalf("depart: %v %+v", err, departed)
	}
	if again, err := services.DepartRide(db, driver.ID, ride.ID); err != nil || again.Status != models.RideStatusDeparted {
		t.Fatalf("depart twice: %v", err)
	}

	done, err := services.CompleteRide(db, driver.ID, ride.ID)
	if err != nil || done.Status != models.RideStatusCompleted {
		t.Fatalf("complete: %v %+v", err, done)
	}
	if _, err := services.DepartRide(db, driver.ID, ride.ID); !errors.Is(err, services.ErrInvalidTransition) {
		t.Fatalf("depart completed ride: err = %v", err)
	}
}

func TestUpdateSeatStatusChecksOwnership(t *testing.T) {
	db := testutil.NewDB(t)
	term := testutil.Terminal(t, db, models.RouteNaval)
	driver := testutil.Driver(t, db, "ana", term, models.TerminalStatusApproved)
	other := testutil.Driver(t, db, "ben", term, models.TerminalStatusApproved)

	ride, _, err := services.SaveDriverRide(db, driver, rideInput())
	if err != nil {
		t.Fatalf("save ride: %v", err)
	}
	seat := ride.Seats[1]

	if _, _, err := services.UpdateSeatStatus(db, other.ID, seat.ID, models.SeatStatusTaken); !errors.Is(err, services.ErrSeatNotFound) {
		t.Fatalf("foreign seat: err = %v", err)
	}
	if _, _, err := services.UpdateSeatStatus(db, driver.ID, seat.ID, "broken"); !errors.Is(err, services.ErrInvalidStatus) {
		t.Fatalf("bad status: err = %v", err)
	}

	available, rideID, err := services.UpdateSeatStatus(db, driver.ID, seat.ID, models.SeatStatusTaken)
	if err != nil {
		t.Fatalf("update seat: %v", err)
	}
	if available != 13 || rideID != ride.ID {
		t.Fatalf("available = %d ride = %d", available, rideID)
	}
}

func TestAdminRideOperations(t *testing.T) {
	db := testutil.NewDB(t)
	naval := testutil.Terminal(t, db, models.RouteNaval)
	ormoc := testutil.Terminal(t, db, models.RouteOrmoc)
	driver := testutil.Driver(t, db, "carlo", naval, models.TerminalStatusApproved)
	ride := testutil.Ride(t, db, driver, naval.Code, models.RideStatusWaiting, time.Now())
	if err := services.CreateDefaultSeats(db, ride.ID); err != nil {
		t.Fatalf("seats: %v", err)
	}

	if _, err := services.SetRideStatusByAdmin(db, naval.Code, ride.ID, models.RideStatusScheduled); !errors.Is(err, services.ErrInvalidStatus) {
		t.Fatalf("scheduled via admin: err = %v", err)
	}
	if _, err := services.SetRideStatusByAdmin(db, ormoc.Code, ride.ID, models.RideStatusDeparted); !errors.Is(err, services.ErrRideNotFound) {
		t.Fatalf("other terminal: err = %v", err)
	}
	updated, err := services.SetRideStatusByAdmin(db, naval.Code, ride.ID, models.RideStatusCompleted)
	if err != nil || updated.Status != models.RideStatusCompleted {
		t.Fatalf("set status: %v", err)
	}

	if err := services.DeleteSchedule(db, naval.Code, ride.ID); !errors.Is(err, services.ErrRideNotFound) {
		t.Fatalf("delete non-scheduled as schedule: err = %v", err)
	}
	if err := services.DeleteTerminalRide(db, naval.Code, ride.ID); err != nil {
		t.Fatalf("delete ride: %v", err)
	}
	var seats int64
	db.Model(&models.Seat{}).Where("ride_id = ?", ride.ID).Count(&seats)
	if seats != 0 {
		t.Fatalf("%d seats left behind", seats)
	}
}

func TestCollectTerminalStats(t *testing.T) {
	db := testutil.NewDB(t)
	term := testutil.Terminal(t, db, models.RouteNaval)
	a := testutil.Driver(t, db, "a", term, models.TerminalStatusApproved)
	testutil.Driver(t, db, "b", term, models.TerminalStatusPending)
	testutil.Driver(t, db, "c", term, models.TerminalStatusPending)

	now := time.Now()
	testutil.Ride(t, db, a, term.Code, models.RideStatusWaiting, now)
	testutil.Ride(t, db, a, term.Code, models.RideStatusCompleted, now.Add(-time.Hour))
	testutil.Ride(t, db, a, term.Code, models.RideStatusScheduled, now.Add(time.Hour))
	testutil.Ride(t, db, a, models.RouteOrmoc, models.RideStatusWaiting, now)

	stats, err := services.CollectTerminalStats(db, term)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := services.TerminalStats{
		TotalDrivers:   1,
		PendingDrivers: 2,
		TotalRides:     3,
		ActiveRides:    1,
		CompletedRides: 1,
		ScheduledRides: 1,
	}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestRideExists(t *testing.T) {
	db := testutil.NewDB(t)
	term := testutil.Terminal(t, db, models.RouteNaval)
	driver := testutil.Driver(t, db, "exists", term, models.TerminalStatusApproved)
	ride := testutil.Ride(t, db, driver, term.Code, models.RideStatusWaiting, time.Now())

	if ok, err := services.RideExists(db, ride.ID); err != nil || !ok {
		t.Fatalf("existing ride: ok=%v err=%v", ok, err)
	}
	if ok, err := services.RideExists(db, ride.ID+1); err != nil || ok {
		t.Fatalf("missing ride: ok=%v err=%v", ok, err)
	}
}
