package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"rideaxis/internal/forms"
	"rideaxis/internal/middleware"
	"rideaxis/internal/models"
	"rideaxis/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func driverResponses(drivers []models.Driver) []models.DriverResponse {
	out := make([]models.DriverResponse, 0, len(drivers))
	for i := range drivers {
		out = append(out, models.NewDriverResponse(&drivers[i]))
	}
	return out
}

// TerminalAdminDashboard gathers everything the admin panel shows on one page.
func TerminalAdminDashboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}
		terminal := admin.Terminal
		fields := zap.Uint("terminal_id", terminal.ID)

		stats, err := services.CollectTerminalStats(db, terminal)
		if err != nil {
			serverError(c, "collect terminal stats", err, fields)
			return
		}
		allRides, err := services.TerminalRides(db, terminal.Code, "", 0)
		if err != nil {
			serverError(c, "load terminal rides", err, fields)
			return
		}
		recent := allRides
		if len(recent) > 10 {
			recent = recent[:10]
		}
		scheduled, err := services.ScheduledRides(db, terminal.Code)
		if err != nil {
			serverError(c, "load scheduled rides", err, fields)
			return
		}
		approved, err := services.TerminalDrivers(db, terminal.ID, models.TerminalStatusApproved)
		if err != nil {
			serverError(c, "load approved drivers", err, fields)
			return
		}
		summaries, err := services.DriverSummaries(db, terminal, approved)
		if err != nil {
			serverError(c, "summarise drivers", err, fields)
			return
		}
		pending, err := services.TerminalDrivers(db, terminal.ID, models.TerminalStatusPending)
		if err != nil {
			serverError(c, "load pending drivers", err, fields)
			return
		}
		eligible, err := services.EligibleDrivers(db, terminal.ID)
		if err != nil {
			serverError(c, "load eligible drivers", err, fields)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"admin":            admin,
			"terminal":         terminal,
			"stats":            stats,
			"recent_rides":     models.NewRideResponses(recent),
			"all_rides":        models.NewRideResponses(allRides),
			"scheduled_rides":  models.NewRideResponses(scheduled),
			"drivers_data":     summaries,
			"pending_drivers":  driverResponses(pending),
			"eligible_drivers": driverResponses(eligible),
			"routes":           models.RouteChoices,
		})
	}
}

// TerminalAdminDrivers is the roster of approved drivers.
func TerminalAdminDrivers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}

		drivers, err := services.TerminalDrivers(db, admin.Terminal.ID, models.TerminalStatusApproved)
		if err != nil {
			serverError(c, "load drivers", err, zap.Uint("terminal_id", admin.Terminal.ID))
			return
		}
		summaries, err := services.DriverSummaries(db, admin.Terminal, drivers)
		if err != nil {
			serverError(c, "summarise drivers", err, zap.Uint("terminal_id", admin.Terminal.ID))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"admin":        admin,
			"drivers_data": summaries,
		})
	}
}

func terminalDriver(c *gin.Context, db *gorm.DB, admin *models.TerminalAdmin) (*models.Driver, bool) {
	driverID, ok := paramID(c, "driver_id")
	if !ok {
		return nil, false
	}
	driver, err := services.TerminalDriver(db, admin.Terminal.ID, driverID)
	if errors.Is(err, services.ErrDriverNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
		return nil, false
	}
	if err != nil {
		serverError(c, "load driver", err, zap.Uint("driver_id", driverID))
		return nil, false
	}
	return driver, true
}

// TerminalAdminDriverDetail shows a driver's rides from this terminal and
// their ratings.
func TerminalAdminDriverDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}
		driver, ok := terminalDriver(c, db, admin)
		if !ok {
			return
		}
		fields := zap.Uint("driver_id", driver.ID)

		rides, err := services.DriverTerminalRides(db, driver.ID, admin.Terminal.Code)
		if err != nil {
			serverError(c, "load driver rides", err, fields)
			return
		}
		ratings, err := services.DriverRatings(db, driver.ID)
		if err != nil {
			serverError(c, "load driver ratings", err, fields)
			return
		}
		avg, err := services.AverageRating(db, driver.ID)
		if err != nil {
			serverError(c, "load average rating", err, fields)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"admin":        admin,
			"driver":       models.NewDriverResponse(driver),
			"driver_rides": models.NewRideResponses(rides),
			"ratings":      ratings,
			"avg_rating":   services.Round(avg, 2),
		})
	}
}

func TerminalAdminToggleDriver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}
		driver, ok := terminalDriver(c, db, admin)
		if !ok {
			return
		}

		driverID := driver.ID
		driver, err := services.ToggleDriverActive(db, admin.Terminal.ID, driverID)
		if err != nil {
			serverError(c, "toggle driver", err, zap.Uint("driver_id", driverID))
			return
		}

		state := "deactivated"
		if driver.IsActive {
			state = "activated"
		}
		zap.L().Info("driver toggled", zap.Uint("driver_id", driver.ID), zap.Bool("is_active", driver.IsActive))
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Driver %s has been %s.", driver.Username, state),
			"driver":  models.NewDriverResponse(driver),
		})
	}
}

// TerminalAdminRides lists rides from the terminal, optionally by status.
func TerminalAdminRides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}

		var filter forms.RideFilterForm
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status."})
			return
		}
		if filter.Status == "" {
			filter.Status = "all"
		}
		status := models.RideStatus(filter.Status)
		if filter.Status == "all" {
			status = ""
		}

		rides, err := services.TerminalRides(db, admin.Terminal.Code, status, 0)
		if err != nil {
			serverError(c, "load terminal rides", err, zap.Uint("terminal_id", admin.Terminal.ID))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"admin":         admin,
			"rides":         models.NewRideResponses(rides),
			"status_filter": filter.Status,
		})
	}
}

func TerminalAdminUpdateRideStatus(db *gorm.DB, tracker *services.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}
		rideID, ok := paramID(c, "ride_id")
		if !ok {
			return
		}

		var form forms.RideStatusForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status."})
			return
		}

		ride, err := services.SetRideStatusByAdmin(db, admin.Terminal.Code, rideID, models.RideStatus(form.Status))
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status."})
			return
		case errors.Is(err, services.ErrRideNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Ride not found"})
			return
		case err != nil:
			serverError(c, "update ride status", err, zap.Uint("ride_id", rideID))
			return
		}

		middleware.TrackRideTransition(string(ride.Status))
		tracker.PublishStatus(c.Request.Context(), ride.ID, ride.Status)
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Ride status updated to %s.", ride.Status.Display()),
			"ride":    models.NewRideResponse(ride),
		})
	}
}

func TerminalAdminDeleteRide(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}
		rideID, ok := paramID(c, "ride_id")
		if !ok {
			return
		}

		err := services.DeleteTerminalRide(db, admin.Terminal.Code, rideID)
		if errors.Is(err, services.ErrRideNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ride not found"})
			return
		}
		if err != nil {
			serverError(c, "delete ride", err, zap.Uint("ride_id", rideID))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Ride deleted successfully."})
	}
}

// TerminalAdminPendingDrivers lists registrations waiting for approval.
func TerminalAdminPendingDrivers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}

		pending, err := services.TerminalDrivers(db, admin.Terminal.ID, models.TerminalStatusPending)
		if err != nil {
			serverError(c, "load pending drivers", err, zap.Uint("terminal_id", admin.Terminal.ID))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"admin":           admin,
			"pending_drivers": driverResponses(pending),
			"pending_count":   len(pending),
		})
	}
}

func TerminalAdminApproveDriver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}
		driverID, ok := paramID(c, "driver_id")
		if !ok {
			return
		}

		driver, err := services.ApproveDriver(db, admin.Terminal.ID, driverID)
		if errors.Is(err, services.ErrDriverNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}
		if err != nil {
			serverError(c, "approve driver", err, zap.Uint("driver_id", driverID))
			return
		}

		zap.L().Info("driver approved", zap.Uint("driver_id", driver.ID), zap.Uint("terminal_id", admin.Terminal.ID))
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Driver %s has been approved!", driver.Username),
			"driver":  models.NewDriverResponse(driver),
		})
	}
}

func TerminalAdminRejectDriver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}
		driverID, ok := paramID(c, "driver_id")
		if !ok {
			return
		}

		var form forms.RejectForm
		if err := c.ShouldBind(&form); err != nil {
			form.RejectionReason = ""
		}

		driver, err := services.RejectDriver(db, admin.Terminal.ID, driverID, form.RejectionReason)
		if errors.Is(err, services.ErrDriverNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}
		if err != nil {
			serverError(c, "reject driver", err, zap.Uint("driver_id", driverID))
			return
		}

		zap.L().Info("driver rejected", zap.Uint("driver_id", driver.ID), zap.Uint("terminal_id", admin.Terminal.ID))
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Driver %s has been rejected.", driver.Username),
			"driver":  models.NewDriverResponse(driver),
		})
	}
}
