package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"rideaxis/internal/forms"
	"rideaxis/internal/middleware"
	"rideaxis/internal/models"
	"rideaxis/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ActivateRide puts the schedule assigned by the terminal admin on the board.
func ActivateRide(db *gorm.DB, tracker *services.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, _ := middleware.DriverID(c)

		ride, err := services.ActivateAssignedRide(db, driverID)
		if errors.Is(err, services.ErrNoAssignedRide) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No assigned ride to activate."})
			return
		}
		if err != nil {
			serverError(c, "activate ride", err, zap.Uint("driver_id", driverID))
			return
		}

		middleware.TrackRideTransition(string(ride.Status))
		tracker.PublishStatus(c.Request.Context(), ride.ID, ride.Status)
		c.JSON(http.StatusOK, gin.H{
			"message": "Ride activated successfully! It's now visible to passengers.",
			"ride":    models.NewRideResponse(ride),
		})
	}
}

// SaveRide creates the driver's own ride or updates their active one.
func SaveRide(db *gorm.DB, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		driver, ok := currentDriver(c, db)
		if !ok {
			return
		}

		var form forms.RideForm
		if err := c.ShouldBind(&form); err != nil {
			validationFailed(c, "Please fix the errors below.", err)
			return
		}
		departure, err := forms.ParseDepartureTime(form.DepartureTime, loc)
		if err != nil {
			validationFailed(c, "Please fix the errors below.", err)
			return
		}

		ride, created, err := services.SaveDriverRide(db, driver, services.RideInput{
			Terminal:       form.Terminal,
			Location:       form.Location,
			Route:          form.Route,
			DepartureTime:  departure,
			SeatsAvailable: form.SeatsAvailable,
			PlateNumber:    form.PlateNumber,
		})
		switch {
		case errors.Is(err, services.ErrAssignedRidePending):
			c.JSON(http.StatusConflict, gin.H{"error": "You have an assigned schedule from your terminal admin. Please activate it instead."})
			return
		case errors.Is(err, services.ErrTerminalNotApproved):
			c.JSON(http.StatusForbidden, gin.H{"error": "You cannot create rides until your terminal registration is approved."})
			return
		case errors.Is(err, services.ErrRideNotEditable):
			c.JSON(http.StatusForbidden, gin.H{"error": "This ride was scheduled by your terminal admin and cannot be modified."})
			return
		case err != nil:
			serverError(c, "save ride", err, zap.Uint("driver_id", driver.ID))
			return
		}

		status, message := http.StatusOK, "Ride updated successfully!"
		if created {
			status, message = http.StatusCreated, "Ride created successfully!"
			middleware.TrackRideTransition(string(models.RideStatusWaiting))
		}
		c.JSON(status, gin.H{
			"message": message,
			"ride":    models.NewRideResponse(ride),
		})
	}
}

// DepartRide marks the driver's ride as on the road.
func DepartRide(db *gorm.DB, tracker *services.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, _ := middleware.DriverID(c)
		rideID, ok := paramID(c, "ride_id")
		if !ok {
			return
		}

		ride, err := services.DepartRide(db, driverID, rideID)
		switch {
		case errors.Is(err, services.ErrRideNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Ride not found"})
			return
		case errors.Is(err, services.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Ride %d cannot depart while %s.", ride.ID, ride.Status.Display())})
			return
		case err != nil:
			serverError(c, "depart ride", err, zap.Uint("ride_id", rideID))
			return
		}

		middleware.TrackRideTransition(string(models.RideStatusDeparted))
		tracker.PublishStatus(c.Request.Context(), ride.ID, ride.Status)
		c.JSON(http.StatusOK, gin.H{
			"message": "Ride departed successfully!",
			"ride":    models.NewRideResponse(ride),
		})
	}
}

// CompleteRide archives a departed ride.
func CompleteRide(db *gorm.DB, tracker *services.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, _ := middleware.DriverID(c)
		rideID, ok := paramID(c, "ride_id")
		if !ok {
			return
		}

		ride, err := services.CompleteRide(db, driverID, rideID)
		switch {
		case errors.Is(err, services.ErrRideNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Ride not found"})
			return
		case errors.Is(err, services.ErrRideNotDeparted):
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Ride %d must be 'departed' before being marked as completed.", ride.ID)})
			return
		case err != nil:
			serverError(c, "complete ride", err, zap.Uint("ride_id", rideID))
			return
		}

		middleware.TrackRideTransition(string(models.RideStatusCompleted))
		tracker.PublishStatus(c.Request.Context(), ride.ID, ride.Status)
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Ride %d completed successfully! It has been archived.", ride.ID),
			"ride":    models.NewRideResponse(ride),
		})
	}
}

// UpdateSeatStatus toggles one seat of the driver's ride.
func UpdateSeatStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, _ := middleware.DriverID(c)

		var form forms.SeatStatusForm
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request"})
			return
		}

		available, rideID, err := services.UpdateSeatStatus(db, driverID, form.SeatID, models.SeatStatus(form.Status))
		switch {
		case errors.Is(err, services.ErrSeatNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Seat not found"})
			return
		case err != nil:
			zap.L().Error("update seat status", zap.Uint("seat_id", form.SeatID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"ride_id":         rideID,
			"available_count": available,
		})
	}
}
