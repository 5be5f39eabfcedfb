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

const notAvailableChoice = "Select a valid choice. That choice is not one of the available choices."

// createSchedule binds and stores a schedule. Invalid input comes back as
// forms.Errors; any other error is a store failure.
func createSchedule(c *gin.Context, db *gorm.DB, admin *models.TerminalAdmin, loc *time.Location) (*models.Ride, *models.Driver, error) {
	var form forms.ScheduleForm
	if err := c.ShouldBind(&form); err != nil {
		return nil, nil, forms.ValidationErrors(err)
	}
	departure, err := forms.ParseDepartureTime(form.DepartureTime, loc)
	if err != nil {
		return nil, nil, err
	}

	ride, driver, err := services.CreateSchedule(db, admin, services.ScheduleInput{
		Route:            form.Route,
		DepartureTime:    departure,
		PlateNumber:      form.PlateNumber,
		AssignedDriverID: form.AssignedDriver,
	})
	if errors.Is(err, services.ErrDriverNotEligible) {
		return nil, nil, forms.Errors{}.Add("assigned_driver", notAvailableChoice)
	}
	if err != nil {
		return nil, nil, err
	}

	zap.L().Info("schedule created",
		zap.Uint("ride_id", ride.ID),
		zap.Uint("driver_id", driver.ID),
		zap.Uint("terminal_id", admin.Terminal.ID))
	middleware.TrackRideTransition(string(models.RideStatusScheduled))
	return ride, driver, nil
}

func CreateSchedule(db *gorm.DB, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}

		ride, driver, err := createSchedule(c, db, admin, loc)
		var formErrs forms.Errors
		if errors.As(err, &formErrs) {
			validationFailed(c, "Please fix the errors in the form.", formErrs)
			return
		}
		if err != nil {
			serverError(c, "create schedule", err, zap.Uint("terminal_id", admin.Terminal.ID))
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": fmt.Sprintf("Ride schedule created and assigned to %s!", driver.FullName()),
			"ride":    models.NewRideResponse(ride),
		})
	}
}

// CreateScheduleAjax answers the dashboard's inline form. Validation
// failures are reported with 200 and success=false.
func CreateScheduleAjax(db *gorm.DB, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}

		ride, driver, err := createSchedule(c, db, admin, loc)
		var formErrs forms.Errors
		if errors.As(err, &formErrs) {
			c.JSON(http.StatusOK, gin.H{"success": false, "errors": formErrs.Map()})
			return
		}
		if err != nil {
			serverError(c, "create schedule", err, zap.Uint("terminal_id", admin.Terminal.ID))
			return
		}

		name := driver.FirstName
		if name == "" {
			name = driver.Username
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Schedule created and assigned to %s!", name),
			"ride_id": ride.ID,
		})
	}
}

func DeleteSchedule(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, ok := currentAdmin(c, db)
		if !ok {
			return
		}
		rideID, ok := paramID(c, "ride_id")
		if !ok {
			return
		}

		err := services.DeleteSchedule(db, admin.Terminal.Code, rideID)
		if errors.Is(err, services.ErrRideNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
			return
		}
		if err != nil {
			serverError(c, "delete schedule", err, zap.Uint("ride_id", rideID))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Schedule deleted successfully."})
	}
}
