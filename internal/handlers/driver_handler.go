package handlers

import (
	"errors"
	"net/http"

	"rideaxis/internal/forms"
	"rideaxis/internal/middleware"
	"rideaxis/internal/models"
	"rideaxis/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DriverDetail is the public page of a driver: current ride with seats,
// latest position while departed, recent trips and rating.
func DriverDetail(db *gorm.DB, tracker *services.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := paramID(c, "driver_id")
		if !ok {
			return
		}

		driver, err := services.GetDriver(db, driverID)
		if errors.Is(err, services.ErrDriverNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found"})
			return
		}
		if err != nil {
			serverError(c, "load driver", err, zap.Uint("driver_id", driverID))
			return
		}

		current, err := services.FindActiveRide(db, driver.ID)
		if err != nil {
			serverError(c, "load current ride", err, zap.Uint("driver_id", driverID))
			return
		}

		var currentResp *models.RideResponse
		var latest *models.LocationPoint
		if current != nil {
			current.Driver = *driver
			r := models.NewRideResponse(current)
			currentResp = &r

			if current.Status == models.RideStatusDeparted {
				latest, err = latestPoint(c, db, tracker, current.ID)
				if err != nil {
					serverError(c, "load latest location", err, zap.Uint("ride_id", current.ID))
					return
				}
			}
		}

		past, err := services.CompletedRides(db, driver.ID, 3)
		if err != nil {
			serverError(c, "load past rides", err, zap.Uint("driver_id", driverID))
			return
		}

		avg, err := services.AverageRating(db, driver.ID)
		if err != nil {
			serverError(c, "load average rating", err, zap.Uint("driver_id", driverID))
			return
		}
		rated, err := services.HasRated(db, driver.ID, c.ClientIP())
		if err != nil {
			serverError(c, "check rating", err, zap.Uint("driver_id", driverID))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"driver":          models.NewDriverResponse(driver),
			"current_ride":    currentResp,
			"latest_location": latest,
			"past_rides":      models.NewRideResponses(past),
			"average_rating":  services.Round(avg, 2),
			"already_rated":   rated,
		})
	}
}

// RateDriver stores a 1..5 rating, one per client IP.
func RateDriver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := paramID(c, "driver_id")
		if !ok {
			return
		}

		var form forms.RatingForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request"})
			return
		}

		avg, err := services.RateDriver(db, driverID, form.Rating, c.ClientIP())
		switch {
		case errors.Is(err, services.ErrAlreadyRated):
			c.JSON(http.StatusOK, gin.H{"success": false, "error": "You already rated this driver."})
			return
		case errors.Is(err, services.ErrDriverNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Driver not found"})
			return
		case err != nil:
			zap.L().Error("rate driver", zap.Uint("driver_id", driverID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
			return
		}

		middleware.TrackDriverRating()
		c.JSON(http.StatusOK, gin.H{
			"success":        true,
			"message":        "Thanks for rating!",
			"average_rating": services.Round(avg, 2),
		})
	}
}
