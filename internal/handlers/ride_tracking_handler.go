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

// StatusNotTracking answers location pings for rides that are not departed.
const StatusNotTracking = 440

func locationError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"status": "error", "message": message})
}

func bindLocation(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		if _, ok := forms.ValidationErrors(err).Map()[forms.NonFieldErrors]; ok {
			locationError(c, http.StatusBadRequest, "Invalid JSON data")
		} else {
			locationError(c, http.StatusBadRequest, "Missing required fields")
		}
		return false
	}
	return true
}

func mapLocationError(c *gin.Context, err error, rideID uint) {
	switch {
	case errors.Is(err, services.ErrRideNotFound):
		locationError(c, http.StatusNotFound, "Ride not found or unauthorized.")
	case errors.Is(err, services.ErrRideNotDeparted):
		locationError(c, StatusNotTracking, "Ride is not currently departed for tracking.")
	default:
		zap.L().Error("save location", zap.Uint("ride_id", rideID), zap.Error(err))
		locationError(c, http.StatusInternalServerError, "Internal server error")
	}
}

// SaveLocation records one GPS ping of the driver's departed ride and pushes
// it to riders following the ride.
func SaveLocation(db *gorm.DB, tracker *services.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, _ := middleware.DriverID(c)

		var form forms.LocationForm
		if !bindLocation(c, &form) {
			return
		}

		loc, err := services.SaveLocation(db, driverID, form.RideID, services.Coordinates{
			Latitude:  *form.Latitude,
			Longitude: *form.Longitude,
		})
		if err != nil {
			mapLocationError(c, err, form.RideID)
			return
		}

		middleware.TrackLocationPoints(1)
		tracker.PublishLocation(c.Request.Context(), loc.Point())
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Location saved."})
	}
}

// SaveLocations stores the points a driver's device queued while offline.
func SaveLocations(db *gorm.DB, tracker *services.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, _ := middleware.DriverID(c)

		var form forms.LocationBatchForm
		if !bindLocation(c, &form) {
			return
		}

		points := make([]services.Coordinates, 0, len(form.Points))
		for _, p := range form.Points {
			points = append(points, services.Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude})
		}

		locs, err := services.SaveLocations(db, driverID, form.RideID, points)
		if err != nil {
			mapLocationError(c, err, form.RideID)
			return
		}

		middleware.TrackLocationPoints(len(locs))
		if n := len(locs); n > 0 {
			tracker.PublishLocation(c.Request.Context(), locs[n-1].Point())
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Locations saved.",
			"saved":   len(locs),
		})
	}
}

// latestPoint prefers the point cached by the tracker over the database.
func latestPoint(c *gin.Context, db *gorm.DB, tracker *services.Tracker, rideID uint) (*models.LocationPoint, error) {
	if p, ok := tracker.Latest(c.Request.Context(), rideID); ok {
		return p, nil
	}
	loc, err := services.LatestLocation(db, rideID)
	if err != nil || loc == nil {
		return nil, err
	}
	p := loc.Point()
	return &p, nil
}

// RideLocations returns the track of a ride for the passenger map.
func RideLocations(db *gorm.DB, tracker *services.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		rideID, ok := paramID(c, "ride_id")
		if !ok {
			return
		}

		var ride models.Ride
		if err := db.First(&ride, rideID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Ride not found"})
				return
			}
			serverError(c, "load ride", err, zap.Uint("ride_id", rideID))
			return
		}

		locs, err := services.RideLocations(db, rideID)
		if err != nil {
			serverError(c, "load ride locations", err, zap.Uint("ride_id", rideID))
			return
		}
		points := make([]models.LocationPoint, 0, len(locs))
		for i := range locs {
			points = append(points, locs[i].Point())
		}

		var latest *models.LocationPoint
		if ride.Status == models.RideStatusDeparted {
			if latest, err = latestPoint(c, db, tracker, rideID); err != nil {
				serverError(c, "load latest location", err, zap.Uint("ride_id", rideID))
				return
			}
		} else if n := len(points); n > 0 {
			latest = &points[n-1]
		}

		c.JSON(http.StatusOK, gin.H{
			"ride_id":        ride.ID,
			"status":         ride.Status,
			"status_display": ride.Status.Display(),
			"locations":      points,
			"latest":         latest,
		})
	}
}
