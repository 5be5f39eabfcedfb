package handlers

import (
	"net/http"
	"time"

	"rideaxis/internal/middleware"
	"rideaxis/internal/models"
	"rideaxis/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RideHistory lists every completed ride of the driver with a monthly chart.
func RideHistory(db *gorm.DB, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, _ := middleware.DriverID(c)

		rides, err := services.CompletedRides(db, driverID, 0)
		if err != nil {
			serverError(c, "load ride history", err, zap.Uint("driver_id", driverID))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"all_past_rides": models.NewRideResponses(rides),
			"chart_data":     services.MonthlyChart(rides, loc),
		})
	}
}

// TerminalSchedules shows the schedules published at the driver's terminal.
func TerminalSchedules(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driver, ok := currentDriver(c, db)
		if !ok {
			return
		}

		rides, err := terminalSchedules(db, driver)
		if err != nil {
			serverError(c, "load terminal schedules", err, zap.Uint("driver_id", driver.ID))
			return
		}

		name := "None"
		if driver.IsTerminalApproved() && driver.AssignedTerminal != nil {
			name = driver.AssignedTerminal.Name
		}
		c.JSON(http.StatusOK, gin.H{
			"driver":              models.NewDriverResponse(driver),
			"all_scheduled_rides": models.NewRideResponses(rides),
			"terminal_name":       name,
		})
	}
}
