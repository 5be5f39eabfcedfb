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

type terminalInfo struct {
	AssignedTerminal *models.Terminal      `json:"assigned_terminal"`
	TerminalName     string                `json:"terminal_name"`
	Status           models.TerminalStatus `json:"status"`
	StatusDisplay    string                `json:"status_display"`
	StatusColor      string                `json:"status_color"`
	RejectionReason  string                `json:"rejection_reason,omitempty"`
	IsApproved       bool                  `json:"is_approved"`
}

func newTerminalInfo(d *models.Driver) terminalInfo {
	info := terminalInfo{
		AssignedTerminal: d.AssignedTerminal,
		TerminalName:     "None",
		Status:           d.TerminalStatus,
		StatusDisplay:    d.TerminalStatus.Display(),
		StatusColor:      d.TerminalStatus.Color(),
		RejectionReason:  d.TerminalRejectionReason,
		IsApproved:       d.IsTerminalApproved(),
	}
	if d.AssignedTerminal != nil {
		info.TerminalName = d.AssignedTerminal.Name
	}
	return info
}

// terminalSchedules lists the schedules of the driver's terminal once the
// driver is approved there.
func terminalSchedules(db *gorm.DB, d *models.Driver) ([]models.Ride, error) {
	if !d.IsTerminalApproved() || d.AssignedTerminal == nil {
		return []models.Ride{}, nil
	}
	return services.ScheduledRides(db, d.AssignedTerminal.Code)
}

// ProfileGet is the driver's dashboard.
func ProfileGet(db *gorm.DB, terminals *services.TerminalCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		driver, ok := currentDriver(c, db)
		if !ok {
			return
		}
		fields := zap.Uint("driver_id", driver.ID)

		assigned, err := services.FindAssignedRide(db, driver.ID)
		if err != nil {
			serverError(c, "load assigned ride", err, fields)
			return
		}
		active, err := services.FindActiveRide(db, driver.ID)
		if err != nil {
			serverError(c, "load active ride", err, fields)
			return
		}
		past, err := services.CompletedRides(db, driver.ID, 3)
		if err != nil {
			serverError(c, "load past rides", err, fields)
			return
		}
		scheduled, err := terminalSchedules(db, driver)
		if err != nil {
			serverError(c, "load terminal schedules", err, fields)
			return
		}
		avg, err := services.AverageRating(db, driver.ID)
		if err != nil {
			serverError(c, "load average rating", err, fields)
			return
		}
		options, err := terminals.Active()
		if err != nil {
			serverError(c, "load terminals", err, fields)
			return
		}

		seats := []models.Seat{}
		var assignedResp, activeResp *models.RideResponse
		if assigned != nil {
			r := models.NewRideResponse(assigned)
			assignedResp = &r
			seats = assigned.Seats
		}
		if active != nil {
			r := models.NewRideResponse(active)
			activeResp = &r
			if assigned == nil {
				seats = active.Seats
			}
		}
		editable := assigned == nil && driver.IsTerminalApproved() && (active == nil || active.CanDriverEdit())

		c.JSON(http.StatusOK, gin.H{
			"driver":              models.NewDriverResponse(driver),
			"assigned_ride":       assignedResp,
			"active_ride":         activeResp,
			"seat_classes":        seats,
			"seat_count":          len(seats),
			"ride_editable":       editable,
			"past_rides":          models.NewRideResponses(past),
			"all_scheduled_rides": models.NewRideResponses(scheduled),
			"average_rating":      services.Round(avg, 2),
			"terminal_info":       newTerminalInfo(driver),
			"terminals":           options,
			"routes":              models.RouteChoices,
		})
	}
}

// ProfileUpdate saves the driver's details and terminal choice.
func ProfileUpdate(db *gorm.DB, terminals *services.TerminalCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		driver, ok := currentDriver(c, db)
		if !ok {
			return
		}

		var form forms.ProfileForm
		if err := c.ShouldBind(&form); err != nil {
			validationFailed(c, "Please fix the errors below.", err)
			return
		}

		changed, err := services.UpdateProfile(db, driver, services.ProfileInput{
			FirstName:          form.FirstName,
			LastName:           form.LastName,
			Email:              form.Email,
			Username:           form.Username,
			Address:            form.Address,
			Sex:                form.Sex,
			AssignedTerminalID: form.TerminalID(),
		})
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please fix the errors below.", "errors": gin.H{"username": "A user with that username already exists."}})
			return
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please fix the errors below.", "errors": gin.H{"email": "A user with that email already exists."}})
			return
		case errors.Is(err, services.ErrTerminalNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Please fix the errors below.", "errors": gin.H{"assigned_terminal_id": "Select a valid choice. That choice is not one of the available choices."}})
			return
		case err != nil:
			serverError(c, "update profile", err, zap.Uint("driver_id", driver.ID))
			return
		}

		message := "Profile updated successfully!"
		if changed && driver.AssignedTerminalID != nil {
			terminal, err := terminals.Get(*driver.AssignedTerminalID)
			if err != nil {
				serverError(c, "load terminal", err, zap.Uint("terminal_id", *driver.AssignedTerminalID))
				return
			}
			driver.AssignedTerminal = terminal
			message = fmt.Sprintf("Profile updated! Your request to join %s has been submitted for approval.", terminal.Name)
			zap.L().Info("driver requested terminal",
				zap.Uint("driver_id", driver.ID),
				zap.Uint("terminal_id", terminal.ID),
			)
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       message,
			"driver":        models.NewDriverResponse(driver),
			"terminal_info": newTerminalInfo(driver),
		})
	}
}

// DeleteProfile removes the driver account and ends the session.
func DeleteProfile(db *gorm.DB, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, _ := middleware.DriverID(c)

		if err := services.DeleteDriver(db, driverID); err != nil && !errors.Is(err, services.ErrDriverNotFound) {
			serverError(c, "delete driver", err, zap.Uint("driver_id", driverID))
			return
		}

		middleware.ClearSession(c, secureCookie)
		zap.L().Info("driver deleted", zap.Uint("driver_id", driverID))
		c.JSON(http.StatusOK, gin.H{
			"message":  "Your profile has been deleted.",
			"redirect": "index",
		})
	}
}
