package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"rideaxis/internal/forms"
	"rideaxis/internal/middleware"
	"rideaxis/internal/models"
	"rideaxis/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// paramID reads a positive numeric path parameter, answering 404 otherwise.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return 0, false
	}
	return uint(id), true
}

// serverError logs err and answers a generic 500.
func serverError(c *gin.Context, msg string, err error, fields ...zap.Field) {
	zap.L().Error(msg, append(fields, zap.Error(err), zap.String("path", c.FullPath()))...)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// currentDriver loads the driver of the session. The driver gates have already
// run, so a missing or inactive row means the account changed meanwhile.
func currentDriver(c *gin.Context, db *gorm.DB) (*models.Driver, bool) {
	id, _ := middleware.DriverID(c)
	driver, err := services.GetDriver(db, id)
	if errors.Is(err, services.ErrDriverNotFound) || (err == nil && !driver.IsActive) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Login required", "redirect": "login"})
		return nil, false
	}
	if err != nil {
		serverError(c, "load session driver", err, zap.Uint("driver_id", id))
		return nil, false
	}
	return driver, true
}

func currentAdmin(c *gin.Context, db *gorm.DB) (*models.TerminalAdmin, bool) {
	id, _ := middleware.TerminalAdminID(c)
	admin, err := services.GetTerminalAdmin(db, id)
	if errors.Is(err, services.ErrAdminNotFound) || errors.Is(err, services.ErrTerminalNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":    "Please login to access the admin panel.",
			"redirect": "login",
		})
		return nil, false
	}
	if err != nil {
		serverError(c, "load session terminal admin", err, zap.Uint("terminal_admin_id", id))
		return nil, false
	}
	return admin, true
}

// validationFailed answers 400 with the flattened field errors.
func validationFailed(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  message,
		"errors": forms.ValidationErrors(err).Map(),
	})
}

func withAvgRating(resp models.RideResponse, avg float64) models.RideResponse {
	resp.DriverAvgRating = &avg
	return resp
}
