package routes

import (
	"time"

	"rideaxis/internal/forms"
	"rideaxis/internal/handlers"
	"rideaxis/internal/middleware"
	"rideaxis/internal/services"
	"rideaxis/internal/utils"
	"rideaxis/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the shared services the handlers are built from.
type Deps struct {
	DB           *gorm.DB
	Issuer       *utils.TokenIssuer
	Tracker      *services.Tracker
	Hub          *websocket.Hub
	Terminals    *services.TerminalCache
	Location     *time.Location
	UploadDir    string
	SecureCookie bool
}

func SetupRoutes(api *gin.RouterGroup, d Deps) {
	forms.RegisterValidators()
	db := d.DB

	api.Use(middleware.SessionLoader(d.Issuer))

	// Public pages
	api.GET("/", handlers.Index(db, d.Terminals))
	api.POST("/register", handlers.Register(db, d.Issuer, d.SecureCookie))
	api.POST("/login", handlers.Login(db, d.Issuer, d.SecureCookie))
	api.POST("/logout", handlers.Logout(d.SecureCookie))
	api.GET("/driver/:driver_id", handlers.DriverDetail(db, d.Tracker))
	api.POST("/rate-driver/:driver_id", handlers.RateDriver(db))
	api.GET("/rides/:ride_id/locations", handlers.RideLocations(db, d.Tracker))
	api.GET("/ws/rides/:ride_id", d.Hub.Handler(func(rideID uint) (bool, error) {
		return services.RideExists(db, rideID)
	}))

	// Driver
	driver := api.Group("")
	driver.Use(middleware.DriverRequired(), middleware.ActiveDriver(db))
	{
		driver.GET("/profile", handlers.ProfileGet(db, d.Terminals))
		driver.POST("/profile", handlers.ProfileUpdate(db, d.Terminals))
		driver.POST("/profile/picture", handlers.ProfilePictureUpload(db, d.UploadDir))
		driver.POST("/profile/activate-ride", handlers.ActivateRide(db, d.Tracker))
		driver.POST("/profile/ride", handlers.SaveRide(db, d.Location))
		driver.POST("/delete-profile", handlers.DeleteProfile(db, d.SecureCookie))

		driver.POST("/ride/depart/:ride_id", handlers.DepartRide(db, d.Tracker))
		driver.POST("/ride/complete/:ride_id", handlers.CompleteRide(db, d.Tracker))
		driver.POST("/update-seat-status", handlers.UpdateSeatStatus(db))

		driver.POST("/save-location", handlers.SaveLocation(db, d.Tracker))
		driver.POST("/save-locations", handlers.SaveLocations(db, d.Tracker))

		driver.GET("/history", handlers.RideHistory(db, d.Location))
		driver.GET("/terminal-schedules", handlers.TerminalSchedules(db))
	}

	// Terminal admin
	admin := api.Group("/terminal-admin")
	admin.Use(middleware.TerminalAdminRequired())
	{
		admin.GET("/dashboard", handlers.TerminalAdminDashboard(db))

		admin.GET("/drivers", handlers.TerminalAdminDrivers(db))
		admin.GET("/drivers/:driver_id", handlers.TerminalAdminDriverDetail(db))
		admin.POST("/drivers/:driver_id/toggle", handlers.TerminalAdminToggleDriver(db))
		admin.POST("/drivers/:driver_id/approve", handlers.TerminalAdminApproveDriver(db))
		admin.POST("/drivers/:driver_id/reject", handlers.TerminalAdminRejectDriver(db))
		admin.GET("/pending-drivers", handlers.TerminalAdminPendingDrivers(db))

		admin.GET("/rides", handlers.TerminalAdminRides(db))
		admin.POST("/rides/:ride_id/update-status", handlers.TerminalAdminUpdateRideStatus(db, d.Tracker))
		admin.POST("/rides/:ride_id/delete", handlers.TerminalAdminDeleteRide(db))

		admin.POST("/create-schedule", handlers.CreateSchedule(db, d.Location))
		admin.POST("/create-schedule-ajax", handlers.CreateScheduleAjax(db, d.Location))
		admin.POST("/delete-schedule/:ride_id", handlers.DeleteSchedule(db))
	}
}
