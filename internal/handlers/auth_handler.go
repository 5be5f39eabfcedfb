package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"rideaxis/internal/forms"
	"rideaxis/internal/middleware"
	"rideaxis/internal/models"
	"rideaxis/internal/services"
	"rideaxis/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Register creates a driver account and logs it in.
func Register(db *gorm.DB, issuer *utils.TokenIssuer, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form forms.DriverRegisterForm
		err := c.ShouldBind(&form)
		if err == nil {
			err = form.Clean()
		}
		if err != nil {
			errs := forms.ValidationErrors(err)
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         errs.Text(),
				"errors":        errs.Map(),
				"show_register": true,
			})
			return
		}

		driver, err := services.RegisterDriver(db, services.RegisterInput{
			Username:  form.Username,
			Email:     form.Email,
			Password:  form.Password1,
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Address:   form.Address,
			Sex:       form.Sex,
		})
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         "A user with that username already exists.",
				"errors":        gin.H{"username": "A user with that username already exists."},
				"show_register": true,
			})
			return
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":         "A user with that email already exists.",
				"errors":        gin.H{"email": "A user with that email already exists."},
				"show_register": true,
			})
			return
		case err != nil:
			serverError(c, "register driver", err)
			return
		}

		token, err := issuer.GenerateDriverToken(driver.ID, driver.Username)
		if err != nil {
			serverError(c, "issue session", err, zap.Uint("driver_id", driver.ID))
			return
		}
		middleware.SetSession(c, issuer, token, secureCookie)

		zap.L().Info("driver registered", zap.Uint("driver_id", driver.ID), zap.String("username", driver.Username))
		c.JSON(http.StatusCreated, gin.H{
			"message":       "Account created successfully!",
			"driver":        models.NewDriverResponse(driver),
			"token":         token,
			"show_register": true,
		})
	}
}

// Login accepts drivers first, then active terminal admins.
func Login(db *gorm.DB, issuer *utils.TokenIssuer, secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form forms.LoginForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username or password"})
			return
		}

		driver, err := services.AuthenticateDriver(db, form.Username, form.Password)
		if err == nil {
			token, err := issuer.GenerateDriverToken(driver.ID, driver.Username)
			if err != nil {
				serverError(c, "issue session", err, zap.Uint("driver_id", driver.ID))
				return
			}
			middleware.SetSession(c, issuer, token, secureCookie)
			c.JSON(http.StatusOK, gin.H{
				"message":  "Login successful! Welcome back.",
				"role":     utils.RoleDriver,
				"redirect": "profile",
				"token":    token,
				"driver":   models.NewDriverResponse(driver),
			})
			return
		}
		if !errors.Is(err, services.ErrInvalidCredentials) {
			serverError(c, "authenticate driver", err)
			return
		}

		admin, err := services.AuthenticateTerminalAdmin(db, form.Username, form.Password)
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password", "show_register": false})
			return
		}
		if err != nil {
			serverError(c, "authenticate terminal admin", err)
			return
		}

		token, err := issuer.GenerateTerminalAdminToken(admin.ID, admin.Username, admin.Terminal.ID, admin.Terminal.Name)
		if err != nil {
			serverError(c, "issue session", err, zap.Uint("terminal_admin_id", admin.ID))
			return
		}
		middleware.SetSession(c, issuer, token, secureCookie)
		c.JSON(http.StatusOK, gin.H{
			"message":  fmt.Sprintf("Welcome, %s!", admin.FirstName),
			"role":     utils.RoleTerminalAdmin,
			"redirect": "terminal_admin_dashboard",
			"token":    token,
			"admin":    admin,
		})
	}
}

func Logout(secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearSession(c, secureCookie)
		c.JSON(http.StatusOK, gin.H{
			"message":  "You have been logged out successfully.",
			"redirect": "login",
		})
	}
}
