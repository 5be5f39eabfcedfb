package middleware

import (
	"errors"
	"net/http"
	"strings"

	"rideaxis/internal/models"
	"rideaxis/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const SessionCookie = "rideaxis_session"

// Context keys set by SessionLoader.
const (
	KeyRole            = "role"
	KeyUsername        = "username"
	KeyDriverID        = "driver_id"
	KeyTerminalAdminID = "terminal_admin_id"
	KeyTerminalID      = "terminal_id"
	KeyTerminalName    = "terminal_name"
)

// SessionLoader reads the session from the cookie or a Bearer header and
// stores its claims in the context. Requests without a valid session pass
// through anonymously.
func SessionLoader(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := issuer.ValidateToken(token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(KeyRole, claims.Role)
		c.Set(KeyUsername, claims.Username)
		switch claims.Role {
		case utils.RoleDriver:
			c.Set(KeyDriverID, claims.UserID)
		case utils.RoleTerminalAdmin:
			c.Set(KeyTerminalAdminID, claims.UserID)
			c.Set(KeyTerminalID, claims.TerminalID)
			c.Set(KeyTerminalName, claims.TerminalName)
		}
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// DriverRequired rejects requests without a driver session.
func DriverRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(KeyDriverID); ok {
			c.Next()
			return
		}
		if _, ok := c.Get(KeyTerminalAdminID); ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Driver account required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Login required", "redirect": "login"})
	}
}

// ActiveDriver runs after DriverRequired and drops sessions of drivers that
// were deactivated or deleted after the token was issued.
func ActiveDriver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := DriverID(c)
		var driver models.Driver
		err := db.Select("id", "is_active").Where("id = ?", id).Take(&driver).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			zap.L().Error("load session driver", zap.Uint("driver_id", id), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if err != nil || !driver.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Login required", "redirect": "login"})
			return
		}
		c.Next()
	}
}

// TerminalAdminRequired rejects requests whose session has no terminal_admin_id.
func TerminalAdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(KeyTerminalAdminID); ok {
			c.Next()
			return
		}
		if _, ok := c.Get(KeyDriverID); ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Terminal admin account required"})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":    "Please login to access the admin panel.",
			"redirect": "login",
		})
	}
}

// SetSession writes the session cookie. secure marks it HTTPS-only.
func SetSession(c *gin.Context, issuer *utils.TokenIssuer, token string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(issuer.TTL().Seconds()), "/", "", secure, true)
}

func ClearSession(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}

func DriverID(c *gin.Context) (uint, bool) {
	return uintKey(c, KeyDriverID)
}

func TerminalAdminID(c *gin.Context) (uint, bool) {
	return uintKey(c, KeyTerminalAdminID)
}

func uintKey(c *gin.Context, key string) (uint, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
