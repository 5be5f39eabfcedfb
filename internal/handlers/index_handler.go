package handlers

import (
	"net/http"

	"rideaxis/internal/middleware"
	"rideaxis/internal/models"
	"rideaxis/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Index is the public board of rides waiting at or departed from a terminal.
// A logged-in driver sees their own ride first.
func Index(db *gorm.DB, terminals *services.TerminalCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		rides, err := services.BoardRides(db)
		if err != nil {
			serverError(c, "load board rides", err)
			return
		}

		if driverID, ok := middleware.DriverID(c); ok {
			for i := range rides {
				if rides[i].DriverID == driverID {
					own := rides[i]
					copy(rides[1:i+1], rides[:i])
					rides[0] = own
					break
				}
			}
		}

		ratings, err := services.AverageRatings(db, nil)
		if err != nil {
			serverError(c, "load driver ratings", err)
			return
		}

		routes := make([]string, 0)
		seen := make(map[string]bool)
		resp := make([]models.RideResponse, 0, len(rides))
		for i := range rides {
			r := &rides[i]
			resp = append(resp, withAvgRating(models.NewRideResponse(r), services.Round(ratings[r.DriverID], 1)))
			if !seen[r.Route] {
				seen[r.Route] = true
				routes = append(routes, r.Route)
			}
		}

		active, err := terminals.Active()
		if err != nil {
			serverError(c, "load terminals", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"rides":     resp,
			"routes":    routes,
			"terminals": active,
		})
	}
}
