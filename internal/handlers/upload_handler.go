package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"rideaxis/internal/middleware"
	"rideaxis/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	profilePictureDir     = "profile_pictures"
	maxProfilePictureSize = 5 << 20
)

var pictureExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ProfilePictureUpload stores the picture under <uploadDir>/profile_pictures
// with a random name and points the driver at it.
func ProfilePictureUpload(db *gorm.DB, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, _ := middleware.DriverID(c)

		file, err := c.FormFile("profile_picture")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File not found"})
			return
		}
		if file.Size > maxProfilePictureSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File is too large"})
			return
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !pictureExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Upload a valid image."})
			return
		}

		dir := filepath.Join(uploadDir, profilePictureDir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			serverError(c, "create upload dir", err)
			return
		}

		name := fmt.Sprintf("%s%s", uuid.New().String(), ext)
		if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
			serverError(c, "save upload", err, zap.Uint("driver_id", driverID))
			return
		}

		relative := profilePictureDir + "/" + name
		if err := services.UpdateProfilePicture(db, driverID, relative); err != nil {
			serverError(c, "update profile picture", err, zap.Uint("driver_id", driverID))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":         "Profile picture updated.",
			"profile_picture": "/uploads/" + relative,
		})
	}
}
