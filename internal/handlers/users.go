package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ridelink/ridelink-backend/internal/models"
	"github.com/ridelink/ridelink-backend/internal/services"
	"gorm.io/gorm"
)

// GetProfile retrieves the user's profile
func GetProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		c.JSON(200, gin.H{
			"id":           user.ID,
			"email":        user.Email,
			"username":     user.Username,
			"phoneNumber":  user.PhoneNumber,
			"role":         user.Role,
			"licenseUrl":   user.LicenseURL,
			"insuranceUrl": user.InsuranceURL,
		})
	}
}

// UpdateProfile updates the user's profile information
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			Username    *string `json:"username"`
			PhoneNumber *string `json:"phoneNumber"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		// Update fields individually to handle empty strings properly
		if input.Username != nil {
			user.Username = *input.Username
		}
		if input.PhoneNumber != nil {
			user.PhoneNumber = *input.PhoneNumber
		}

		if err := db.Save(&user).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to update profile"})
			return
		}

		c.JSON(200, gin.H{
			"id":          user.ID,
			"email":       user.Email,
			"username":    user.Username,
			"phoneNumber": user.PhoneNumber,
			"role":        user.Role,
		})
	}
}

// UploadDriverDocument stores a license or insurance image for a driver
func UploadDriverDocument(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		if user.Role != models.RoleDriver {
			c.JSON(403, gin.H{"error": "Only drivers can upload documents"})
			return
		}

		docType := c.PostForm("type")
		if docType != "license" && docType != "insurance" {
			c.JSON(400, gin.H{"error": "Document type must be license or insurance"})
			return
		}

		file, err := c.FormFile("document")
		if err != nil {
			c.JSON(400, gin.H{"error": "Document file is required"})
			return
		}

		url, err := services.UploadDocument(file, "driver-documents")
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to upload document"})
			return
		}

		if docType == "license" {
			user.LicenseURL = url
		} else {
			user.InsuranceURL = url
		}

		if err := db.Save(&user).Error; err != nil {
			c.JSON(500, gin.H{"error": "Failed to save document URL"})
			return
		}

		c.JSON(200, gin.H{"ok": true, "url": url})
	}
}
