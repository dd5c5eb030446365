package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ridelink/ridelink-backend/internal/version"
)

// Version reports build information
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":      version.Name,
			"version":   version.Version,
			"commit":    version.Commit,
			"buildTime": version.BuildTime,
		})
	}
}
