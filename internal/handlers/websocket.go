package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/ridelink/ridelink-backend/internal/middleware"
	"github.com/ridelink/ridelink-backend/internal/services"
)

// WebSocketHandler handles WebSocket connections
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFrom(c)

		role := ""
		if len(actor.Roles) > 0 {
			role = string(actor.Roles[0])
		}

		services.HandleWebSocket(hub, c.Writer, c.Request, actor.ID, role)
	}
}
