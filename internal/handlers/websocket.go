package handlers

import (
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// WebSocketHandler connects the authenticated user to the event feed.
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		userType := c.GetString("userType")

		services.HandleWebSocket(hub, c.Writer, c.Request, userID, userType)
	}
}
