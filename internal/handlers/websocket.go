package handlers

import (
	"github.com/fleetgrid/fleetgrid-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// WebSocketHandler upgrades the connection and streams booking events to the
// authenticated client
func WebSocketHandler(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		services.HandleWebSocket(hub, c.Writer, c.Request, currentUserID(c), c.GetString("role"))
	}
}
