package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers resource-related routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/resources")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)    // List rooms
		group.GET("/:id", h.Get) // Get room details

		// === Admin Routes ===
		group.POST("", adminMiddleware, h.Create)      // Create room
		group.PATCH("/:id", adminMiddleware, h.Update) // Update or deactivate room
	}
}
