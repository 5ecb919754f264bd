package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers user directory routes.
func RegisterRoutes(g *gin.RouterGroup, h *UserHandler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	users := g.Group("/users")
	users.Use(authMiddleware)
	{
		users.GET("/me", h.Me)

		// === Admin Routes ===
		users.GET("", adminMiddleware, h.List)
		users.POST("", adminMiddleware, h.Create)
		users.GET("/:id", adminMiddleware, h.Get)
	}
}
