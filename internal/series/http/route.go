package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers recurring series routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/series")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.POST("/preview", h.Preview)
		group.GET("/:id", h.Get)
		group.PATCH("/:id", h.SetActive)
		group.DELETE("/:id", h.Delete)

		// === Admin Routes ===
		group.POST("/:id/materialize", adminMiddleware, h.Materialize)
	}
}
