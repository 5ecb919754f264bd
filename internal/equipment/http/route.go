package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers equipment inventory routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/equipment")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)

		admin := group.Group("")
		admin.Use(adminMiddleware)
		{
			admin.POST("", h.Create)
			admin.POST("/:id/reserve", h.Reserve)
			admin.POST("/:id/release", h.Release)
		}
	}
}
