package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers waitlist routes. Ownership checks live in the service.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	group := g.Group("/waitlist")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Submit)
		group.GET("/:id", h.Get)
		group.POST("/:id/withdraw", h.Withdraw)
		group.POST("/:id/claim", h.Claim)
	}
}
