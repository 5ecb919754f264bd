package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the notification outbox routes. All of them are admin only.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	outbox := g.Group("/notifications/outbox")
	outbox.Use(authMiddleware, adminMiddleware)
	{
		outbox.GET("", h.List)
		outbox.POST("/ack", h.Ack)
	}
}
