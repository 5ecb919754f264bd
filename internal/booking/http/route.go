package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.GET("/availability", h.Availability)
		group.POST("/bulk/cancel", h.BulkCancel)
		group.GET("/:id", h.Get)
		group.POST("/:id/cancel", h.Cancel)
		group.POST("/:id/reschedule", h.Reschedule)
		group.POST("/:id/check-in", h.CheckIn)

		group.GET("/:id/equipment", h.ListEquipment)
		group.POST("/:id/equipment", h.AttachEquipment)
		group.PATCH("/:id/equipment/:line_id", h.ChangeEquipmentQuantity)
		group.DELETE("/:id/equipment/:line_id", h.DetachEquipment)
	}

	// === Admin Routes ===
	admin := group.Group("")
	admin.Use(adminMiddleware)
	{
		admin.POST("/bulk/approve", h.BulkApprove)
		admin.POST("/bulk/reject", h.BulkReject)
		admin.POST("/:id/approve", h.Approve)
		admin.POST("/:id/reject", h.Reject)
		admin.DELETE("/:id", h.Purge)
		admin.POST("/:id/equipment/:line_id/approve", h.ApproveEquipment)
		admin.POST("/:id/equipment/:line_id/reject", h.RejectEquipment)
	}
}
