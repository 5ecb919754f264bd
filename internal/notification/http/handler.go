package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/room-reservation-engine/internal/notification"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/response"
)

// Outbox is the queue the mail layer drains.
type Outbox interface {
	ListUndelivered(ctx context.Context, limit int) ([]notification.Intent, error)
	MarkDelivered(ctx context.Context, ids []string) (int, error)
}

type Handler struct {
	outbox Outbox
}

func NewHandler(outbox Outbox) *Handler {
	return &Handler{outbox: outbox}
}

// List returns the oldest undelivered intents.
func (h *Handler) List(c *gin.Context) {
	var req ListOutboxRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultOutboxLimit
	}

	intents, err := h.outbox.ListUndelivered(c.Request.Context(), req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]IntentResponse, 0, len(intents))
	for _, in := range intents {
		items = append(items, NewIntentResponse(in))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Ack marks intents as handed to the mail layer.
func (h *Handler) Ack(c *gin.Context) {
	var req AckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	n, err := h.outbox.MarkDelivered(c.Request.Context(), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, AckResponse{Delivered: n})
}
