package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/room-reservation-engine/internal/audit"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/response"
)

// History reads the recorded trail of one entity, newest first.
type History interface {
	ListForEntity(ctx context.Context, entityType, entityID string) ([]audit.Entry, error)
}

type HistoryRequest struct {
	EntityType string `uri:"entity_type" binding:"required,oneof=booking"`
	EntityID   string `uri:"entity_id" binding:"required,uuid"`
}

type EntryResponse struct {
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	ActorID    string          `json:"actor_id,omitempty"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	Message    string          `json:"message,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func NewEntryResponse(e audit.Entry) EntryResponse {
	return EntryResponse{
		Action:     string(e.Action),
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Before:     e.Before,
		After:      e.After,
		Message:    e.Message,
		CreatedAt:  e.CreatedAt,
	}
}

type Handler struct {
	history History
}

func NewHandler(history History) *Handler {
	return &Handler{history: history}
}

func (h *Handler) List(c *gin.Context) {
	var req HistoryRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid entity", err)
		return
	}

	entries, err := h.history.ListForEntity(c.Request.Context(), req.EntityType, req.EntityID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, NewEntryResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// RegisterRoutes registers the admin audit trail route.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	g.GET("/audit/:entity_type/:entity_id", authMiddleware, adminMiddleware, h.List)
}
