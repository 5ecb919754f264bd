package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/response"
	"github.com/nekogravitycat/room-reservation-engine/internal/policy"
)

// Store persists an edited configuration.
type Store interface {
	Save(ctx context.Context, cfg policy.Configuration) error
}

type Handler struct {
	reader policy.Reader
	store  Store
}

func NewHandler(reader policy.Reader, store Store) *Handler {
	return &Handler{reader: reader, store: store}
}

// Get returns the effective configuration.
func (h *Handler) Get(c *gin.Context) {
	cfg, err := h.reader.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Update merges the body over the effective configuration and stores the
// result. Keys absent from the body keep their current value.
func (h *Handler) Update(c *gin.Context) {
	cfg, err := h.reader.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := c.ShouldBindJSON(&cfg); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	if err := h.store.Save(c.Request.Context(), cfg); err != nil {
		response.Error(c, err)
		return
	}
	if cached, ok := h.reader.(interface{ Invalidate() }); ok {
		cached.Invalidate()
	}

	c.JSON(http.StatusOK, cfg)
}
