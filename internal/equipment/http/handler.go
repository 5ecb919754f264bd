package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/room-reservation-engine/internal/equipment"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/request"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/response"
)

type Handler struct {
	service equipment.Service
}

func NewHandler(service equipment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.service.ListItems(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]ItemResponse, len(items))
	for i, item := range items {
		out[i] = NewItemResponse(item)
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewItemResponse(item))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateItemRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(), body.Name, body.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewItemResponse(item))
}

// Reserve debits stock by hand. A shortfall is reported in the body, not as an error.
func (h *Handler) Reserve(c *gin.Context) {
	id, qty, ok := h.bindStock(c)
	if !ok {
		return
	}

	reserved, err := h.service.Reserve(c.Request.Context(), id, qty)
	if err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, ReserveResponse{Reserved: reserved, Item: NewItemResponse(item)})
}

func (h *Handler) Release(c *gin.Context) {
	id, qty, ok := h.bindStock(c)
	if !ok {
		return
	}

	if err := h.service.Release(c.Request.Context(), id, qty); err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewItemResponse(item))
}

func (h *Handler) bindStock(c *gin.Context) (string, int, bool) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return "", 0, false
	}
	var body StockRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return "", 0, false
	}
	return uri.ID, body.Quantity, true
}
