package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/room-reservation-engine/internal/auth"
	bookingHttp "github.com/nekogravitycat/room-reservation-engine/internal/booking/http"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/request"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/response"
	"github.com/nekogravitycat/room-reservation-engine/internal/waitlist"
)

type Handler struct {
	service waitlist.Service
}

func NewHandler(service waitlist.Service) *Handler {
	return &Handler{service: service}
}

// Submit books immediately when the interval is free (201) and queues the
// request otherwise (202).
func (h *Handler) Submit(c *gin.Context) {
	var body SubmitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.Submit(c.Request.Context(), waitlist.SubmitRequest{
		UserID:     auth.GetUserID(c),
		ResourceID: body.ResourceID,
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
		Purpose:    body.Purpose,
		AutoBook:   body.AutoBook,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if res.Booking != nil {
		b := bookingHttp.NewBookingResponse(res.Booking)
		c.JSON(http.StatusCreated, SubmitResponse{Booking: &b})
		return
	}
	e := NewEntryResponse(res.Entry)
	c.JSON(http.StatusAccepted, SubmitResponse{Entry: &e})
}

func (h *Handler) List(c *gin.Context) {
	var req ListEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	entries, total, err := h.service.List(c.Request.Context(), auth.GetUserID(c), waitlist.Filter{
		UserID:     req.UserID,
		ResourceID: req.ResourceID,
		Status:     waitlist.Status(req.Status),
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]EntryResponse, len(entries))
	for i, e := range entries {
		items[i] = NewEntryResponse(e)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), auth.GetUserID(c), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewEntryResponse(e))
}

func (h *Handler) Withdraw(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	e, err := h.service.Withdraw(c.Request.Context(), auth.GetUserID(c), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewEntryResponse(e))
}

func (h *Handler) Claim(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	b, err := h.service.Claim(c.Request.Context(), auth.GetUserID(c), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookingHttp.NewBookingResponse(b))
}
