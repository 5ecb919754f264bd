package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/room-reservation-engine/internal/auth"
	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/apperror"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/request"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/response"
)

type Handler struct {
	service booking.Service
}

func NewHandler(service booking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	req.Normalize()

	// Non-admin callers are narrowed to their own bookings by the service.
	bookings, total, err := h.service.List(c.Request.Context(), auth.GetUserID(c), booking.Filter{
		UserID:     req.UserID,
		ResourceID: req.ResourceID,
		SeriesID:   req.SeriesID,
		Status:     booking.Status(req.Status),
		From:       req.From,
		To:         req.To,
		Page:       req.Page,
		PageSize:   req.PageSize,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	req := booking.CreateRequest{
		UserID:            auth.GetUserID(c),
		ResourceID:        body.ResourceID,
		StartTime:         body.StartTime,
		EndTime:           body.EndTime,
		Purpose:           body.Purpose,
		Notes:             body.Notes,
		RequiresCheckin:   body.RequiresCheckin,
		AutoCancelMinutes: body.AutoCancelMinutes,
	}
	for _, eq := range body.Equipment {
		req.Equipment = append(req.Equipment, booking.EquipmentRequest{ItemID: eq.EquipmentID, Quantity: eq.Quantity})
	}

	b, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

type transitionFunc func(c *gin.Context, actorID, id, reason string) (*booking.Booking, error)

// transition binds the id and optional reason shared by the status endpoints.
func (h *Handler) transition(c *gin.Context, fn transitionFunc) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body ReasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "invalid request body", err)
			return
		}
	}

	b, err := fn(c, auth.GetUserID(c), uri.ID, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, func(c *gin.Context, actorID, id, reason string) (*booking.Booking, error) {
		return h.service.Approve(c.Request.Context(), actorID, id, reason)
	})
}

func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, func(c *gin.Context, actorID, id, reason string) (*booking.Booking, error) {
		return h.service.Reject(c.Request.Context(), actorID, id, reason)
	})
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, func(c *gin.Context, actorID, id, reason string) (*booking.Booking, error) {
		return h.service.Cancel(c.Request.Context(), actorID, id, reason)
	})
}

func (h *Handler) CheckIn(c *gin.Context) {
	h.transition(c, func(c *gin.Context, actorID, id, _ string) (*booking.Booking, error) {
		return h.service.CheckIn(c.Request.Context(), actorID, id)
	})
}

func (h *Handler) Reschedule(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body RescheduleRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	b, err := h.service.Reschedule(c.Request.Context(), auth.GetUserID(c), uri.ID, booking.RescheduleRequest{
		ResourceID: body.ResourceID,
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

type bulkFunc func(c *gin.Context, actorID string, ids []string, reason string) []booking.BulkResult

func (h *Handler) bulk(c *gin.Context, fn bulkFunc) {
	var body BulkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	results := fn(c, auth.GetUserID(c), body.IDs, body.Reason)
	items := make([]BulkItemResponse, len(results))
	for i, r := range results {
		items[i] = BulkItemResponse{ID: r.ID}
		if r.Err != nil {
			items[i].Error = r.Err.Error()
			items[i].Kind = string(apperror.KindOf(r.Err))
			continue
		}
		resp := NewBookingResponse(r.Booking)
		items[i].Booking = &resp
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) BulkApprove(c *gin.Context) {
	h.bulk(c, func(c *gin.Context, actorID string, ids []string, reason string) []booking.BulkResult {
		return h.service.BulkApprove(c.Request.Context(), actorID, ids, reason)
	})
}

func (h *Handler) BulkReject(c *gin.Context) {
	h.bulk(c, func(c *gin.Context, actorID string, ids []string, reason string) []booking.BulkResult {
		return h.service.BulkReject(c.Request.Context(), actorID, ids, reason)
	})
}

func (h *Handler) BulkCancel(c *gin.Context) {
	h.bulk(c, func(c *gin.Context, actorID string, ids []string, reason string) []booking.BulkResult {
		return h.service.BulkCancel(c.Request.Context(), actorID, ids, reason)
	})
}

func (h *Handler) Purge(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Purge(c.Request.Context(), auth.GetUserID(c), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) Availability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if !req.EndTime.After(req.StartTime) {
		response.Error(c, booking.ErrInvalidTimeRange)
		return
	}

	ok, err := h.service.IsAvailable(c.Request.Context(), req.ResourceID, req.StartTime, req.EndTime, req.ExcludeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, AvailabilityResponse{
		ResourceID: req.ResourceID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Available:  ok,
	})
}

func (h *Handler) ListEquipment(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	lines, err := h.service.ListEquipment(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]LineResponse, len(lines))
	for i, l := range lines {
		items[i] = NewLineResponse(l)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) AttachEquipment(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body EquipmentLineRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	line, err := h.service.AttachEquipment(c.Request.Context(), auth.GetUserID(c), uri.ID, booking.EquipmentRequest{
		ItemID:   body.EquipmentID,
		Quantity: body.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewLineResponse(line))
}

func (h *Handler) ChangeEquipmentQuantity(c *gin.Context) {
	var uri LineURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body ChangeQuantityRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	line, err := h.service.ChangeEquipmentQuantity(c.Request.Context(), auth.GetUserID(c), uri.ID, uri.LineID, body.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewLineResponse(line))
}

func (h *Handler) DetachEquipment(c *gin.Context) {
	var uri LineURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.DetachEquipment(c.Request.Context(), auth.GetUserID(c), uri.ID, uri.LineID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) ApproveEquipment(c *gin.Context) {
	var uri LineURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	line, err := h.service.ApproveEquipment(c.Request.Context(), auth.GetUserID(c), uri.ID, uri.LineID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewLineResponse(line))
}

func (h *Handler) RejectEquipment(c *gin.Context) {
	var uri LineURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	line, err := h.service.RejectEquipment(c.Request.Context(), auth.GetUserID(c), uri.ID, uri.LineID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewLineResponse(line))
}
