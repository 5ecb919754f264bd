package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/room-reservation-engine/internal/auth"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/request"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/response"
	"github.com/nekogravitycat/room-reservation-engine/internal/series"
)

type Handler struct {
	service series.Service
}

func NewHandler(service series.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListSeriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	all, total, err := h.service.List(c.Request.Context(), auth.GetUserID(c), series.Filter{
		UserID:     req.UserID,
		ResourceID: req.ResourceID,
		IsActive:   req.IsActive,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]SeriesResponse, len(all))
	for i, s := range all {
		items[i] = NewSeriesResponse(s)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), auth.GetUserID(c), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSeriesResponse(s))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateSeriesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	req, err := body.toService(auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	s, report, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateSeriesResponse{
		Series: NewSeriesResponse(s),
		Report: NewReportResponse(report),
	})
}

func (h *Handler) Preview(c *gin.Context) {
	var body CreateSeriesRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}
	req, err := body.toService(auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	until, err := parseUntil(body.Until)
	if err != nil {
		response.Error(c, err)
		return
	}

	preview, err := h.service.Preview(c.Request.Context(), req, until)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewPreviewResponse(preview))
}

func (h *Handler) Materialize(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body MaterializeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "invalid request body", err)
			return
		}
	}
	until, err := parseUntil(body.Until)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.service.Materialize(c.Request.Context(), uri.ID, until)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReportResponse(report))
}

func (h *Handler) SetActive(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	var body SetActiveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	s, err := h.service.SetActive(c.Request.Context(), auth.GetUserID(c), uri.ID, *body.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSeriesResponse(s))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	report, err := h.service.Delete(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReportResponse(report))
}
