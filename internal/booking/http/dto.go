package http

import (
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	"github.com/nekogravitycat/room-reservation-engine/internal/equipment"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	ResourceID string     `form:"resource_id" binding:"omitempty,uuid"`
	UserID     string     `form:"user_id" binding:"omitempty,uuid"`
	SeriesID   string     `form:"series_id" binding:"omitempty,uuid"`
	Status     string     `form:"status" binding:"omitempty,oneof=pending approved rejected cancelled"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy     string     `form:"sort_by" binding:"omitempty,oneof=start_time end_time created_at status"`
	SortOrder  string     `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// Validate performs custom validation for ListBookingsRequest.
func (r *ListBookingsRequest) Validate() error {
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

type BookingResponse struct {
	ID                 string     `json:"id"`
	ResourceID         string     `json:"resource_id"`
	UserID             string     `json:"user_id"`
	SeriesID           *string    `json:"series_id,omitempty"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            time.Time  `json:"end_time"`
	Purpose            string     `json:"purpose"`
	Notes              string     `json:"notes,omitempty"`
	Status             string     `json:"status"`
	RequiresCheckin    bool       `json:"requires_checkin"`
	AutoCancelMinutes  *int       `json:"auto_cancel_minutes,omitempty"`
	CheckedInAt        *time.Time `json:"checked_in_at,omitempty"`
	AutoCancelledAt    *time.Time `json:"auto_cancelled_at,omitempty"`
	ApprovalReason     *string    `json:"approval_reason,omitempty"`
	RejectionReason    *string    `json:"rejection_reason,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	Version            int        `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		ResourceID:         b.ResourceID,
		UserID:             b.UserID,
		SeriesID:           b.SeriesID,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		Purpose:            b.Purpose,
		Notes:              b.Notes,
		Status:             string(b.Status),
		RequiresCheckin:    b.RequiresCheckin,
		AutoCancelMinutes:  b.AutoCancelMinutes,
		CheckedInAt:        b.CheckedInAt,
		AutoCancelledAt:    b.AutoCancelledAt,
		ApprovalReason:     b.ApprovalReason,
		RejectionReason:    b.RejectionReason,
		CancellationReason: b.CancellationReason,
		Version:            b.Version,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

type EquipmentLineRequest struct {
	EquipmentID string `json:"equipment_id" binding:"required,uuid"`
	Quantity    int    `json:"quantity" binding:"required,min=1"`
}

type CreateBookingRequest struct {
	ResourceID        string                 `json:"resource_id" binding:"required,uuid"`
	StartTime         time.Time              `json:"start_time" binding:"required"`
	EndTime           time.Time              `json:"end_time" binding:"required"`
	Purpose           string                 `json:"purpose" binding:"required"`
	Notes             string                 `json:"notes"`
	RequiresCheckin   bool                   `json:"requires_checkin"`
	AutoCancelMinutes *int                   `json:"auto_cancel_minutes" binding:"omitempty,min=5,max=60"`
	Equipment         []EquipmentLineRequest `json:"equipment" binding:"omitempty,dive"`
}

// Validate performs custom validation for CreateBookingRequest.
func (r *CreateBookingRequest) Validate() error {
	if !r.EndTime.After(r.StartTime) {
		return booking.ErrInvalidTimeRange
	}
	return nil
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type RescheduleRequest struct {
	ResourceID *string   `json:"resource_id" binding:"omitempty,uuid"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
}

type BulkRequest struct {
	IDs    []string `json:"ids" binding:"required,min=1,max=100,dive,uuid"`
	Reason string   `json:"reason"`
}

type BulkItemResponse struct {
	ID      string           `json:"id"`
	Booking *BookingResponse `json:"booking,omitempty"`
	Error   string           `json:"error,omitempty"`
	Kind    string           `json:"kind,omitempty"`
}

type AvailabilityRequest struct {
	ResourceID string    `form:"resource_id" binding:"required,uuid"`
	StartTime  time.Time `form:"start_time" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	EndTime    time.Time `form:"end_time" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	ExcludeID  string    `form:"exclude_id" binding:"omitempty,uuid"`
}

type AvailabilityResponse struct {
	ResourceID string    `json:"resource_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Available  bool      `json:"available"`
}

type LineURI struct {
	ID     string `uri:"id" binding:"required,uuid"`
	LineID string `uri:"line_id" binding:"required,uuid"`
}

type ChangeQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type LineResponse struct {
	ID          string     `json:"id"`
	BookingID   string     `json:"booking_id"`
	EquipmentID string     `json:"equipment_id"`
	Quantity    int        `json:"quantity"`
	Status      string     `json:"status"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func NewLineResponse(l *equipment.Line) LineResponse {
	return LineResponse{
		ID:          l.ID,
		BookingID:   l.BookingID,
		EquipmentID: l.ItemID,
		Quantity:    l.Quantity,
		Status:      string(l.Status),
		ReleasedAt:  l.ReleasedAt,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}
