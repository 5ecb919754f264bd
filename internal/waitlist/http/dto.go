package http

import (
	"time"

	bookingHttp "github.com/nekogravitycat/room-reservation-engine/internal/booking/http"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/request"
	"github.com/nekogravitycat/room-reservation-engine/internal/waitlist"
)

type SubmitRequest struct {
	ResourceID string    `json:"resource_id" binding:"required,uuid"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
	Purpose    string    `json:"purpose" binding:"required"`
	AutoBook   bool      `json:"auto_book"`
}

// Validate performs custom validation for SubmitRequest.
func (r *SubmitRequest) Validate() error {
	if !r.StartTime.Before(r.EndTime) {
		return waitlist.ErrInvalidTimeRange
	}
	return nil
}

type ListEntriesRequest struct {
	request.ListParams
	ResourceID string `form:"resource_id" binding:"omitempty,uuid"`
	UserID     string `form:"user_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=waiting notified booked cancelled"`
}

type EntryResponse struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	ResourceID string     `json:"resource_id"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    time.Time  `json:"end_time"`
	Purpose    string     `json:"purpose"`
	AutoBook   bool       `json:"auto_book"`
	Status     string     `json:"status"`
	BookingID  *string    `json:"booking_id,omitempty"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func NewEntryResponse(e *waitlist.Entry) EntryResponse {
	return EntryResponse{
		ID:         e.ID,
		UserID:     e.UserID,
		ResourceID: e.ResourceID,
		StartTime:  e.StartTime,
		EndTime:    e.EndTime,
		Purpose:    e.Purpose,
		AutoBook:   e.AutoBook,
		Status:     string(e.Status),
		BookingID:  e.BookingID,
		NotifiedAt: e.NotifiedAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// SubmitResponse carries the booking when the interval was free, the
// waiting entry otherwise.
type SubmitResponse struct {
	Booking *bookingHttp.BookingResponse `json:"booking,omitempty"`
	Entry   *EntryResponse               `json:"entry,omitempty"`
}
