package http

import (
	"time"

	bookingHttp "github.com/nekogravitycat/room-reservation-engine/internal/booking/http"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/apperror"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/request"
	"github.com/nekogravitycat/room-reservation-engine/internal/series"
)

var errInvalidDate = apperror.New(apperror.KindValidation, "dates must be formatted as YYYY-MM-DD")

type PatternRequest struct {
	Days  []int `json:"days" binding:"required,min=1,dive,min=0,max=6"`
	Weeks []int `json:"weeks" binding:"required,min=1,dive,min=1,max=5"`
}

// CreateSeriesRequest is the body for creating and previewing a series.
type CreateSeriesRequest struct {
	ResourceID        string          `json:"resource_id" binding:"required,uuid"`
	Kind              string          `json:"kind" binding:"required,oneof=daily weekly monthly custom"`
	Interval          int             `json:"interval" binding:"omitempty,min=1,max=12"`
	DaysOfWeek        []int           `json:"days_of_week" binding:"omitempty,dive,min=0,max=6"`
	DayOfMonth        *int            `json:"day_of_month" binding:"omitempty,min=1,max=31"`
	Pattern           *PatternRequest `json:"pattern"`
	StartDate         string          `json:"start_date" binding:"required"`
	EndDate           *string         `json:"end_date"`
	MaxOccurrences    *int            `json:"max_occurrences" binding:"omitempty,min=1"`
	StartTime         string          `json:"start_time" binding:"required"`
	EndTime           string          `json:"end_time" binding:"required"`
	Purpose           string          `json:"purpose" binding:"required"`
	Notes             string          `json:"notes"`
	RequiresCheckin   bool            `json:"requires_checkin"`
	AutoCancelMinutes *int            `json:"auto_cancel_minutes" binding:"omitempty,min=5,max=60"`
	// Until bounds a preview; it is ignored on create.
	Until *string `json:"until"`
}

// toService converts the body to a service request. Dates are calendar dates
// carried as UTC midnight.
func (r *CreateSeriesRequest) toService(userID string) (series.CreateRequest, error) {
	start, err := time.Parse(time.DateOnly, r.StartDate)
	if err != nil {
		return series.CreateRequest{}, errInvalidDate
	}
	var end *time.Time
	if r.EndDate != nil {
		t, err := time.Parse(time.DateOnly, *r.EndDate)
		if err != nil {
			return series.CreateRequest{}, errInvalidDate
		}
		end = &t
	}

	req := series.CreateRequest{
		UserID:            userID,
		ResourceID:        r.ResourceID,
		Kind:              series.Kind(r.Kind),
		Interval:          r.Interval,
		DaysOfWeek:        r.DaysOfWeek,
		DayOfMonth:        r.DayOfMonth,
		StartDate:         start,
		EndDate:           end,
		MaxOccurrences:    r.MaxOccurrences,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		Purpose:           r.Purpose,
		Notes:             r.Notes,
		RequiresCheckin:   r.RequiresCheckin,
		AutoCancelMinutes: r.AutoCancelMinutes,
	}
	if r.Pattern != nil {
		req.Pattern = &series.Pattern{Days: r.Pattern.Days, Weeks: r.Pattern.Weeks}
	}
	return req, nil
}

func parseUntil(s *string) (time.Time, error) {
	if s == nil || *s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	// Noon UTC lands on the same calendar day in every policy time zone.
	return t.Add(12 * time.Hour), nil
}

type ListSeriesRequest struct {
	request.ListParams
	ResourceID string `form:"resource_id" binding:"omitempty,uuid"`
	UserID     string `form:"user_id" binding:"omitempty,uuid"`
	IsActive   *bool  `form:"is_active"`
}

type MaterializeRequest struct {
	Until *string `json:"until"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type SeriesResponse struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	ResourceID        string          `json:"resource_id"`
	Kind              string          `json:"kind"`
	Interval          int             `json:"interval"`
	DaysOfWeek        []int           `json:"days_of_week,omitempty"`
	DayOfMonth        *int            `json:"day_of_month,omitempty"`
	Pattern           *series.Pattern `json:"pattern,omitempty"`
	StartDate         string          `json:"start_date"`
	EndDate           *string         `json:"end_date,omitempty"`
	MaxOccurrences    *int            `json:"max_occurrences,omitempty"`
	StartTime         string          `json:"start_time"`
	EndTime           string          `json:"end_time"`
	Purpose           string          `json:"purpose"`
	Notes             string          `json:"notes,omitempty"`
	RequiresCheckin   bool            `json:"requires_checkin"`
	AutoCancelMinutes *int            `json:"auto_cancel_minutes,omitempty"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func NewSeriesResponse(s *series.Series) SeriesResponse {
	resp := SeriesResponse{
		ID:                s.ID,
		UserID:            s.UserID,
		ResourceID:        s.ResourceID,
		Kind:              string(s.Kind),
		Interval:          s.Interval,
		DaysOfWeek:        s.DaysOfWeek,
		DayOfMonth:        s.DayOfMonth,
		Pattern:           s.Pattern,
		StartDate:         s.StartDate.Format(time.DateOnly),
		MaxOccurrences:    s.MaxOccurrences,
		StartTime:         s.StartTime.String(),
		EndTime:           s.EndTime.String(),
		Purpose:           s.Purpose,
		Notes:             s.Notes,
		RequiresCheckin:   s.RequiresCheckin,
		AutoCancelMinutes: s.AutoCancelMinutes,
		IsActive:          s.IsActive,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
	if s.EndDate != nil {
		end := s.EndDate.Format(time.DateOnly)
		resp.EndDate = &end
	}
	return resp
}

type SkippedResponse struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

type ReportResponse struct {
	SeriesID  string                        `json:"series_id"`
	Created   []bookingHttp.BookingResponse `json:"created"`
	Cancelled []bookingHttp.BookingResponse `json:"cancelled,omitempty"`
	Skipped   []SkippedResponse             `json:"skipped"`
	Existing  int                           `json:"existing"`
}

func NewReportResponse(r *series.Report) ReportResponse {
	resp := ReportResponse{
		SeriesID: r.SeriesID,
		Created:  make([]bookingHttp.BookingResponse, len(r.Created)),
		Skipped:  make([]SkippedResponse, len(r.Skipped)),
		Existing: r.Existing,
	}
	for i, b := range r.Created {
		resp.Created[i] = bookingHttp.NewBookingResponse(b)
	}
	for _, b := range r.Cancelled {
		resp.Cancelled = append(resp.Cancelled, bookingHttp.NewBookingResponse(b))
	}
	for i, sk := range r.Skipped {
		resp.Skipped[i] = SkippedResponse{Date: sk.Date.Format(time.DateOnly), Reason: sk.Reason}
	}
	return resp
}

type CreateSeriesResponse struct {
	Series SeriesResponse `json:"series"`
	Report ReportResponse `json:"report"`
}

type OccurrenceResponse struct {
	Date      string    `json:"date"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Available bool      `json:"available"`
}

type PreviewResponse struct {
	Dates     []OccurrenceResponse `json:"dates"`
	Total     int                  `json:"total"`
	Available int                  `json:"available"`
	Conflicts int                  `json:"conflicts"`
}

func NewPreviewResponse(p *series.Preview) PreviewResponse {
	resp := PreviewResponse{
		Dates:     make([]OccurrenceResponse, len(p.Dates)),
		Total:     p.Total,
		Available: p.Available,
		Conflicts: p.Conflicts,
	}
	for i, d := range p.Dates {
		resp.Dates[i] = OccurrenceResponse{
			Date:      d.Date.Format(time.DateOnly),
			StartTime: d.Start,
			EndTime:   d.End,
			Available: d.Available,
		}
	}
	return resp
}
