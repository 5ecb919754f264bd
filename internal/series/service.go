package series

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	"github.com/nekogravitycat/room-reservation-engine/internal/clock"
	"github.com/nekogravitycat/room-reservation-engine/internal/conflict"
	"github.com/nekogravitycat/room-reservation-engine/internal/logging"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/apperror"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/timeutil"
	"github.com/nekogravitycat/room-reservation-engine/internal/policy"
	"github.com/nekogravitycat/room-reservation-engine/internal/resource"
	"github.com/nekogravitycat/room-reservation-engine/internal/user"
)

type CreateRequest struct {
	UserID            string
	ResourceID        string
	Kind              Kind
	Interval          int
	DaysOfWeek        []int
	DayOfMonth        *int
	Pattern           *Pattern
	StartDate         time.Time
	EndDate           *time.Time
	MaxOccurrences    *int
	StartTime         string // HH:MM
	EndTime           string // HH:MM
	Purpose           string
	Notes             string
	RequiresCheckin   bool
	AutoCancelMinutes *int
}

// SkippedDate is an occurrence that could not be booked.
type SkippedDate struct {
	Date   time.Time
	Reason string
}

// Report is the outcome of one materialization.
type Report struct {
	SeriesID  string
	Created   []*booking.Booking
	Cancelled []*booking.Booking
	Skipped   []SkippedDate
	Existing  int
}

// Availability is the preview of one occurrence.
type Availability struct {
	Date      time.Time
	Start     time.Time
	End       time.Time
	Available bool
}

type Preview struct {
	Dates     []Availability
	Total     int
	Available int
	Conflicts int
}

type Service interface {
	// Create validates and stores the series, then materializes it.
	Create(ctx context.Context, req CreateRequest) (*Series, *Report, error)
	// GetByID and List show regular users only the series they own.
	GetByID(ctx context.Context, actorID, id string) (*Series, error)
	List(ctx context.Context, actorID string, filter Filter) ([]*Series, int, error)
	// Preview walks the draft without persisting anything. A zero until
	// means the series' default horizon.
	Preview(ctx context.Context, req CreateRequest, until time.Time) (*Preview, error)
	// Materialize books every missing occurrence up to until. It is safe to
	// re-run: dates that already have an occurrence are skipped.
	Materialize(ctx context.Context, seriesID string, until time.Time) (*Report, error)
	// Delete cancels future occurrences and deactivates the series.
	Delete(ctx context.Context, actorID, id string) (*Report, error)
	SetActive(ctx context.Context, actorID, id string, active bool) (*Series, error)
	// ExtendActive materializes every active series up to now+horizon.
	ExtendActive(ctx context.Context, horizon time.Duration) ([]*Report, error)
}

type Dependencies struct {
	Repo      Repository
	Bookings  booking.Service
	Users     user.Service
	Resources resource.Service
	Policies  policy.Reader
	Clock     clock.Clock
	Logger    *zap.Logger
}

type service struct {
	repo      Repository
	bookings  booking.Service
	users     user.Service
	resources resource.Service
	policies  policy.Reader
	clock     clock.Clock
	logger    *zap.Logger
}

func NewService(deps Dependencies) Service {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	return &service{
		repo:      deps.Repo,
		bookings:  deps.Bookings,
		users:     deps.Users,
		resources: deps.Resources,
		policies:  deps.Policies,
		clock:     deps.Clock,
		logger:    logging.OrNop(deps.Logger),
	}
}

func (s *service) draft(req CreateRequest) (*Series, error) {
	startClock, err := timeutil.ParseClock(req.StartTime)
	if err != nil {
		return nil, ErrInvalidClock
	}
	endClock, err := timeutil.ParseClock(req.EndTime)
	if err != nil {
		return nil, ErrInvalidClock
	}
	if strings.TrimSpace(req.Purpose) == "" {
		return nil, ErrPurposeRequired
	}

	sr := &Series{
		UserID:            req.UserID,
		ResourceID:        req.ResourceID,
		Kind:              req.Kind,
		Interval:          req.Interval,
		DaysOfWeek:        req.DaysOfWeek,
		DayOfMonth:        req.DayOfMonth,
		Pattern:           req.Pattern,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		MaxOccurrences:    req.MaxOccurrences,
		StartTime:         startClock,
		EndTime:           endClock,
		Purpose:           strings.TrimSpace(req.Purpose),
		Notes:             req.Notes,
		RequiresCheckin:   req.RequiresCheckin,
		AutoCancelMinutes: req.AutoCancelMinutes,
		IsActive:          true,
	}
	if sr.Interval == 0 {
		sr.Interval = 1
	}
	if err := sr.Check(); err != nil {
		return nil, err
	}
	return sr, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Series, *Report, error) {
	sr, err := s.draft(req)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.users.GetActive(ctx, sr.UserID); err != nil {
		if errors.Is(err, user.ErrNotFound) || errors.Is(err, user.ErrInactive) {
			return nil, nil, ErrPermissionDenied
		}
		return nil, nil, err
	}
	if _, err := s.resources.GetBookable(ctx, sr.ResourceID); err != nil {
		return nil, nil, err
	}

	if err := s.repo.Create(ctx, sr); err != nil {
		return nil, nil, err
	}
	s.logger.Info("series created", zap.String("series_id", sr.ID), zap.String("kind", string(sr.Kind)))

	report, err := s.materialize(ctx, sr, sr.DefaultUntil(s.clock.Now()))
	if err != nil {
		// Every later run would fail the same way.
		if apperror.IsKind(err, apperror.KindValidation) {
			if derr := s.repo.SetActive(ctx, sr.ID, false); derr != nil {
				s.logger.Error("deactivate series after failed materialize", zap.String("series_id", sr.ID), zap.Error(derr))
			} else {
				sr.IsActive = false
			}
		}
		return sr, report, err
	}
	return sr, report, nil
}

func (s *service) GetByID(ctx context.Context, actorID, id string) (*Series, error) {
	return s.authorize(ctx, actorID, id)
}

func (s *service) List(ctx context.Context, actorID string, filter Filter) ([]*Series, int, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}
	return s.repo.List(ctx, filter)
}

func (s *service) location(ctx context.Context) (*time.Location, error) {
	cfg, err := s.policies.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load policy failed: %w", err)
	}
	return cfg.Location(), nil
}

func (s *service) Preview(ctx context.Context, req CreateRequest, until time.Time) (*Preview, error) {
	sr, err := s.draft(req)
	if err != nil {
		return nil, err
	}
	loc, err := s.location(ctx)
	if err != nil {
		return nil, err
	}
	if until.IsZero() {
		until = sr.DefaultUntil(s.clock.Now())
	}

	// Same walk as materialize: past dates are dropped and the cap counts
	// bookable dates, so a conflict does not use up an occurrence.
	now := s.clock.Now()
	var days []time.Time
	for d := range Walk(sr, until, loc) {
		if start, _ := sr.Occurrence(d, loc); start.After(now) {
			days = append(days, d)
		}
	}

	preview := &Preview{Dates: make([]Availability, 0, len(days))}
	if len(days) == 0 {
		return preview, nil
	}

	from, _ := sr.Occurrence(days[0], loc)
	_, to := sr.Occurrence(days[len(days)-1], loc)
	existing, err := s.bookings.ActiveForResource(ctx, sr.ResourceID, from, to)
	if err != nil {
		return nil, err
	}
	candidates := make([]conflict.Candidate, 0, len(existing))
	for _, b := range existing {
		candidates = append(candidates, conflict.Candidate{
			ID:         b.ID,
			ResourceID: b.ResourceID,
			Interval:   b.Interval(),
			Active:     b.Status.IsActive(),
		})
	}

	for _, d := range days {
		if sr.MaxOccurrences != nil && preview.Available >= *sr.MaxOccurrences {
			break
		}
		start, end := sr.Occurrence(d, loc)
		free := !conflict.HasConflict(candidates, sr.ResourceID, conflict.Interval{Start: start, End: end}, "")
		preview.Dates = append(preview.Dates, Availability{Date: d, Start: start, End: end, Available: free})
		preview.Total++
		if free {
			preview.Available++
		} else {
			preview.Conflicts++
		}
	}
	return preview, nil
}

func (s *service) Materialize(ctx context.Context, seriesID string, until time.Time) (*Report, error) {
	sr, err := s.repo.GetByID(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if !sr.IsActive {
		return nil, ErrInactive
	}
	if until.IsZero() {
		until = sr.DefaultUntil(s.clock.Now())
	}
	return s.materialize(ctx, sr, until)
}

// skippable reports whether a failed occurrence leaves the rest of the walk valid.
func skippable(err error) bool {
	return apperror.IsKind(err, apperror.KindConflict) || apperror.IsKind(err, apperror.KindPolicy)
}

func (s *service) materialize(ctx context.Context, sr *Series, until time.Time) (*Report, error) {
	report := &Report{SeriesID: sr.ID}
	loc, err := s.location(ctx)
	if err != nil {
		return report, err
	}

	existing, err := s.bookings.ListForSeries(ctx, sr.ID)
	if err != nil {
		return report, err
	}
	taken := make(map[string]bool, len(existing))
	for _, b := range existing {
		taken[timeutil.DateKey(b.StartTime, loc)] = true
	}
	count := len(existing)
	now := s.clock.Now()

	for d := range Walk(sr, until, loc) {
		if sr.MaxOccurrences != nil && count >= *sr.MaxOccurrences {
			break
		}
		if taken[timeutil.DateKey(d, loc)] {
			report.Existing++
			continue
		}
		start, end := sr.Occurrence(d, loc)
		if !start.After(now) {
			continue
		}

		b, err := s.bookings.Create(ctx, booking.CreateRequest{
			UserID:            sr.UserID,
			ResourceID:        sr.ResourceID,
			SeriesID:          &sr.ID,
			StartTime:         start,
			EndTime:           end,
			Purpose:           sr.Purpose,
			Notes:             sr.Notes,
			RequiresCheckin:   sr.RequiresCheckin,
			AutoCancelMinutes: sr.AutoCancelMinutes,
		})
		if err != nil {
			if skippable(err) {
				report.Skipped = append(report.Skipped, SkippedDate{Date: d, Reason: err.Error()})
				continue
			}
			return report, fmt.Errorf("materialize %s on %s: %w", sr.ID, timeutil.DateKey(d, loc), err)
		}
		report.Created = append(report.Created, b)
		count++
	}

	s.logger.Info("series materialized",
		zap.String("series_id", sr.ID),
		zap.Int("created", len(report.Created)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("existing", report.Existing),
	)
	return report, nil
}

func (s *service) actor(ctx context.Context, actorID string) (*user.User, error) {
	actor, err := s.users.GetActive(ctx, actorID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) || errors.Is(err, user.ErrInactive) {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}
	return actor, nil
}

// authorize loads the series and checks the caller owns it or is an admin.
func (s *service) authorize(ctx context.Context, actorID, id string) (*Series, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	sr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && sr.UserID != actor.ID {
		return nil, ErrPermissionDenied
	}
	return sr, nil
}

func (s *service) Delete(ctx context.Context, actorID, id string) (*Report, error) {
	sr, err := s.authorize(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	occurrences, err := s.bookings.ListForSeries(ctx, sr.ID)
	if err != nil {
		return nil, err
	}
	report := &Report{SeriesID: sr.ID}
	now := s.clock.Now()
	for _, b := range occurrences {
		if !b.Status.IsActive() || !b.StartTime.After(now) {
			continue
		}
		cancelled, err := s.bookings.Cancel(ctx, actorID, b.ID, "series deleted")
		if err != nil {
			s.logger.Error("cancel series occurrence", zap.String("series_id", sr.ID), zap.String("booking_id", b.ID), zap.Error(err))
			report.Skipped = append(report.Skipped, SkippedDate{Date: b.StartTime, Reason: err.Error()})
			continue
		}
		report.Cancelled = append(report.Cancelled, cancelled)
	}

	if err := s.repo.SetActive(ctx, sr.ID, false); err != nil {
		return report, err
	}
	return report, nil
}

func (s *service) SetActive(ctx context.Context, actorID, id string, active bool) (*Series, error) {
	sr, err := s.authorize(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, sr.ID, active); err != nil {
		return nil, err
	}
	sr.IsActive = active
	return sr, nil
}

func (s *service) ExtendActive(ctx context.Context, horizon time.Duration) ([]*Report, error) {
	all, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	until := s.clock.Now().Add(horizon)
	var reports []*Report
	for _, sr := range all {
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}
		report, err := s.materialize(ctx, sr, until)
		if err != nil {
			s.logger.Error("extend series", zap.String("series_id", sr.ID), zap.Error(err))
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}
