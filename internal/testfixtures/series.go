package testfixtures

import (
	"context"
	"slices"
	"sync"

	"github.com/nekogravitycat/room-reservation-engine/internal/series"
)

type SeriesRepository struct {
	mu     sync.Mutex
	series map[string]*series.Series
	order  []string
}

func NewSeriesRepository() *SeriesRepository {
	return &SeriesRepository{series: make(map[string]*series.Series)}
}

func cloneSeries(s *series.Series) *series.Series {
	cp := *s
	cp.DaysOfWeek = slices.Clone(s.DaysOfWeek)
	cp.DayOfMonth = clonePtr(s.DayOfMonth)
	cp.EndDate = clonePtr(s.EndDate)
	cp.MaxOccurrences = clonePtr(s.MaxOccurrences)
	cp.AutoCancelMinutes = clonePtr(s.AutoCancelMinutes)
	if s.Pattern != nil {
		cp.Pattern = &series.Pattern{Days: slices.Clone(s.Pattern.Days), Weeks: slices.Clone(s.Pattern.Weeks)}
	}
	return &cp
}

func (r *SeriesRepository) Create(_ context.Context, s *series.Series) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = newID()
	s.CreatedAt = Epoch
	s.UpdatedAt = Epoch
	r.series[s.ID] = cloneSeries(s)
	r.order = append(r.order, s.ID)
	return nil
}

func (r *SeriesRepository) GetByID(_ context.Context, id string) (*series.Series, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.series[id]
	if !ok {
		return nil, series.ErrNotFound
	}
	return cloneSeries(s), nil
}

func (r *SeriesRepository) List(_ context.Context, f series.Filter) ([]*series.Series, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*series.Series
	for _, id := range slices.Backward(r.order) {
		s := r.series[id]
		switch {
		case f.UserID != "" && s.UserID != f.UserID,
			f.ResourceID != "" && s.ResourceID != f.ResourceID,
			f.IsActive != nil && s.IsActive != *f.IsActive:
			continue
		}
		out = append(out, cloneSeries(s))
	}
	page, total := paginate(out, f.Page, f.PageSize)
	return page, total, nil
}

func (r *SeriesRepository) ListActive(context.Context) ([]*series.Series, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*series.Series
	for _, id := range r.order {
		if s := r.series[id]; s.IsActive {
			out = append(out, cloneSeries(s))
		}
	}
	return out, nil
}

func (r *SeriesRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.series[id]
	if !ok {
		return series.ErrNotFound
	}
	s.IsActive = active
	return nil
}
