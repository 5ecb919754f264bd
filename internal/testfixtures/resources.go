package testfixtures

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/nekogravitycat/room-reservation-engine/internal/resource"
)

type ResourceRepository struct {
	mu    sync.Mutex
	rooms map[string]*resource.Resource
}

func NewResourceRepository() *ResourceRepository {
	return &ResourceRepository{rooms: make(map[string]*resource.Resource)}
}

func (r *ResourceRepository) Add(res *resource.Resource) *resource.Resource {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.ID == "" {
		res.ID = newID()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = Epoch
	}
	cp := *res
	r.rooms[res.ID] = &cp
	return res
}

func (r *ResourceRepository) Create(_ context.Context, res *resource.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res.ID = newID()
	res.CreatedAt = Epoch
	cp := *res
	r.rooms[res.ID] = &cp
	return nil
}

func (r *ResourceRepository) GetByID(_ context.Context, id string) (*resource.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.rooms[id]
	if !ok {
		return nil, resource.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *ResourceRepository) List(_ context.Context, filter resource.Filter) ([]*resource.Resource, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*resource.Resource
	for _, res := range r.rooms {
		if filter.Category != "" && res.Category != filter.Category {
			continue
		}
		if filter.IsActive != nil && res.IsActive != *filter.IsActive {
			continue
		}
		cp := *res
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *resource.Resource) int { return cmp.Compare(a.Name, b.Name) })
	page, total := paginate(out, filter.Page, filter.PageSize)
	return page, total, nil
}

func (r *ResourceRepository) Update(_ context.Context, res *resource.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[res.ID]; !ok {
		return resource.ErrNotFound
	}
	cp := *res
	r.rooms[res.ID] = &cp
	return nil
}
