package testfixtures

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/nekogravitycat/room-reservation-engine/internal/user"
)

type UserRepository struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*user.User)}
}

// Add stores u as-is, assigning an ID when it has none.
func (r *UserRepository) Add(u *user.User) *user.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = newID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = Epoch
	}
	cp := *u
	r.users[u.ID] = &cp
	return u
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.ErrEmailAlreadyUsed
		}
	}
	u.ID = newID()
	u.CreatedAt = Epoch
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) List(_ context.Context, filter user.UserFilter) ([]*user.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*user.User
	for _, u := range r.users {
		if filter.Email != "" && !containsFold(u.Email, filter.Email) {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *user.User) int { return cmp.Compare(a.Email, b.Email) })
	page, total := paginate(out, filter.Page, filter.PageSize)
	return page, total, nil
}
