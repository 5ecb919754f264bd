package testfixtures

import (
	"context"
	"sync"
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/booking"
	"github.com/nekogravitycat/room-reservation-engine/internal/clock"
	"github.com/nekogravitycat/room-reservation-engine/internal/equipment"
	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/timeutil"
	"github.com/nekogravitycat/room-reservation-engine/internal/policy"
	"github.com/nekogravitycat/room-reservation-engine/internal/resource"
	"github.com/nekogravitycat/room-reservation-engine/internal/series"
	"github.com/nekogravitycat/room-reservation-engine/internal/user"
	"github.com/nekogravitycat/room-reservation-engine/internal/waitlist"
)

// Policy is a policy.Reader whose configuration tests can change.
type Policy struct {
	mu  sync.Mutex
	cfg policy.Configuration
}

func NewPolicy(cfg policy.Configuration) *Policy {
	return &Policy{cfg: cfg}
}

func (p *Policy) Current(context.Context) (policy.Configuration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg, nil
}

// Update applies fn to the current configuration.
func (p *Policy) Update(fn func(*policy.Configuration)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.cfg)
}

// Save replaces the configuration after checking it, like the pgx store.
func (p *Policy) Save(_ context.Context, cfg policy.Configuration) error {
	if err := cfg.Check(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
	return nil
}

// Engine wires every service over in-memory repositories and a fake clock
// set to Epoch.
type Engine struct {
	Clock  *clock.Fake
	Policy *Policy

	UserRepo      *UserRepository
	ResourceRepo  *ResourceRepository
	BookingRepo   *BookingRepository
	EquipmentRepo *EquipmentRepository
	SeriesRepo    *SeriesRepository
	WaitlistRepo  *WaitlistRepository

	Audit         *AuditRecorder
	Notifications *NotificationRecorder

	Users     user.Service
	Resources resource.Service
	Equipment equipment.Service
	Bookings  booking.Service
	Series    series.Service
	Waitlist  waitlist.Service
}

func NewEngine() *Engine {
	e := &Engine{
		Clock:         clock.NewFake(Epoch),
		Policy:        NewPolicy(policy.Defaults()),
		UserRepo:      NewUserRepository(),
		ResourceRepo:  NewResourceRepository(),
		BookingRepo:   NewBookingRepository(),
		EquipmentRepo: NewEquipmentRepository(),
		SeriesRepo:    NewSeriesRepository(),
		WaitlistRepo:  NewWaitlistRepository(),
		Audit:         &AuditRecorder{},
		Notifications: &NotificationRecorder{},
	}
	e.Users = user.NewService(e.UserRepo)
	e.Resources = resource.NewService(e.ResourceRepo)
	e.Equipment = equipment.NewService(e.EquipmentRepo, e.Clock, nil)
	e.Bookings = booking.NewService(booking.Dependencies{
		Repo:          e.BookingRepo,
		Users:         e.Users,
		Resources:     e.Resources,
		Equipment:     e.Equipment,
		Policies:      e.Policy,
		Audit:         e.Audit,
		Notifications: e.Notifications,
		Clock:         e.Clock,
	})
	e.Series = series.NewService(series.Dependencies{
		Repo:      e.SeriesRepo,
		Bookings:  e.Bookings,
		Users:     e.Users,
		Resources: e.Resources,
		Policies:  e.Policy,
		Clock:     e.Clock,
	})
	e.Waitlist = waitlist.NewService(waitlist.Dependencies{
		Repo:          e.WaitlistRepo,
		Bookings:      e.Bookings,
		Users:         e.Users,
		Resources:     e.Resources,
		Policies:      e.Policy,
		Notifications: e.Notifications,
		Clock:         e.Clock,
	})
	return e
}

// AddUser stores an active user with the given role.
func (e *Engine) AddUser(role user.Role) *user.User {
	return e.UserRepo.Add(&user.User{Email: newID() + "@example.com", Role: role, IsActive: true})
}

// AddRoom stores an active room in category.
func (e *Engine) AddRoom(name, category string) *resource.Resource {
	return e.ResourceRepo.Add(&resource.Resource{Name: name, Category: category, Capacity: 10, IsActive: true})
}

// At returns the clock time hhmm on the day days after Epoch, in UTC.
func At(days int, hhmm string) time.Time {
	return timeutil.MustParseClock(hhmm).On(Epoch.AddDate(0, 0, days), time.UTC)
}
