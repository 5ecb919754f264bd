package resource

import (
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/apperror"
)

var (
	ErrNotFound        = apperror.New(apperror.KindNotFound, "resource not found")
	ErrEmptyName       = apperror.New(apperror.KindValidation, "name cannot be empty")
	ErrInvalidCapacity = apperror.New(apperror.KindValidation, "capacity must be positive")
	ErrInactive        = apperror.New(apperror.KindValidation, "resource is not accepting bookings")
)

// Resource represents a bookable room.
type Resource struct {
	ID        string
	Name      string
	Category  string
	Location  string
	Capacity  int
	IsActive  bool
	CreatedAt time.Time
}

// Filter defines parameters for listing resources.
type Filter struct {
	Category string
	IsActive *bool
	Page     int
	PageSize int
}
