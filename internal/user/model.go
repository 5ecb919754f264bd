package user

import (
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(apperror.KindNotFound, "user not found")
	ErrEmailAlreadyUsed = apperror.New(apperror.KindConflict, "email already used")
	ErrEmailRequired    = apperror.New(apperror.KindValidation, "email is required")
	ErrInvalidRole      = apperror.New(apperror.KindValidation, "invalid role")
	ErrInactive         = apperror.New(apperror.KindUnauthorized, "user is inactive")
)

// Role is the requester's organizational role. Policy allow-lists are keyed by it.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleTeacher Role = "teacher"
	RoleUser    Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleTeacher, RoleUser:
		return true
	default:
		return false
	}
}

// IsElevated reports whether bookings made by this role are auto-approved
// and exempt from per-user quotas.
func (r Role) IsElevated() bool {
	return r == RoleAdmin
}

// User represents a requester in the system.
type User struct {
	ID          string // UUID
	Email       string
	DisplayName *string
	Role        Role
	IsActive    bool
	CreatedAt   time.Time
}

// IsAdmin is shorthand for Role.IsElevated.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role.IsElevated()
}

// UserFilter defines filter options for listing users.
type UserFilter struct {
	Email    string
	Role     Role
	IsActive *bool // Use pointer to distinguish between false and nil (not set)

	Page     int
	PageSize int
}
