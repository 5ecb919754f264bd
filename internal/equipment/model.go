package equipment

import (
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/apperror"
)

var (
	ErrItemNotFound      = apperror.New(apperror.KindNotFound, "equipment item not found")
	ErrLineNotFound      = apperror.New(apperror.KindNotFound, "equipment reservation not found")
	ErrInvalidQuantity   = apperror.New(apperror.KindValidation, "quantity must be positive")
	ErrEmptyName         = apperror.New(apperror.KindValidation, "name cannot be empty")
	ErrInsufficientStock = apperror.New(apperror.KindConflict, "not enough equipment available")
	ErrAlreadyAttached   = apperror.New(apperror.KindConflict, "equipment already attached to booking")
	ErrLineNotPending    = apperror.New(apperror.KindTransition, "equipment reservation is not pending")
	ErrLineRejected      = apperror.New(apperror.KindTransition, "equipment reservation was rejected")
)

// Item is a quantity-counted piece of equipment.
// Invariant: 0 <= AvailableQuantity <= Quantity.
type Item struct {
	ID                string
	Name              string
	Quantity          int
	AvailableQuantity int
	CreatedAt         time.Time
}

// Reserve debits qty when enough stock is available.
func (i *Item) Reserve(qty int) bool {
	if qty <= 0 || qty > i.AvailableQuantity {
		return false
	}
	i.AvailableQuantity -= qty
	return true
}

// Release credits qty, clamped at Quantity.
func (i *Item) Release(qty int) {
	if qty <= 0 {
		return
	}
	i.AvailableQuantity = min(i.Quantity, i.AvailableQuantity+qty)
}

type LineStatus string

const (
	LineStatusPending  LineStatus = "pending"
	LineStatusApproved LineStatus = "approved"
	LineStatusRejected LineStatus = "rejected"
)

// CanTransitionTo reports whether a line may move from s to next.
func (s LineStatus) CanTransitionTo(next LineStatus) bool {
	switch s {
	case LineStatusPending:
		return next == LineStatusApproved || next == LineStatusRejected
	case LineStatusApproved, LineStatusRejected:
		return false
	default:
		return false
	}
}

// Line is a booking's request for a quantity of one item. Only approved,
// unreleased lines hold stock.
type Line struct {
	ID         string
	BookingID  string
	ItemID     string
	Quantity   int
	Status     LineStatus
	ReleasedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HoldsStock reports whether the line currently debits its item.
func (l *Line) HoldsStock() bool {
	return l.Status == LineStatusApproved && l.ReleasedAt == nil
}
