package equipment

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/nekogravitycat/room-reservation-engine/internal/clock"
	"github.com/nekogravitycat/room-reservation-engine/internal/logging"
)

type Service interface {
	CreateItem(ctx context.Context, name string, quantity int) (*Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context) ([]*Item, error)

	// Reserve debits qty when available. It returns false, leaving stock
	// untouched, when qty exceeds the available quantity.
	Reserve(ctx context.Context, itemID string, qty int) (bool, error)
	// Release credits qty, never exceeding the item's total quantity.
	Release(ctx context.Context, itemID string, qty int) error
	// CheckAvailable fails with ErrInsufficientStock when qty could not be reserved now.
	CheckAvailable(ctx context.Context, itemID string, qty int) error

	// Attach adds a line to a booking. With approve set the line is approved
	// immediately and debits stock.
	Attach(ctx context.Context, bookingID, itemID string, qty int, approve bool) (*Line, error)
	ListLines(ctx context.Context, bookingID string) ([]*Line, error)
	GetLine(ctx context.Context, id string) (*Line, error)
	// ChangeQuantity re-checks or releases only the delta on an approved line.
	ChangeQuantity(ctx context.Context, lineID string, qty int) (*Line, error)
	Detach(ctx context.Context, lineID string) error
	ApproveLine(ctx context.Context, lineID string) (*Line, error)
	RejectLine(ctx context.Context, lineID string) (*Line, error)

	// ApproveForBooking approves each pending line that stock allows and
	// rejects the rest.
	ApproveForBooking(ctx context.Context, bookingID string) ([]*Line, error)
	// ReleaseForBooking returns the stock of every approved line.
	ReleaseForBooking(ctx context.Context, bookingID string) error
	// Restock credits the stock held by lines whose rows are already gone,
	// such as the lines of a deleted booking.
	Restock(ctx context.Context, lines []*Line) error
}

type service struct {
	repo   Repository
	clock  clock.Clock
	logger *zap.Logger
}

func NewService(repo Repository, clk clock.Clock, logger *zap.Logger) Service {
	return &service{repo: repo, clock: clk, logger: logging.OrNop(logger)}
}

func (s *service) CreateItem(ctx context.Context, name string, quantity int) (*Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	item := &Item{Name: strings.TrimSpace(name), Quantity: quantity, AvailableQuantity: quantity}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id string) (*Item, error) {
	return s.repo.GetItem(ctx, id)
}

func (s *service) ListItems(ctx context.Context) ([]*Item, error) {
	return s.repo.ListItems(ctx)
}

func (s *service) Reserve(ctx context.Context, itemID string, qty int) (bool, error) {
	if qty <= 0 {
		return false, ErrInvalidQuantity
	}
	return s.repo.Reserve(ctx, itemID, qty)
}

func (s *service) Release(ctx context.Context, itemID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return s.repo.Release(ctx, itemID, qty)
}

func (s *service) CheckAvailable(ctx context.Context, itemID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if qty > item.AvailableQuantity {
		return ErrInsufficientStock
	}
	return nil
}

func (s *service) Attach(ctx context.Context, bookingID, itemID string, qty int, approve bool) (*Line, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	line := &Line{BookingID: bookingID, ItemID: itemID, Quantity: qty, Status: LineStatusPending}
	err := s.repo.WithinTx(ctx, func(repo Repository) error {
		if _, err := repo.GetItem(ctx, itemID); err != nil {
			return err
		}
		if approve {
			ok, err := repo.Reserve(ctx, itemID, qty)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInsufficientStock
			}
			line.Status = LineStatusApproved
		}
		return repo.CreateLine(ctx, line)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *service) ListLines(ctx context.Context, bookingID string) ([]*Line, error) {
	return s.repo.ListLines(ctx, bookingID)
}

func (s *service) GetLine(ctx context.Context, id string) (*Line, error) {
	return s.repo.GetLine(ctx, id)
}

func (s *service) ChangeQuantity(ctx context.Context, lineID string, qty int) (*Line, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	var line *Line
	err := s.repo.WithinTx(ctx, func(repo Repository) error {
		var err error
		line, err = repo.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		if line.Status == LineStatusRejected {
			return ErrLineRejected
		}

		delta := qty - line.Quantity
		if line.HoldsStock() {
			switch {
			case delta > 0:
				ok, err := repo.Reserve(ctx, line.ItemID, delta)
				if err != nil {
					return err
				}
				if !ok {
					return ErrInsufficientStock
				}
			case delta < 0:
				if err := repo.Release(ctx, line.ItemID, -delta); err != nil {
					return err
				}
			}
		}

		line.Quantity = qty
		return repo.UpdateLine(ctx, line)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *service) Detach(ctx context.Context, lineID string) error {
	return s.repo.WithinTx(ctx, func(repo Repository) error {
		line, err := repo.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		if line.HoldsStock() {
			if err := repo.Release(ctx, line.ItemID, line.Quantity); err != nil {
				return err
			}
		}
		return repo.DeleteLine(ctx, lineID)
	})
}

func (s *service) ApproveLine(ctx context.Context, lineID string) (*Line, error) {
	var line *Line
	err := s.repo.WithinTx(ctx, func(repo Repository) error {
		var err error
		line, err = repo.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		return approveLine(ctx, repo, line)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func approveLine(ctx context.Context, repo Repository, line *Line) error {
	if !line.Status.CanTransitionTo(LineStatusApproved) {
		return ErrLineNotPending
	}
	ok, err := repo.Reserve(ctx, line.ItemID, line.Quantity)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientStock
	}
	line.Status = LineStatusApproved
	return repo.UpdateLine(ctx, line)
}

func (s *service) RejectLine(ctx context.Context, lineID string) (*Line, error) {
	line, err := s.repo.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if !line.Status.CanTransitionTo(LineStatusRejected) {
		return nil, ErrLineNotPending
	}
	line.Status = LineStatusRejected
	if err := s.repo.UpdateLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

func (s *service) ApproveForBooking(ctx context.Context, bookingID string) ([]*Line, error) {
	var lines []*Line
	err := s.repo.WithinTx(ctx, func(repo Repository) error {
		var err error
		lines, err = repo.ListLines(ctx, bookingID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if line.Status != LineStatusPending {
				continue
			}
			err := approveLine(ctx, repo, line)
			if errors.Is(err, ErrInsufficientStock) {
				s.logger.Info("rejecting equipment line for lack of stock",
					zap.String("booking_id", bookingID),
					zap.String("equipment_id", line.ItemID),
					zap.Int("quantity", line.Quantity),
				)
				line.Status = LineStatusRejected
				err = repo.UpdateLine(ctx, line)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *service) ReleaseForBooking(ctx context.Context, bookingID string) error {
	return s.repo.WithinTx(ctx, func(repo Repository) error {
		lines, err := repo.ListLines(ctx, bookingID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if !line.HoldsStock() {
				continue
			}
			if err := repo.Release(ctx, line.ItemID, line.Quantity); err != nil {
				return err
			}
			releasedAt := s.clock.Now()
			line.ReleasedAt = &releasedAt
			if err := repo.UpdateLine(ctx, line); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) Restock(ctx context.Context, lines []*Line) error {
	return s.repo.WithinTx(ctx, func(repo Repository) error {
		for _, line := range lines {
			if !line.HoldsStock() {
				continue
			}
			if err := repo.Release(ctx, line.ItemID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}
