package testfixtures

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/nekogravitycat/room-reservation-engine/internal/equipment"
)

// EquipmentRepository keeps items and booking lines in memory. WithinTx
// serializes transactions and restores the previous state when fn fails.
type EquipmentRepository struct {
	txMu sync.Mutex

	mu    sync.Mutex
	items map[string]*equipment.Item
	lines map[string]*equipment.Line
}

func NewEquipmentRepository() *EquipmentRepository {
	return &EquipmentRepository{
		items: make(map[string]*equipment.Item),
		lines: make(map[string]*equipment.Line),
	}
}

func cloneLine(l *equipment.Line) *equipment.Line {
	cp := *l
	cp.ReleasedAt = clonePtr(l.ReleasedAt)
	return &cp
}

func (r *EquipmentRepository) AddItem(name string, quantity int) *equipment.Item {
	item := &equipment.Item{Name: name, Quantity: quantity, AvailableQuantity: quantity}
	_ = r.CreateItem(context.Background(), item)
	return item
}

func (r *EquipmentRepository) CreateItem(_ context.Context, item *equipment.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = newID()
	item.CreatedAt = Epoch
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *EquipmentRepository) GetItem(_ context.Context, id string) (*equipment.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, equipment.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *EquipmentRepository) ListItems(context.Context) ([]*equipment.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*equipment.Item, 0, len(r.items))
	for _, item := range r.items {
		cp := *item
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *equipment.Item) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *EquipmentRepository) Reserve(_ context.Context, itemID string, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return false, equipment.ErrItemNotFound
	}
	return item.Reserve(qty), nil
}

func (r *EquipmentRepository) Release(_ context.Context, itemID string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[itemID]
	if !ok {
		return equipment.ErrItemNotFound
	}
	item.Release(qty)
	return nil
}

func (r *EquipmentRepository) CreateLine(_ context.Context, line *equipment.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lines {
		if l.BookingID == line.BookingID && l.ItemID == line.ItemID {
			return equipment.ErrAlreadyAttached
		}
	}
	line.ID = newID()
	line.CreatedAt = Epoch
	line.UpdatedAt = Epoch
	r.lines[line.ID] = cloneLine(line)
	return nil
}

func (r *EquipmentRepository) GetLine(_ context.Context, id string) (*equipment.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lines[id]
	if !ok {
		return nil, equipment.ErrLineNotFound
	}
	return cloneLine(l), nil
}

func (r *EquipmentRepository) ListLines(_ context.Context, bookingID string) ([]*equipment.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*equipment.Line
	for _, l := range r.lines {
		if l.BookingID == bookingID {
			out = append(out, cloneLine(l))
		}
	}
	slices.SortFunc(out, func(a, b *equipment.Line) int { return cmp.Compare(a.ItemID, b.ItemID) })
	return out, nil
}

func (r *EquipmentRepository) UpdateLine(_ context.Context, line *equipment.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lines[line.ID]; !ok {
		return equipment.ErrLineNotFound
	}
	r.lines[line.ID] = cloneLine(line)
	return nil
}

func (r *EquipmentRepository) DeleteLine(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lines[id]; !ok {
		return equipment.ErrLineNotFound
	}
	delete(r.lines, id)
	return nil
}

func (r *EquipmentRepository) WithinTx(ctx context.Context, fn func(equipment.Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	items := make(map[string]*equipment.Item, len(r.items))
	for id, item := range r.items {
		cp := *item
		items[id] = &cp
	}
	lines := maps.Clone(r.lines)
	r.mu.Unlock()

	if err := fn(equipmentTx{r}); err != nil {
		r.mu.Lock()
		r.items = items
		r.lines = lines
		r.mu.Unlock()
		return err
	}
	return nil
}

// equipmentTx is the repository as seen inside WithinTx.
type equipmentTx struct {
	*EquipmentRepository
}

func (t equipmentTx) WithinTx(_ context.Context, fn func(equipment.Repository) error) error {
	return fn(t)
}
