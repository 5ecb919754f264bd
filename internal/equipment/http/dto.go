package http

import (
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/equipment"
)

type ItemResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Quantity          int       `json:"quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewItemResponse(i *equipment.Item) ItemResponse {
	return ItemResponse{
		ID:                i.ID,
		Name:              i.Name,
		Quantity:          i.Quantity,
		AvailableQuantity: i.AvailableQuantity,
		CreatedAt:         i.CreatedAt,
	}
}

type CreateItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// StockRequest adjusts stock by hand, outside any booking.
type StockRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

type ReserveResponse struct {
	Reserved bool         `json:"reserved"`
	Item     ItemResponse `json:"item"`
}
