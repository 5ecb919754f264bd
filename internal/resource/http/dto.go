package http

import (
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/request"
	"github.com/nekogravitycat/room-reservation-engine/internal/resource"
)

type ResourceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Location  string    `json:"location"`
	Capacity  int       `json:"capacity"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func NewResponse(r *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:        r.ID,
		Name:      r.Name,
		Category:  r.Category,
		Location:  r.Location,
		Capacity:  r.Capacity,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
	}
}

// ListResourcesRequest defines query parameters for listing resources.
type ListResourcesRequest struct {
	request.ListParams
	Category string `form:"category"`
	IsActive *bool  `form:"is_active"`
}

type CreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	Location string `json:"location"`
	Capacity int    `json:"capacity" binding:"required,gt=0"`
}

type UpdateRequest struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Location *string `json:"location"`
	Capacity *int    `json:"capacity" binding:"omitempty,gt=0"`
	IsActive *bool   `json:"is_active"`
}
