package http

import (
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/pkg/request"
	"github.com/nekogravitycat/room-reservation-engine/internal/user"
)

// UserResponse is the public view of a requester.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"display_name"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
	}
}

type ListUsersRequest struct {
	request.ListParams
	Email    string `form:"email"`
	Role     string `form:"role" binding:"omitempty,oneof=admin staff teacher user"`
	IsActive *bool  `form:"is_active"`
}

type CreateUserRequest struct {
	Email       string  `json:"email" binding:"required,email"`
	DisplayName *string `json:"display_name"`
	Role        string  `json:"role" binding:"omitempty,oneof=admin staff teacher user"`
}
