package http

import (
	"time"

	"github.com/nekogravitycat/room-reservation-engine/internal/notification"
)

const defaultOutboxLimit = 100

type ListOutboxRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

type AckRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=500,dive,uuid"`
}

type IntentResponse struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	RecipientID string         `json:"recipient_id"`
	Payload     map[string]any `json:"payload"`
	CreatedAt   time.Time      `json:"created_at"`
}

func NewIntentResponse(in notification.Intent) IntentResponse {
	return IntentResponse{
		ID:          in.ID,
		Kind:        string(in.Kind),
		RecipientID: in.RecipientID,
		Payload:     in.Payload,
		CreatedAt:   in.CreatedAt,
	}
}

type AckResponse struct {
	Delivered int `json:"delivered"`
}
