package dto

import (
	"time"

	"github.com/repairflow/workorder-service/internal/domain"
)

// DispatchRequest targets one technician or opens a bid.
type DispatchRequest struct {
	TechnicianID string `json:"technician_id" validate:"omitempty,uuid"`
	OpenBid      bool   `json:"open_bid"`
	Message      string `json:"message" validate:"max=1000"`
}

// AssistantRequest adds or removes a helper.
type AssistantRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// DispatchLogResponse is one append-only dispatch record.
type DispatchLogResponse struct {
	ID            string                 `json:"id"`
	DispatcherID  string                 `json:"dispatcher_id"`
	TechnicianIDs []string               `json:"technician_ids"`
	OpenBid       bool                   `json:"open_bid"`
	Payload       domain.DispatchPayload `json:"payload"`
	DispatchedAt  time.Time              `json:"dispatched_at"`
}

// NewDispatchLogResponse projects one log entry.
func NewDispatchLogResponse(entry *domain.DispatchLogEntry) DispatchLogResponse {
	return DispatchLogResponse{
		ID:            entry.ID,
		DispatcherID:  entry.DispatcherUserID,
		TechnicianIDs: entry.TechnicianIDs,
		OpenBid:       entry.OpenBid,
		Payload:       entry.PayloadSnapshot,
		DispatchedAt:  entry.DispatchedAt,
	}
}
