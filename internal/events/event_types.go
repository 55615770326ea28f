package events

import (
	"time"

	"github.com/repairflow/workorder-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated    EventType = "ticket_created"
	EventStatusChanged    EventType = "ticket_status_changed"
	EventTicketDispatched EventType = "ticket_dispatched"
	EventTicketAccepted   EventType = "ticket_accepted"
	EventTimeProposed     EventType = "ticket_time_proposed"
	EventTimeConfirmed    EventType = "ticket_time_confirmed"
	EventRescheduled      EventType = "ticket_rescheduled"
	EventQuoteSubmitted   EventType = "ticket_quote_submitted"
	EventQuoteConfirmed   EventType = "ticket_quote_confirmed"
	EventTicketCompleted  EventType = "ticket_completed"
	EventTicketClosed     EventType = "ticket_closed"
	EventTicketCancelled  EventType = "ticket_cancelled"
	EventInfoRequested    EventType = "ticket_info_requested"
	EventInfoSubmitted    EventType = "ticket_info_submitted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role domain.Role `json:"role"`
	ID   string      `json:"id,omitempty"`
	Name string      `json:"name,omitempty"`
}

// Event represents a domain event emitted by services after the underlying
// state mutation has committed. Handlers are best-effort.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	TicketNo  string      `json:"ticket_no"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category    string                `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	IsUrgent    bool                  `json:"is_urgent"`
	Channel     domain.TicketChannel  `json:"channel"`
	Phone       string                `json:"phone"`
	Address     string                `json:"address"`
	Description string                `json:"description"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Forced    bool                `json:"forced,omitempty"`
	Comment   string              `json:"comment,omitempty"`
}

// DispatchedPayload payload.
type DispatchedPayload struct {
	Payload       domain.DispatchPayload `json:"payload"`
	TechnicianIDs []string               `json:"technician_ids"`
	OpenBid       bool                   `json:"open_bid"`
}

// TimeNegotiationPayload covers proposals, selections and confirmations.
type TimeNegotiationPayload struct {
	Slot          string `json:"slot,omitempty"`
	ConfirmedBy   string `json:"confirmed_by,omitempty"`
	ConfirmReason string `json:"confirm_reason,omitempty"`
	Round         int    `json:"round,omitempty"`
}

// QuotePayload payload.
type QuotePayload struct {
	Amount      int64  `json:"amount"`
	Note        string `json:"note,omitempty"`
	ConfirmedBy string `json:"confirmed_by,omitempty"`
}

// CompletionPayload payload.
type CompletionPayload struct {
	ActualAmount int64  `json:"actual_amount"`
	Note         string `json:"note,omitempty"`
	WorkerName   string `json:"worker_name"`
}

// CancelledPayload payload.
type CancelledPayload struct {
	Role   domain.Role `json:"role"`
	Name   string      `json:"name"`
	Reason string      `json:"reason"`
}
