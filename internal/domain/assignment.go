package domain

import "time"

// AssignmentRole distinguishes the accountable technician from helpers.
type AssignmentRole string

const (
	AssignmentRolePrimary   AssignmentRole = "primary"
	AssignmentRoleAssistant AssignmentRole = "assistant"
)

// Assignment links a technician to a ticket with a role. At most one
// primary assignment exists per ticket at any time.
type Assignment struct {
	TicketID  string
	UserID    string
	UserName  string
	Role      AssignmentRole
	CreatedAt time.Time
}

// DispatchLogEntry is an immutable audit record of one dispatch event: the
// exact minimal-disclosure payload sent, who sent it, and to whom. Entries
// are append-only and never mutated or deleted.
type DispatchLogEntry struct {
	ID               string
	TicketID         string
	DispatcherUserID string
	TechnicianIDs    []string
	OpenBid          bool
	PayloadSnapshot  DispatchPayload
	DispatchedAt     time.Time
}

// DispatchPayload is the minimal-disclosure content sent to field staff:
// customer name reduced to a salutation, phone and address in full (field
// staff need them), internal notes never included.
type DispatchPayload struct {
	TicketNo      string `json:"ticket_no"`
	Category      string `json:"category"`
	CustomerName  string `json:"customer_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	ScheduledSlot string `json:"scheduled_slot,omitempty"`
	Description   string `json:"description"`
	IsUrgent      bool   `json:"is_urgent"`
	Message       string `json:"message"`
}
