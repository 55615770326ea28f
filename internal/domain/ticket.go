package domain

import "time"

// TicketStatus enumerates lifecycle states for repair tickets.
type TicketStatus string

const (
	TicketStatusNew          TicketStatus = "new"
	TicketStatusNeedMoreInfo TicketStatus = "need_more_info"
	TicketStatusInfoSubmit   TicketStatus = "info_submitted"
	TicketStatusDispatched   TicketStatus = "dispatched"
	TicketStatusTimeProposed TicketStatus = "time_proposed"
	TicketStatusReschedule   TicketStatus = "reschedule"
	TicketStatusInProgress   TicketStatus = "in_progress"
	TicketStatusDone         TicketStatus = "done"
	TicketStatusClosed       TicketStatus = "closed"
	TicketStatusCancelled    TicketStatus = "cancelled"
)

// Legacy statuses still present in old rows. They are mapped onto the
// canonical set for display only and are never written back.
const (
	legacyStatusPending    TicketStatus = "pending"
	legacyStatusProcessing TicketStatus = "processing"
	legacyStatusCompleted  TicketStatus = "completed"
)

// Canonical maps legacy display statuses onto the current lifecycle.
func (s TicketStatus) Canonical() TicketStatus {
	switch s {
	case legacyStatusPending:
		return TicketStatusNew
	case legacyStatusProcessing:
		return TicketStatusInProgress
	case legacyStatusCompleted:
		return TicketStatusDone
	default:
		return s
	}
}

// IsTerminal reports whether no further workflow transitions exist.
// Cancelled is recoverable (may be reopened to new) and is not terminal here.
func (s TicketStatus) IsTerminal() bool {
	return s.Canonical() == TicketStatusClosed
}

// IsActive reports whether the ticket is still being worked. Assistant
// management is only permitted in active statuses.
func (s TicketStatus) IsActive() bool {
	switch s.Canonical() {
	case TicketStatusClosed, TicketStatusCancelled, TicketStatusDone:
		return false
	default:
		return true
	}
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// TicketChannel records how a ticket entered the system.
type TicketChannel string

const (
	ChannelWeb     TicketChannel = "web"
	ChannelMessage TicketChannel = "message"
	ChannelStaff   TicketChannel = "staff"
)

// CancellationRecord captures who cancelled a ticket and why. Written once.
type CancellationRecord struct {
	CancelledAt time.Time
	Role        Role
	Name        string
	Reason      string
}

// Ticket is the aggregate root for one repair request.
type Ticket struct {
	ID       string
	TicketNo string
	Title    string
	Category string

	CustomerName      string
	Phone             string
	Address           string
	CustomerChannelID string

	DescriptionRaw     string
	DescriptionSummary string
	NotesInternal      string
	SupplementNote     string

	Status    TicketStatus
	Priority  TicketPriority
	IsUrgent  bool
	CreatedBy string
	Channel   TicketChannel

	Schedule Schedule

	AcceptedAt       *time.Time
	QuotedAmount     *int64
	QuoteNote        string
	QuoteConfirmedAt *time.Time
	QuoteConfirmedBy string
	ActualAmount     *int64
	CompletionNote   string

	Cancellation *CancellationRecord

	Assignees []Assignment

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	ClosedAt    *time.Time
}

// PrimaryAssignee returns the current primary technician assignment, if any.
func (t *Ticket) PrimaryAssignee() *Assignment {
	for i := range t.Assignees {
		if t.Assignees[i].Role == AssignmentRolePrimary {
			return &t.Assignees[i]
		}
	}
	return nil
}

// IsAssigned reports whether the user holds any role on the ticket.
func (t *Ticket) IsAssigned(userID string) bool {
	for _, a := range t.Assignees {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// IsPrimary reports whether the user is the current primary technician.
func (t *Ticket) IsPrimary(userID string) bool {
	primary := t.PrimaryAssignee()
	return primary != nil && primary.UserID == userID
}

// HasConfirmedQuote reports whether a submitted quote has been accepted.
func (t *Ticket) HasConfirmedQuote() bool {
	return t.QuotedAmount != nil && t.QuoteConfirmedAt != nil
}
