package domain

import "time"

// Comment is a free-form note on a ticket. Comments stay writable after a
// ticket closes; everything else becomes immutable.
type Comment struct {
	ID        string
	TicketID  string
	Author    string
	Body      string
	CreatedAt time.Time
}

// Attachment stores metadata for a blob held by the attachment store.
type Attachment struct {
	ID           string
	TicketID     string
	StorageKey   string
	Kind         string
	OriginalName string
	CreatedAt    time.Time
}

// TicketAuditEntry is an immutable record of a ticket mutation. Forced
// coordinator overrides are recorded with their own change type so they are
// distinguishable from table-approved transitions.
type TicketAuditEntry struct {
	ID         string
	TicketID   string
	ActorRole  Role
	ActorName  string
	ChangeType AuditChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}

// AuditChangeType captures what changed in an audit entry.
type AuditChangeType string

const (
	AuditStatusChange       AuditChangeType = "status_change"
	AuditForcedStatusChange AuditChangeType = "forced_status_change"
	AuditAssignmentChange   AuditChangeType = "assignment_change"
	AuditQuoteChange        AuditChangeType = "quote_change"
	AuditScheduleChange     AuditChangeType = "schedule_change"
	AuditContactChange      AuditChangeType = "contact_change"
)
