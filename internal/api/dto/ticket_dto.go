package dto

import (
	"time"

	"github.com/repairflow/workorder-service/internal/domain"
	"github.com/repairflow/workorder-service/internal/service"
)

// PreferredSlotPayload is one customer slot candidate.
type PreferredSlotPayload struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Period string `json:"period" validate:"required,oneof=morning afternoon evening"`
}

// IntakeRequest is the public ticket creation payload.
type IntakeRequest struct {
	Title          string                 `json:"title" validate:"max=200"`
	Category       string                 `json:"category" validate:"max=100"`
	CustomerName   string                 `json:"customer_name" validate:"required,max=100"`
	Phone          string                 `json:"phone" validate:"required,min=7,max=20"`
	Address        string                 `json:"address" validate:"max=300"`
	ChannelUserID  string                 `json:"channel_user_id" validate:"max=100"`
	Description    string                 `json:"description" validate:"max=4000"`
	IsUrgent       bool                   `json:"is_urgent"`
	PreferredSlots []PreferredSlotPayload `json:"preferred_slots" validate:"max=3,dive"`
}

// StaffIntakeRequest extends intake with coordinator-only fields.
type StaffIntakeRequest struct {
	IntakeRequest
	Priority      domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	NotesInternal string                `json:"notes_internal" validate:"max=4000"`
}

// SupplementRequest adds customer-provided information.
type SupplementRequest struct {
	Note string `json:"note" validate:"required,max=4000"`
}

// RequestInfoRequest asks the customer for more details.
type RequestInfoRequest struct {
	Note string `json:"note" validate:"required,max=1000"`
}

// StatusChangeRequest performs a coordinator transition.
type StatusChangeRequest struct {
	Status domain.TicketStatus `json:"status" validate:"required"`
	Reason string              `json:"reason" validate:"max=1000"`
}

// CancelRequest terminates a ticket.
type CancelRequest struct {
	Reason string `json:"reason" validate:"required,min=5,max=1000"`
}

// ContactUpdateRequest edits customer-visible fields.
type ContactUpdateRequest struct {
	CustomerName *string `json:"customer_name" validate:"omitempty,max=100"`
	Phone        *string `json:"phone" validate:"omitempty,min=7,max=20"`
	Address      *string `json:"address" validate:"omitempty,max=300"`
	Title        *string `json:"title" validate:"omitempty,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=4000"`
}

// InternalUpdateRequest edits coordinator-only fields.
type InternalUpdateRequest struct {
	NotesInternal      *string                `json:"notes_internal" validate:"omitempty,max=4000"`
	DescriptionSummary *string                `json:"description_summary" validate:"omitempty,max=1000"`
	Category           *string                `json:"category" validate:"omitempty,max=100"`
	Priority           *domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high"`
	IsUrgent           *bool                  `json:"is_urgent"`
}

// QuoteRequest submits a technician estimate.
type QuoteRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Note   string `json:"note" validate:"max=1000"`
}

// ConfirmQuoteRequest accepts a quote. Reason is mandatory when a
// coordinator confirms on the customer's behalf.
type ConfirmQuoteRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// CompleteRequest finishes the work.
type CompleteRequest struct {
	ActualAmount int64  `json:"actual_amount" validate:"gt=0"`
	Note         string `json:"note" validate:"max=2000"`
}

// CommentRequest appends a note.
type CommentRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

// AssignmentResponse is one roster entry.
type AssignmentResponse struct {
	UserID   string    `json:"user_id"`
	UserName string    `json:"user_name"`
	Role     string    `json:"role"`
	Since    time.Time `json:"since"`
}

// ScheduleResponse is the negotiation sub-state.
type ScheduleResponse struct {
	PreferredSlots  []domain.PreferredSlot `json:"preferred_slots,omitempty"`
	SelectedSlot    *domain.SelectedSlot   `json:"selected_slot,omitempty"`
	ProposedSlots   []domain.ProposedSlot  `json:"proposed_slots,omitempty"`
	ConfirmedSlot   string                 `json:"confirmed_slot,omitempty"`
	ConfirmedBy     string                 `json:"confirmed_by,omitempty"`
	RescheduleCount int                    `json:"reschedule_count"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	TicketNo     string                `json:"ticket_no"`
	Title        string                `json:"title"`
	Category     string                `json:"category"`
	CustomerName string                `json:"customer_name"`
	Phone        string                `json:"phone"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	IsUrgent     bool                  `json:"is_urgent"`
	Scheduled    string                `json:"scheduled_slot,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetail is the staff projection with full disclosure.
type TicketDetail struct {
	TicketSummary
	Address           string                      `json:"address"`
	ChannelUserID     string                      `json:"channel_user_id,omitempty"`
	Description       string                      `json:"description"`
	Summary           string                      `json:"description_summary,omitempty"`
	NotesInternal     string                      `json:"notes_internal,omitempty"`
	SupplementNote    string                      `json:"supplement_note,omitempty"`
	Channel           domain.TicketChannel        `json:"channel"`
	Schedule          ScheduleResponse            `json:"schedule"`
	Assignees         []AssignmentResponse        `json:"assignees"`
	AcceptedAt        *time.Time                  `json:"accepted_at,omitempty"`
	QuotedAmount      *int64                      `json:"quoted_amount,omitempty"`
	QuoteNote         string                      `json:"quote_note,omitempty"`
	QuoteConfirmedAt  *time.Time                  `json:"quote_confirmed_at,omitempty"`
	QuoteConfirmedBy  string                      `json:"quote_confirmed_by,omitempty"`
	ActualAmount      *int64                      `json:"actual_amount,omitempty"`
	CompletionNote    string                      `json:"completion_note,omitempty"`
	Cancellation      *domain.CancellationRecord  `json:"cancellation,omitempty"`
	CompletedAt       *time.Time                  `json:"completed_at,omitempty"`
	ClosedAt          *time.Time                  `json:"closed_at,omitempty"`
}

// TrackResponse is the masked public projection.
type TrackResponse struct {
	TicketID      string                `json:"ticket_id"`
	TicketNo      string                `json:"ticket_no"`
	Title         string                `json:"title,omitempty"`
	Category      string                `json:"category,omitempty"`
	CustomerName  string                `json:"customer_name"`
	Address       string                `json:"address,omitempty"`
	Status        domain.TicketStatus   `json:"status"`
	Description   string                `json:"description,omitempty"`
	ScheduledSlot string                `json:"scheduled_slot,omitempty"`
	ProposedSlots []domain.ProposedSlot `json:"proposed_slots,omitempty"`
	QuotedAmount  *int64                `json:"quoted_amount,omitempty"`
	QuoteNote     string                `json:"quote_note,omitempty"`
	QuoteAwaiting bool                  `json:"quote_awaiting"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// CommentResponse is one ticket note.
type CommentResponse struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditEntryResponse is one mutation record.
type AuditEntryResponse struct {
	ID         string         `json:"id"`
	ActorRole  domain.Role    `json:"actor_role"`
	ActorName  string         `json:"actor_name"`
	ChangeType string         `json:"change_type"`
	OldValue   map[string]any `json:"old_value,omitempty"`
	NewValue   map[string]any `json:"new_value,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	OriginalName string    `json:"original_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewTicketSummary projects a ticket for list views.
func NewTicketSummary(ticket *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:           ticket.ID,
		TicketNo:     ticket.TicketNo,
		Title:        ticket.Title,
		Category:     ticket.Category,
		CustomerName: ticket.CustomerName,
		Phone:        ticket.Phone,
		Status:       ticket.Status.Canonical(),
		Priority:     ticket.Priority,
		IsUrgent:     ticket.IsUrgent,
		Scheduled:    ticket.Schedule.PendingSlotDisplay(),
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

// NewTicketDetail projects a ticket for the staff detail view.
func NewTicketDetail(ticket *domain.Ticket) TicketDetail {
	assignees := make([]AssignmentResponse, 0, len(ticket.Assignees))
	for _, a := range ticket.Assignees {
		assignees = append(assignees, AssignmentResponse{
			UserID:   a.UserID,
			UserName: a.UserName,
			Role:     string(a.Role),
			Since:    a.CreatedAt,
		})
	}
	return TicketDetail{
		TicketSummary:  NewTicketSummary(ticket),
		Address:        ticket.Address,
		ChannelUserID:  ticket.CustomerChannelID,
		Description:    ticket.DescriptionRaw,
		Summary:        ticket.DescriptionSummary,
		NotesInternal:  ticket.NotesInternal,
		SupplementNote: ticket.SupplementNote,
		Channel:        ticket.Channel,
		Schedule: ScheduleResponse{
			PreferredSlots:  ticket.Schedule.CustomerPreferredSlots,
			SelectedSlot:    ticket.Schedule.WorkerSelectedSlot,
			ProposedSlots:   ticket.Schedule.ProposedTimeSlots,
			ConfirmedSlot:   ticket.Schedule.ConfirmedSlot,
			ConfirmedBy:     ticket.Schedule.ConfirmedBy,
			RescheduleCount: ticket.Schedule.RescheduleCount,
		},
		Assignees:        assignees,
		AcceptedAt:       ticket.AcceptedAt,
		QuotedAmount:     ticket.QuotedAmount,
		QuoteNote:        ticket.QuoteNote,
		QuoteConfirmedAt: ticket.QuoteConfirmedAt,
		QuoteConfirmedBy: ticket.QuoteConfirmedBy,
		ActualAmount:     ticket.ActualAmount,
		CompletionNote:   ticket.CompletionNote,
		Cancellation:     ticket.Cancellation,
		CompletedAt:      ticket.CompletedAt,
		ClosedAt:         ticket.ClosedAt,
	}
}

// NewTrackResponse projects the masked public view.
func NewTrackResponse(view *service.TrackView) TrackResponse {
	return TrackResponse{
		TicketID:      view.TicketID,
		TicketNo:      view.TicketNo,
		Title:         view.Title,
		Category:      view.Category,
		CustomerName:  view.CustomerName,
		Address:       view.Address,
		Status:        view.Status,
		Description:   view.Description,
		ScheduledSlot: view.ScheduledSlot,
		ProposedSlots: view.ProposedSlots,
		QuotedAmount:  view.QuotedAmount,
		QuoteNote:     view.QuoteNote,
		QuoteAwaiting: view.QuoteAwaiting,
		CreatedAt:     view.CreatedAt,
		UpdatedAt:     view.UpdatedAt,
	}
}

// ToDomainSlots converts slot payloads.
func ToDomainSlots(payloads []PreferredSlotPayload) []domain.PreferredSlot {
	slots := make([]domain.PreferredSlot, 0, len(payloads))
	for _, p := range payloads {
		slots = append(slots, domain.PreferredSlot{Date: p.Date, Period: domain.Period(p.Period)})
	}
	return slots
}
