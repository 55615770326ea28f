package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/repairflow/workorder-service/internal/domain"
	"github.com/repairflow/workorder-service/internal/events"
	"github.com/repairflow/workorder-service/internal/repository"
	apperrors "github.com/repairflow/workorder-service/pkg/util"
)

// minReasonLength applies to cancellation and forced-transition reasons.
const minReasonLength = 5

// publicDescriptionMax bounds free text returned on the track surface.
const publicDescriptionMax = 200

// TicketService coordinates the ticket lifecycle: intake, info supplement,
// status changes, quoting, completion, cancellation and the public track
// surface. Scheduling negotiation and dispatch live in their own services.
type TicketService struct {
	tickets     repository.TicketRepository
	assignments repository.AssignmentRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	audit       repository.AuditRepository
	dispatcher  events.Dispatcher
	now         func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	AssignmentRepo repository.AssignmentRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	AuditRepo      repository.AuditRepository
	Dispatcher     events.Dispatcher
	Now            func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		assignments: deps.AssignmentRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		audit:       deps.AuditRepo,
		dispatcher:  deps.Dispatcher,
		now:         now,
	}
}

// IntakeInput describes a new repair request.
type IntakeInput struct {
	Title             string
	Category          string
	CustomerName      string
	Phone             string
	Address           string
	CustomerChannelID string
	Description       string
	Priority          domain.TicketPriority
	IsUrgent          bool
	PreferredSlots    []domain.PreferredSlot
	Channel           domain.TicketChannel
	NotesInternal     string
}

// Intake creates a ticket in status new. Customer-facing channels may not
// set internal notes; staff intake records the creating coordinator.
func (s *TicketService) Intake(ctx context.Context, actor domain.Actor, input IntakeInput) (*domain.Ticket, error) {
	if !actor.Can(domain.CapCreateTicket) {
		return nil, apperrors.NewAuthorityViolation("actor may not create tickets")
	}
	if strings.TrimSpace(input.CustomerName) == "" || strings.TrimSpace(input.Phone) == "" {
		return nil, apperrors.NewValidationFailure("customer name and phone are required", nil)
	}
	if strings.TrimSpace(input.Description) == "" && strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationFailure("a title or description is required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	channel := input.Channel
	if channel == "" {
		channel = domain.ChannelWeb
	}
	notesInternal := ""
	if actor.Role == domain.RoleCoordinator {
		notesInternal = input.NotesInternal
	}

	ticket := &domain.Ticket{
		Title:             strings.TrimSpace(input.Title),
		Category:          strings.TrimSpace(input.Category),
		CustomerName:      strings.TrimSpace(input.CustomerName),
		Phone:             strings.TrimSpace(input.Phone),
		Address:           strings.TrimSpace(input.Address),
		CustomerChannelID: input.CustomerChannelID,
		DescriptionRaw:    strings.TrimSpace(input.Description),
		NotesInternal:     notesInternal,
		Status:            domain.TicketStatusNew,
		Priority:          priority,
		IsUrgent:          input.IsUrgent,
		CreatedBy:         actor.ID,
		Channel:           channel,
		Schedule: domain.Schedule{
			CustomerPreferredSlots: domain.FilterPreferredSlots(input.PreferredSlots, s.now()),
		},
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventTicketCreated, ticket, actor, events.TicketCreatedPayload{
		Category:    ticket.Category,
		Priority:    ticket.Priority,
		IsUrgent:    ticket.IsUrgent,
		Channel:     ticket.Channel,
		Phone:       ticket.Phone,
		Address:     ticket.Address,
		Description: ticket.DescriptionRaw,
	})
	return ticket, nil
}

// Get loads a ticket with its roster. Staff surface only.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.load(ctx, id)
}

// List returns tickets for the staff surface. Technicians see tickets they
// are assigned to plus unassigned ones; coordinators see everything.
func (s *TicketService) List(ctx context.Context, actor domain.Actor, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if actor.Role == domain.RoleTechnician {
		filter.VisibleToUserID = &actor.ID
	}
	list, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// RequestInfo moves a ticket to need_more_info with a note telling the
// customer what is missing.
func (s *TicketService) RequestInfo(ctx context.Context, actor domain.Actor, ticketID, note string) (*domain.Ticket, error) {
	if actor.Role != domain.RoleCoordinator {
		return nil, apperrors.NewAuthorityViolation("only a coordinator may request more information")
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	prior := ticket.Status
	if err := s.applyTransition(ctx, ticket, domain.TicketStatusNeedMoreInfo, actor, note); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventInfoRequested, ticket, actor, events.StatusChangedPayload{
		OldStatus: prior, NewStatus: ticket.Status, Comment: note,
	})
	return ticket, nil
}

// Supplement records customer-provided information on a ticket waiting for
// it and moves it to info_submitted.
func (s *TicketService) Supplement(ctx context.Context, actor domain.Actor, ticketID, note string) (*domain.Ticket, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperrors.NewValidationFailure("supplement note is required", nil)
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.SupplementNote != "" {
		ticket.SupplementNote += "\n"
	}
	ticket.SupplementNote += note
	if err := s.applyTransition(ctx, ticket, domain.TicketStatusInfoSubmit, actor, ""); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventInfoSubmitted, ticket, actor, events.StatusChangedPayload{
		OldStatus: domain.TicketStatusNeedMoreInfo, NewStatus: ticket.Status, Comment: note,
	})
	return ticket, nil
}

// ContactUpdateInput carries mutable contact fields. Nil means unchanged.
type ContactUpdateInput struct {
	CustomerName *string
	Phone        *string
	Address      *string
	Title        *string
	Description  *string
}

// UpdateContact edits customer-visible fields. Allowed to customers on
// their own ticket and to coordinators; closed tickets are immutable.
func (s *TicketService) UpdateContact(ctx context.Context, actor domain.Actor, ticketID string, input ContactUpdateInput) (*domain.Ticket, error) {
	if !actor.Can(domain.CapEditContact) {
		return nil, apperrors.NewAuthorityViolation("actor may not edit contact details")
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewValidationFailure("closed tickets are immutable", nil)
	}

	old := map[string]any{"customer_name": ticket.CustomerName, "phone": ticket.Phone, "address": ticket.Address}
	if input.CustomerName != nil {
		ticket.CustomerName = strings.TrimSpace(*input.CustomerName)
	}
	if input.Phone != nil {
		ticket.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		ticket.Address = strings.TrimSpace(*input.Address)
	}
	if input.Title != nil {
		ticket.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		ticket.DescriptionRaw = strings.TrimSpace(*input.Description)
	}
	if ticket.CustomerName == "" || ticket.Phone == "" {
		return nil, apperrors.NewValidationFailure("customer name and phone may not be emptied", nil)
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordAudit(ctx, ticket.ID, actor, domain.AuditContactChange, old,
		map[string]any{"customer_name": ticket.CustomerName, "phone": ticket.Phone, "address": ticket.Address})
	return ticket, nil
}

// InternalUpdateInput carries coordinator-only fields: internal notes,
// priority, urgency, category and the description summary.
type InternalUpdateInput struct {
	NotesInternal      *string
	DescriptionSummary *string
	Category           *string
	Priority           *domain.TicketPriority
	IsUrgent           *bool
}

func (s *TicketService) UpdateInternal(ctx context.Context, actor domain.Actor, ticketID string, input InternalUpdateInput) (*domain.Ticket, error) {
	if !actor.Can(domain.CapEditInternal) {
		return nil, apperrors.NewAuthorityViolation("actor may not edit internal fields")
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewValidationFailure("closed tickets are immutable", nil)
	}
	if input.NotesInternal != nil {
		ticket.NotesInternal = *input.NotesInternal
	}
	if input.DescriptionSummary != nil {
		ticket.DescriptionSummary = strings.TrimSpace(*input.DescriptionSummary)
	}
	if input.Category != nil {
		ticket.Category = strings.TrimSpace(*input.Category)
	}
	if input.Priority != nil {
		ticket.Priority = *input.Priority
	}
	if input.IsUrgent != nil {
		ticket.IsUrgent = *input.IsUrgent
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ChangeStatus performs a coordinator-driven transition, including forced
// overrides. Forced transitions require a reason and audit separately.
func (s *TicketService) ChangeStatus(ctx context.Context, actor domain.Actor, ticketID string, requested domain.TicketStatus, reason string) (*domain.Ticket, error) {
	if !domain.IsKnownStatus(requested) {
		return nil, apperrors.NewValidationFailure("unknown status", map[string]any{"status": requested})
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	prior := ticket.Status
	if err := s.applyTransition(ctx, ticket, requested, actor, reason); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventStatusChanged, ticket, actor, events.StatusChangedPayload{
		OldStatus: prior, NewStatus: ticket.Status, Comment: reason,
	})
	return ticket, nil
}

// Cancel terminates a ticket with a mandatory reason. Customers may cancel
// their own ticket from the track surface; staff cancel from the console.
func (s *TicketService) Cancel(ctx context.Context, actor domain.Actor, ticketID, reason string) (*domain.Ticket, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minReasonLength {
		return nil, apperrors.NewValidationFailure("a cancellation reason of at least 5 characters is required", nil)
	}
	if !actor.Can(domain.CapCancelTicket) {
		return nil, apperrors.NewAuthorityViolation("actor may not cancel tickets")
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.Cancellation = &domain.CancellationRecord{
		CancelledAt: s.now(),
		Role:        actor.Role,
		Name:        actor.Name,
		Reason:      reason,
	}
	if err := s.applyTransition(ctx, ticket, domain.TicketStatusCancelled, actor, reason); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTicketCancelled, ticket, actor, events.CancelledPayload{
		Role: actor.Role, Name: actor.Name, Reason: reason,
	})
	return ticket, nil
}

// Reopen returns a cancelled ticket to new. Coordinator only; the
// cancellation record stays on the ticket for the audit trail.
func (s *TicketService) Reopen(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	if actor.Role != domain.RoleCoordinator {
		return nil, apperrors.NewAuthorityViolation("only a coordinator may reopen a cancelled ticket")
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.Schedule.ClearNegotiation()
	if err := s.applyTransition(ctx, ticket, domain.TicketStatusNew, actor, ""); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventStatusChanged, ticket, actor, events.StatusChangedPayload{
		OldStatus: domain.TicketStatusCancelled, NewStatus: ticket.Status,
	})
	return ticket, nil
}

// SubmitQuote records the primary technician's estimate before work starts.
func (s *TicketService) SubmitQuote(ctx context.Context, actor domain.Actor, ticketID string, amount int64, note string) (*domain.Ticket, error) {
	if !actor.Can(domain.CapSubmitQuote) {
		return nil, apperrors.NewAuthorityViolation("actor may not submit quotes")
	}
	if amount <= 0 {
		return nil, apperrors.NewValidationFailure("quote amount must be positive", nil)
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsPrimary(actor.ID) {
		return nil, apperrors.NewAuthorityViolation("only the primary technician may submit a quote")
	}
	switch ticket.Status.Canonical() {
	case domain.TicketStatusTimeProposed, domain.TicketStatusInProgress:
	default:
		return nil, apperrors.NewValidationFailure("quotes may only be submitted on scheduled or in-progress tickets", nil)
	}

	old := map[string]any{"quoted_amount": ticket.QuotedAmount}
	ticket.QuotedAmount = &amount
	ticket.QuoteNote = strings.TrimSpace(note)
	ticket.QuoteConfirmedAt = nil
	ticket.QuoteConfirmedBy = ""
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordAudit(ctx, ticket.ID, actor, domain.AuditQuoteChange, old,
		map[string]any{"quoted_amount": amount, "note": ticket.QuoteNote})
	s.publish(ctx, events.EventQuoteSubmitted, ticket, actor, events.QuotePayload{
		Amount: amount, Note: ticket.QuoteNote,
	})
	return ticket, nil
}

// ConfirmQuote accepts the pending quote. Customers confirm their own
// ticket; coordinators confirming on the customer's behalf must give a
// reason, which lands in the audit trail.
func (s *TicketService) ConfirmQuote(ctx context.Context, actor domain.Actor, ticketID, reason string) (*domain.Ticket, error) {
	if !actor.Can(domain.CapConfirmQuote) {
		return nil, apperrors.NewAuthorityViolation("actor may not confirm quotes")
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.QuotedAmount == nil {
		return nil, apperrors.NewValidationFailure("no quote has been submitted", nil)
	}
	if ticket.QuoteConfirmedAt != nil {
		return nil, apperrors.NewValidationFailure("quote already confirmed", nil)
	}
	if actor.Role == domain.RoleCoordinator && len([]rune(strings.TrimSpace(reason))) < minReasonLength {
		return nil, apperrors.NewValidationFailure("confirming on the customer's behalf requires a reason", nil)
	}

	confirmedAt := s.now()
	ticket.QuoteConfirmedAt = &confirmedAt
	ticket.QuoteConfirmedBy = actor.Name
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordAudit(ctx, ticket.ID, actor, domain.AuditQuoteChange, nil,
		map[string]any{"confirmed_by": actor.Name, "reason": strings.TrimSpace(reason)})
	s.publish(ctx, events.EventQuoteConfirmed, ticket, actor, events.QuotePayload{
		Amount: *ticket.QuotedAmount, ConfirmedBy: actor.Name,
	})
	return ticket, nil
}

// Complete finishes the work: primary technician only, from in_progress,
// recording the actual amount and a completion note.
func (s *TicketService) Complete(ctx context.Context, actor domain.Actor, ticketID string, actualAmount int64, note string) (*domain.Ticket, error) {
	if !actor.Can(domain.CapComplete) {
		return nil, apperrors.NewAuthorityViolation("actor may not complete tickets")
	}
	if actualAmount <= 0 {
		return nil, apperrors.NewValidationFailure("a positive actual amount is required", nil)
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsPrimary(actor.ID) {
		return nil, apperrors.NewAuthorityViolation("only the primary technician may complete the ticket")
	}

	completedAt := s.now()
	ticket.ActualAmount = &actualAmount
	ticket.CompletionNote = strings.TrimSpace(note)
	ticket.CompletedAt = &completedAt
	if err := s.applyTransition(ctx, ticket, domain.TicketStatusDone, actor, ""); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTicketCompleted, ticket, actor, events.CompletionPayload{
		ActualAmount: actualAmount, Note: ticket.CompletionNote, WorkerName: actor.Name,
	})
	return ticket, nil
}

// Close archives a finished ticket. Coordinator only.
func (s *TicketService) Close(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	if !actor.Can(domain.CapCloseTicket) {
		return nil, apperrors.NewAuthorityViolation("actor may not close tickets")
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	closedAt := s.now()
	ticket.ClosedAt = &closedAt
	if err := s.applyTransition(ctx, ticket, domain.TicketStatusClosed, actor, ""); err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTicketClosed, ticket, actor, nil)
	return ticket, nil
}

// AddComment appends a free-form note. Comments remain writable after close.
func (s *TicketService) AddComment(ctx context.Context, actor domain.Actor, ticketID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationFailure("comment body is required", nil)
	}
	if _, err := s.load(ctx, ticketID); err != nil {
		return nil, err
	}
	comment := &domain.Comment{TicketID: ticketID, Author: actor.Name, Body: body}
	if err := s.comments.Add(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

// Comments lists a ticket's notes.
func (s *TicketService) Comments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	list, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// AuditTrail lists a ticket's mutation history.
func (s *TicketService) AuditTrail(ctx context.Context, ticketID string) ([]domain.TicketAuditEntry, error) {
	list, err := s.audit.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// TrackView is the identity-scoped public projection of a ticket. Name and
// address come back masked; the phone belongs to the requester already.
type TrackView struct {
	TicketID      string
	TicketNo      string
	Title         string
	Category      string
	CustomerName  string
	Address       string
	Status        domain.TicketStatus
	Description   string
	ScheduledSlot string
	ProposedSlots []domain.ProposedSlot
	QuotedAmount  *int64
	QuoteNote     string
	QuoteAwaiting bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Track resolves a ticket for the public surface. Identity is the triple
// (ticket id, phone, ticket number); any mismatch is reported as not found
// so existence never leaks.
func (s *TicketService) Track(ctx context.Context, ticketID, phone, ticketNo string) (*TrackView, error) {
	ticket, err := s.tickets.GetByTrackIdentity(ctx, ticketID, strings.TrimSpace(phone), strings.TrimSpace(ticketNo))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return projectTrackView(ticket), nil
}

// TrackByNumber resolves the latest ticket matching (phone, ticket number),
// for customers who did not keep the ticket link.
func (s *TicketService) TrackByNumber(ctx context.Context, phone, ticketNo string) (*TrackView, error) {
	list, err := s.tickets.ListByPhoneAndNo(ctx, strings.TrimSpace(phone), strings.TrimSpace(ticketNo), 1)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(list) == 0 {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return projectTrackView(&list[0]), nil
}

func projectTrackView(ticket *domain.Ticket) *TrackView {
	return &TrackView{
		TicketID:      ticket.ID,
		TicketNo:      ticket.TicketNo,
		Title:         ticket.Title,
		Category:      ticket.Category,
		CustomerName:  domain.MaskCustomerName(ticket.CustomerName),
		Address:       domain.MaskAddress(ticket.Address),
		Status:        ticket.Status.Canonical(),
		Description:   domain.TruncateDescription(ticket.DescriptionRaw, publicDescriptionMax),
		ScheduledSlot: ticket.Schedule.PendingSlotDisplay(),
		ProposedSlots: ticket.Schedule.ProposedTimeSlots,
		QuotedAmount:  ticket.QuotedAmount,
		QuoteNote:     ticket.QuoteNote,
		QuoteAwaiting: ticket.QuotedAmount != nil && ticket.QuoteConfirmedAt == nil,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
}

// load fetches a ticket plus its roster.
func (s *TicketService) load(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	assignees, err := s.assignments.ListByTicket(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Assignees = assignees
	return ticket, nil
}

// applyTransition runs the transition decision, writes the ticket guarded on
// its prior status, and records the audit entry. Forced decisions require a
// reason and are audited under their own change type.
func (s *TicketService) applyTransition(ctx context.Context, ticket *domain.Ticket, requested domain.TicketStatus, actor domain.Actor, reason string) error {
	prior := ticket.Status
	decision := domain.Decide(prior, requested, actor)
	if !decision.Allowed {
		return apperrors.NewIllegalTransition(decision.Reason)
	}
	if decision.Forced && len([]rune(strings.TrimSpace(reason))) < minReasonLength {
		return apperrors.NewValidationFailure("a forced status change requires a reason", nil)
	}

	ticket.Status = requested.Canonical()
	if err := s.tickets.UpdateGuarded(ctx, ticket, prior); err != nil {
		if err == repository.ErrStatusConflict {
			return apperrors.NewConflict("ticket was modified concurrently, reload and retry",
				map[string]any{"ticket_id": ticket.ID})
		}
		return apperrors.MapError(err)
	}

	changeType := domain.AuditStatusChange
	if decision.Forced {
		changeType = domain.AuditForcedStatusChange
	}
	s.recordAudit(ctx, ticket.ID, actor, changeType,
		map[string]any{"status": prior},
		map[string]any{"status": ticket.Status, "reason": strings.TrimSpace(reason)})
	return nil
}

// recordAudit appends an audit entry; audit write failures never abort the
// mutation that already committed.
func (s *TicketService) recordAudit(ctx context.Context, ticketID string, actor domain.Actor, changeType domain.AuditChangeType, oldVal, newVal map[string]any) {
	_ = s.audit.Append(ctx, &domain.TicketAuditEntry{
		TicketID:   ticketID,
		ActorRole:  actor.Role,
		ActorName:  actor.Name,
		ChangeType: changeType,
		OldValue:   oldVal,
		NewValue:   newVal,
	})
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, ticket *domain.Ticket, actor domain.Actor, payload interface{}) {
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		TicketNo:  ticket.TicketNo,
		Actor:     events.Actor{Role: actor.Role, ID: actor.ID, Name: actor.Name},
		Timestamp: s.now(),
		Payload:   payload,
	})
}
