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

// DispatchService sends tickets to field technicians. Targeted dispatch
// assigns a primary up front; open-bid dispatch notifies a pool and lets the
// first technician to act claim the ticket.
type DispatchService struct {
	tickets      repository.TicketRepository
	assignments  repository.AssignmentRepository
	users        repository.UserRepository
	dispatchLogs repository.DispatchLogRepository
	audit        repository.AuditRepository
	dispatcher   events.Dispatcher
	now          func() time.Time
}

// DispatchDependencies bundles collaborators for the dispatch service.
type DispatchDependencies struct {
	TicketRepo      repository.TicketRepository
	AssignmentRepo  repository.AssignmentRepository
	UserRepo        repository.UserRepository
	DispatchLogRepo repository.DispatchLogRepository
	AuditRepo       repository.AuditRepository
	Dispatcher      events.Dispatcher
	Now             func() time.Time
}

// NewDispatchService constructs the service.
func NewDispatchService(deps DispatchDependencies) *DispatchService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &DispatchService{
		tickets:      deps.TicketRepo,
		assignments:  deps.AssignmentRepo,
		users:        deps.UserRepo,
		dispatchLogs: deps.DispatchLogRepo,
		audit:        deps.AuditRepo,
		dispatcher:   deps.Dispatcher,
		now:          now,
	}
}

// DispatchInput selects the recipients. Exactly one of TechnicianID or
// OpenBid must be set; OpenBid targets every active technician.
type DispatchInput struct {
	TechnicianID string
	OpenBid      bool
	Message      string
}

// Dispatch sends the ticket to field staff and moves it to dispatched. A
// dispatched ticket may be dispatched again to hand it to someone else. The
// exact payload sent is snapshotted into the append-only dispatch log.
func (s *DispatchService) Dispatch(ctx context.Context, actor domain.Actor, ticketID string, input DispatchInput) (*domain.Ticket, error) {
	if !actor.Can(domain.CapDispatch) {
		return nil, apperrors.NewAuthorityViolation("actor may not dispatch tickets")
	}
	if input.OpenBid == (input.TechnicianID != "") {
		return nil, apperrors.NewValidationFailure("dispatch targets exactly one technician or an open bid", nil)
	}

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	var technicianIDs []string
	if input.OpenBid {
		pool, err := s.users.ListActiveByRole(ctx, domain.RoleTechnician)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if len(pool) == 0 {
			return nil, apperrors.NewValidationFailure("no active technicians to dispatch to", nil)
		}
		for _, tech := range pool {
			technicianIDs = append(technicianIDs, tech.ID)
		}
	} else {
		tech, err := s.users.GetByID(ctx, input.TechnicianID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if tech.Role != domain.RoleTechnician || !tech.Active {
			return nil, apperrors.NewValidationFailure("dispatch target must be an active technician", nil)
		}
		technicianIDs = []string{tech.ID}
	}

	payload := BuildDispatchPayload(ticket, input.Message)

	// Re-dispatching an already-dispatched ticket replaces the assignment
	// without a state transition; the dispatch log still gets a new entry.
	if ticket.Status.Canonical() != domain.TicketStatusDispatched {
		if err := s.transition(ctx, ticket, domain.TicketStatusDispatched, actor); err != nil {
			return nil, err
		}
	}

	if !input.OpenBid {
		if err := s.assignments.ReplacePrimary(ctx, ticket.ID, technicianIDs[0]); err != nil {
			return nil, apperrors.MapError(err)
		}
		s.recordAssignment(ctx, ticket.ID, actor, map[string]any{"primary": technicianIDs[0]})
	}

	entry := &domain.DispatchLogEntry{
		TicketID:         ticket.ID,
		DispatcherUserID: actor.ID,
		TechnicianIDs:    technicianIDs,
		OpenBid:          input.OpenBid,
		PayloadSnapshot:  payload,
	}
	if err := s.dispatchLogs.Append(ctx, entry); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventTicketDispatched, ticket, actor, events.DispatchedPayload{
		Payload:       payload,
		TechnicianIDs: technicianIDs,
		OpenBid:       input.OpenBid,
	})
	return s.load(ctx, ticket.ID)
}

// Accept lets a technician take a dispatched ticket. The acceptor must have
// a phone number on file so the customer can be called back; on an open bid
// the first acceptance wins and later ones get a conflict.
func (s *DispatchService) Accept(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	if !actor.Can(domain.CapAcceptTicket) {
		return nil, apperrors.NewAuthorityViolation("actor may not accept tickets")
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if strings.TrimSpace(user.Phone) == "" {
		return nil, apperrors.NewValidationFailure("a contact phone number is required before accepting tickets", nil)
	}

	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Canonical() != domain.TicketStatusDispatched {
		return nil, apperrors.NewValidationFailure("only dispatched tickets can be accepted", nil)
	}

	if primary := ticket.PrimaryAssignee(); primary != nil {
		if primary.UserID != actor.ID {
			return nil, apperrors.NewConflict("another technician already took this ticket",
				map[string]any{"ticket_id": ticket.ID})
		}
	} else {
		won, err := s.assignments.SetPrimaryIfUnassigned(ctx, ticket.ID, actor.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !won {
			return nil, apperrors.NewConflict("another technician already took this ticket",
				map[string]any{"ticket_id": ticket.ID})
		}
	}

	acceptedAt := s.now()
	ticket.AcceptedAt = &acceptedAt
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordAssignment(ctx, ticket.ID, actor, map[string]any{"accepted_by": actor.ID})
	s.publish(ctx, events.EventTicketAccepted, ticket, actor, nil)
	return s.load(ctx, ticket.ID)
}

// CancelAcceptance lets the primary technician withdraw before work starts.
// The roster is cleared and the ticket returns to the dispatch pool.
func (s *DispatchService) CancelAcceptance(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsPrimary(actor.ID) {
		return nil, apperrors.NewAuthorityViolation("only the primary technician may withdraw")
	}
	switch ticket.Status.Canonical() {
	case domain.TicketStatusDispatched, domain.TicketStatusTimeProposed:
	default:
		return nil, apperrors.NewValidationFailure("acceptance can only be withdrawn before work starts", nil)
	}

	if ticket.Status.Canonical() == domain.TicketStatusTimeProposed {
		ticket.Schedule.ClearNegotiation()
		if err := s.transition(ctx, ticket, domain.TicketStatusDispatched, actor); err != nil {
			return nil, err
		}
	}
	ticket.AcceptedAt = nil
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.assignments.Clear(ctx, ticket.ID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordAssignment(ctx, ticket.ID, actor, map[string]any{"withdrawn_by": actor.ID})
	return s.load(ctx, ticket.ID)
}

// AddAssistant lets the primary technician bring a helper onto an active
// ticket. Assistants never author schedule slots or quotes.
func (s *DispatchService) AddAssistant(ctx context.Context, actor domain.Actor, ticketID, userID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsPrimary(actor.ID) {
		return nil, apperrors.NewAuthorityViolation("only the primary technician may manage assistants")
	}
	if !ticket.Status.IsActive() {
		return nil, apperrors.NewValidationFailure("assistants can only be managed on active tickets", nil)
	}
	if ticket.IsAssigned(userID) {
		return nil, apperrors.NewValidationFailure("user already holds a role on this ticket", nil)
	}
	helper, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if helper.Role != domain.RoleTechnician || !helper.Active {
		return nil, apperrors.NewValidationFailure("assistants must be active technicians", nil)
	}

	if err := s.assignments.AddAssistant(ctx, ticket.ID, userID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordAssignment(ctx, ticket.ID, actor, map[string]any{"assistant_added": userID})
	return s.load(ctx, ticket.ID)
}

// RemoveAssistant drops a helper from the roster.
func (s *DispatchService) RemoveAssistant(ctx context.Context, actor domain.Actor, ticketID, userID string) (*domain.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsPrimary(actor.ID) {
		return nil, apperrors.NewAuthorityViolation("only the primary technician may manage assistants")
	}
	if !ticket.Status.IsActive() {
		return nil, apperrors.NewValidationFailure("assistants can only be managed on active tickets", nil)
	}
	if ticket.IsPrimary(userID) {
		return nil, apperrors.NewValidationFailure("the primary technician cannot be removed this way", nil)
	}
	if err := s.assignments.Remove(ctx, ticket.ID, userID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recordAssignment(ctx, ticket.ID, actor, map[string]any{"assistant_removed": userID})
	return s.load(ctx, ticket.ID)
}

// History returns the dispatch log for a ticket.
func (s *DispatchService) History(ctx context.Context, ticketID string) ([]domain.DispatchLogEntry, error) {
	list, err := s.dispatchLogs.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// BuildDispatchPayload assembles the minimal-disclosure content field staff
// receive: the customer name reduced to a salutation, full phone and address
// because the visit needs them, and never the internal notes.
func BuildDispatchPayload(ticket *domain.Ticket, message string) domain.DispatchPayload {
	description := ticket.DescriptionSummary
	if description == "" {
		description = domain.TruncateDescription(ticket.DescriptionRaw, publicDescriptionMax)
	}
	return domain.DispatchPayload{
		TicketNo:      ticket.TicketNo,
		Category:      ticket.Category,
		CustomerName:  domain.MaskCustomerName(ticket.CustomerName),
		Phone:         ticket.Phone,
		Address:       ticket.Address,
		ScheduledSlot: ticket.Schedule.PendingSlotDisplay(),
		Description:   description,
		IsUrgent:      ticket.IsUrgent,
		Message:       strings.TrimSpace(message),
	}
}

func (s *DispatchService) load(ctx context.Context, id string) (*domain.Ticket, error) {
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

func (s *DispatchService) transition(ctx context.Context, ticket *domain.Ticket, requested domain.TicketStatus, actor domain.Actor) error {
	prior := ticket.Status
	decision := domain.Decide(prior, requested, actor)
	if !decision.Allowed {
		return apperrors.NewIllegalTransition(decision.Reason)
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
	_ = s.audit.Append(ctx, &domain.TicketAuditEntry{
		TicketID:   ticket.ID,
		ActorRole:  actor.Role,
		ActorName:  actor.Name,
		ChangeType: changeType,
		OldValue:   map[string]any{"status": prior},
		NewValue:   map[string]any{"status": ticket.Status},
	})
	return nil
}

func (s *DispatchService) recordAssignment(ctx context.Context, ticketID string, actor domain.Actor, change map[string]any) {
	_ = s.audit.Append(ctx, &domain.TicketAuditEntry{
		TicketID:   ticketID,
		ActorRole:  actor.Role,
		ActorName:  actor.Name,
		ChangeType: domain.AuditAssignmentChange,
		NewValue:   change,
	})
}

func (s *DispatchService) publish(ctx context.Context, eventType events.EventType, ticket *domain.Ticket, actor domain.Actor, payload interface{}) {
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
