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

// SchedulingService runs the visit-time negotiation: technicians pick one of
// the customer's preferred slots or counter-propose, the customer (or a
// coordinator on their behalf) confirms, and either side may request a
// bounded number of reschedules.
type SchedulingService struct {
	tickets     repository.TicketRepository
	assignments repository.AssignmentRepository
	audit       repository.AuditRepository
	dispatcher  events.Dispatcher
	now         func() time.Time
}

// NewSchedulingService constructs the service.
func NewSchedulingService(tickets repository.TicketRepository, assignments repository.AssignmentRepository, audit repository.AuditRepository, dispatcher events.Dispatcher, now func() time.Time) *SchedulingService {
	if now == nil {
		now = time.Now
	}
	return &SchedulingService{
		tickets:     tickets,
		assignments: assignments,
		audit:       audit,
		dispatcher:  dispatcher,
		now:         now,
	}
}

// SelectPreferredSlot picks one of the customer's preferred slots by index
// and moves the ticket to time_proposed. On an open-bid dispatch the first
// technician to select also claims the primary assignment; losing that race
// is reported as a conflict, not an error page.
func (s *SchedulingService) SelectPreferredSlot(ctx context.Context, actor domain.Actor, ticketID string, slotIndex int) (*domain.Ticket, error) {
	if !actor.Can(domain.CapProposeTime) {
		return nil, apperrors.NewAuthorityViolation("actor may not select visit slots")
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if slotIndex < 0 || slotIndex >= len(ticket.Schedule.CustomerPreferredSlots) {
		return nil, apperrors.NewValidationFailure("slot index out of range",
			map[string]any{"index": slotIndex, "slots": len(ticket.Schedule.CustomerPreferredSlots)})
	}
	if err := s.claimOrVerifyPrimary(ctx, ticket, actor); err != nil {
		return nil, err
	}

	slot := ticket.Schedule.CustomerPreferredSlots[slotIndex]
	ticket.Schedule.WorkerSelectedSlot = &domain.SelectedSlot{
		Slot:       slot,
		SelectedBy: actor.Name,
		SelectedAt: s.now(),
	}
	ticket.Schedule.ProposedTimeSlots = nil

	if err := s.transition(ctx, ticket, domain.TicketStatusTimeProposed, actor); err != nil {
		return nil, err
	}
	s.recordSchedule(ctx, ticket.ID, actor, map[string]any{"selected_slot": slot.String()})
	s.publish(ctx, events.EventTimeProposed, ticket, actor, events.TimeNegotiationPayload{
		Slot: slot.String(),
	})
	return ticket, nil
}

// ProposeTimeSlots counter-proposes technician-authored slots when none of
// the customer's preferences work. Same transition and racing rules as
// SelectPreferredSlot.
func (s *SchedulingService) ProposeTimeSlots(ctx context.Context, actor domain.Actor, ticketID string, slots []domain.ProposedSlot) (*domain.Ticket, error) {
	if !actor.Can(domain.CapProposeTime) {
		return nil, apperrors.NewAuthorityViolation("actor may not propose visit slots")
	}
	if len(slots) == 0 || len(slots) > domain.MaxPreferredSlots {
		return nil, apperrors.NewValidationFailure("between 1 and 3 proposed slots are required", nil)
	}
	for _, slot := range slots {
		if strings.TrimSpace(slot.Date) == "" || strings.TrimSpace(slot.Time) == "" {
			return nil, apperrors.NewValidationFailure("each proposed slot needs a date and a time range", nil)
		}
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.claimOrVerifyPrimary(ctx, ticket, actor); err != nil {
		return nil, err
	}

	ticket.Schedule.WorkerSelectedSlot = nil
	ticket.Schedule.ProposedTimeSlots = slots

	if err := s.transition(ctx, ticket, domain.TicketStatusTimeProposed, actor); err != nil {
		return nil, err
	}
	s.recordSchedule(ctx, ticket.ID, actor, map[string]any{"proposed_slots": len(slots)})
	s.publish(ctx, events.EventTimeProposed, ticket, actor, events.TimeNegotiationPayload{
		Slot: slots[0].String(),
	})
	return ticket, nil
}

// ConfirmTime accepts the slot on the table and moves the ticket to
// in_progress. Customers confirm their own visit; a coordinator confirming
// on the customer's behalf must always record why.
func (s *SchedulingService) ConfirmTime(ctx context.Context, actor domain.Actor, ticketID string, proposalIndex *int, reason string) (*domain.Ticket, error) {
	if !actor.Can(domain.CapConfirmTime) {
		return nil, apperrors.NewAuthorityViolation("actor may not confirm visit times")
	}
	reason = strings.TrimSpace(reason)
	if actor.Role == domain.RoleCoordinator && len([]rune(reason)) < minReasonLength {
		return nil, apperrors.NewValidationFailure("confirming on the customer's behalf requires a reason", nil)
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	var confirmed string
	switch {
	case ticket.Schedule.WorkerSelectedSlot != nil:
		confirmed = ticket.Schedule.WorkerSelectedSlot.Slot.String()
	case len(ticket.Schedule.ProposedTimeSlots) > 0:
		idx := 0
		if proposalIndex != nil {
			idx = *proposalIndex
		}
		if idx < 0 || idx >= len(ticket.Schedule.ProposedTimeSlots) {
			return nil, apperrors.NewValidationFailure("proposal index out of range",
				map[string]any{"index": idx, "slots": len(ticket.Schedule.ProposedTimeSlots)})
		}
		confirmed = ticket.Schedule.ProposedTimeSlots[idx].String()
	default:
		return nil, apperrors.NewValidationFailure("no slot is awaiting confirmation", nil)
	}

	confirmedAt := s.now()
	ticket.Schedule.ConfirmedSlot = confirmed
	ticket.Schedule.ConfirmedBy = actor.Name
	ticket.Schedule.ConfirmReason = reason
	ticket.Schedule.TimeConfirmedAt = &confirmedAt

	if err := s.transition(ctx, ticket, domain.TicketStatusInProgress, actor); err != nil {
		return nil, err
	}
	s.recordSchedule(ctx, ticket.ID, actor, map[string]any{"confirmed_slot": confirmed, "reason": reason})
	s.publish(ctx, events.EventTimeConfirmed, ticket, actor, events.TimeNegotiationPayload{
		Slot: confirmed, ConfirmedBy: actor.Name, ConfirmReason: reason,
	})
	return ticket, nil
}

// RequestReschedule reopens the negotiation with fresh customer slots. Each
// round appends to the history; after MaxRescheduleRounds further requests
// are rejected for every actor, and recovery goes through a coordinator
// forced status change instead.
func (s *SchedulingService) RequestReschedule(ctx context.Context, actor domain.Actor, ticketID, reason string, newSlots []domain.PreferredSlot) (*domain.Ticket, error) {
	if !actor.Can(domain.CapReschedule) {
		return nil, apperrors.NewAuthorityViolation("actor may not request a reschedule")
	}
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minReasonLength {
		return nil, apperrors.NewValidationFailure("a reschedule reason of at least 5 characters is required", nil)
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Schedule.RescheduleCount >= domain.MaxRescheduleRounds {
		return nil, apperrors.NewValidationFailure("reschedule limit reached",
			map[string]any{"rounds": ticket.Schedule.RescheduleCount})
	}

	filtered := domain.FilterPreferredSlots(newSlots, s.now())
	priorSlot := ticket.Schedule.PendingSlotDisplay()

	ticket.Schedule.RescheduleHistory = append(ticket.Schedule.RescheduleHistory, domain.RescheduleRound{
		Initiator: actor.Role,
		Name:      actor.Name,
		Reason:    reason,
		PriorSlot: priorSlot,
		NewSlots:  filtered,
		At:        s.now(),
	})
	ticket.Schedule.RescheduleCount++
	ticket.Schedule.ClearNegotiation()
	if len(filtered) > 0 {
		ticket.Schedule.CustomerPreferredSlots = filtered
	}

	if err := s.transition(ctx, ticket, domain.TicketStatusReschedule, actor); err != nil {
		return nil, err
	}
	s.recordSchedule(ctx, ticket.ID, actor, map[string]any{
		"reason": reason, "round": ticket.Schedule.RescheduleCount, "prior_slot": priorSlot,
	})
	s.publish(ctx, events.EventRescheduled, ticket, actor, events.TimeNegotiationPayload{
		Slot: priorSlot, Round: ticket.Schedule.RescheduleCount,
	})
	return ticket, nil
}

// AvailablePeriods exposes the server-side period filter so clients can
// render only offerable buckets for a candidate date.
func (s *SchedulingService) AvailablePeriods(date string) []domain.Period {
	return domain.AvailablePeriods(date, s.now())
}

// claimOrVerifyPrimary enforces primary-only slot authoring. An unassigned
// ticket (open-bid dispatch) lets the caller claim primary atomically; when
// a primary exists it must be the caller.
func (s *SchedulingService) claimOrVerifyPrimary(ctx context.Context, ticket *domain.Ticket, actor domain.Actor) error {
	if ticket.PrimaryAssignee() != nil {
		if !ticket.IsPrimary(actor.ID) {
			return apperrors.NewAuthorityViolation("only the primary technician may schedule the visit")
		}
		return nil
	}
	won, err := s.assignments.SetPrimaryIfUnassigned(ctx, ticket.ID, actor.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !won {
		return apperrors.NewConflict("another technician already took this ticket",
			map[string]any{"ticket_id": ticket.ID})
	}
	assignees, err := s.assignments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	ticket.Assignees = assignees
	return nil
}

func (s *SchedulingService) load(ctx context.Context, id string) (*domain.Ticket, error) {
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

func (s *SchedulingService) transition(ctx context.Context, ticket *domain.Ticket, requested domain.TicketStatus, actor domain.Actor) error {
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

func (s *SchedulingService) recordSchedule(ctx context.Context, ticketID string, actor domain.Actor, newVal map[string]any) {
	_ = s.audit.Append(ctx, &domain.TicketAuditEntry{
		TicketID:   ticketID,
		ActorRole:  actor.Role,
		ActorName:  actor.Name,
		ChangeType: domain.AuditScheduleChange,
		NewValue:   newVal,
	})
}

func (s *SchedulingService) publish(ctx context.Context, eventType events.EventType, ticket *domain.Ticket, actor domain.Actor, payload interface{}) {
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
