package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/repairflow/workorder-service/internal/config"
	"github.com/repairflow/workorder-service/internal/domain"
	"github.com/repairflow/workorder-service/internal/events"
	"github.com/repairflow/workorder-service/internal/notify"
	"github.com/repairflow/workorder-service/internal/repository"
)

// NotificationService turns domain events into channel messages and places
// them on the redis outbox for the delivery worker. Everything here is
// fire-and-forget: an enqueue failure is logged and swallowed so the
// workflow mutation that triggered it stands.
type NotificationService struct {
	dispatcher  events.Dispatcher
	tickets     repository.TicketRepository
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	redis       *redis.Client
	logger      *zap.Logger
	cfg         config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, tickets repository.TicketRepository, users repository.UserRepository, assignments repository.AssignmentRepository, redisClient *redis.Client, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher:  dispatcher,
		tickets:     tickets,
		users:       users,
		assignments: assignments,
		redis:       redisClient,
		logger:      logger,
		cfg:         cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventInfoRequested, n.handleInfoRequested)
	n.dispatcher.Subscribe(events.EventInfoSubmitted, n.notifyCoordinators)
	n.dispatcher.Subscribe(events.EventTicketDispatched, n.handleDispatched)
	n.dispatcher.Subscribe(events.EventTicketAccepted, n.handleAccepted)
	n.dispatcher.Subscribe(events.EventTimeProposed, n.handleTimeProposed)
	n.dispatcher.Subscribe(events.EventTimeConfirmed, n.handleTimeConfirmed)
	n.dispatcher.Subscribe(events.EventRescheduled, n.notifyCoordinators)
	n.dispatcher.Subscribe(events.EventQuoteSubmitted, n.handleQuoteSubmitted)
	n.dispatcher.Subscribe(events.EventQuoteConfirmed, n.notifyCoordinators)
	n.dispatcher.Subscribe(events.EventTicketCompleted, n.handleCompleted)
	n.dispatcher.Subscribe(events.EventTicketCancelled, n.notifyCoordinators)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	text := fmt.Sprintf("Your repair request %s has been received. Track it at %s/%s",
		event.TicketNo, strings.TrimRight(n.cfg.TrackBaseURL, "/"), event.TicketID)
	n.pushToCustomer(ctx, event.TicketID, text)
	n.pushToRole(ctx, domain.RoleCoordinator,
		fmt.Sprintf("New ticket %s is awaiting review.", event.TicketNo))
	return nil
}

func (n *NotificationService) handleInfoRequested(ctx context.Context, event events.Event) error {
	text := fmt.Sprintf("We need more details on ticket %s before dispatching. Please reply via your ticket link.", event.TicketNo)
	n.pushToCustomer(ctx, event.TicketID, text)
	return nil
}

func (n *NotificationService) handleDispatched(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DispatchedPayload)
	if !ok {
		return nil
	}
	text := renderDispatchText(payload.Payload)
	for _, techID := range payload.TechnicianIDs {
		n.pushToUser(ctx, techID, text)
	}
	return nil
}

func (n *NotificationService) handleAccepted(ctx context.Context, event events.Event) error {
	text := fmt.Sprintf("A technician has taken your repair %s and will propose a visit time shortly.", event.TicketNo)
	n.pushToCustomer(ctx, event.TicketID, text)
	return nil
}

func (n *NotificationService) handleTimeProposed(ctx context.Context, event events.Event) error {
	slot := ""
	if payload, ok := event.Payload.(events.TimeNegotiationPayload); ok {
		slot = payload.Slot
	}
	text := fmt.Sprintf("A visit time has been proposed for repair %s: %s. Please confirm via your ticket link.", event.TicketNo, slot)
	n.pushToCustomer(ctx, event.TicketID, text)
	return nil
}

func (n *NotificationService) handleTimeConfirmed(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TimeNegotiationPayload)
	n.pushToCustomer(ctx, event.TicketID,
		fmt.Sprintf("Your visit for repair %s is confirmed: %s.", event.TicketNo, payload.Slot))
	n.pushToPrimaryTechnician(ctx, event.TicketID,
		fmt.Sprintf("Visit confirmed for %s: %s.", event.TicketNo, payload.Slot))
	return nil
}

func (n *NotificationService) handleQuoteSubmitted(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.QuotePayload)
	text := fmt.Sprintf("A quote of %d has been submitted for repair %s. Please confirm via your ticket link.", payload.Amount, event.TicketNo)
	n.pushToCustomer(ctx, event.TicketID, text)
	return nil
}

func (n *NotificationService) handleCompleted(ctx context.Context, event events.Event) error {
	n.pushToCustomer(ctx, event.TicketID,
		fmt.Sprintf("Repair %s is finished. Thank you!", event.TicketNo))
	n.pushToRole(ctx, domain.RoleCoordinator,
		fmt.Sprintf("Ticket %s has been completed and awaits closing.", event.TicketNo))
	return nil
}

func (n *NotificationService) notifyCoordinators(ctx context.Context, event events.Event) error {
	n.pushToRole(ctx, domain.RoleCoordinator,
		fmt.Sprintf("Ticket %s: %s.", event.TicketNo, strings.ReplaceAll(string(event.Type), "_", " ")))
	return nil
}

// ReminderFor renders the day-before visit reminder used by the sweep.
func ReminderFor(ticket *domain.Ticket) string {
	return fmt.Sprintf("Reminder: your repair visit for %s is scheduled tomorrow, %s.",
		ticket.TicketNo, ticket.Schedule.PendingSlotDisplay())
}

// Enqueue places one message on the outbox. Exposed for the reminder sweep.
func (n *NotificationService) Enqueue(ctx context.Context, msg notify.Message) {
	if msg.To == "" || msg.Text == "" {
		return
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error("marshal notification", zap.Error(err))
		return
	}
	if err := n.redis.LPush(ctx, n.cfg.OutboxKey, raw).Err(); err != nil {
		n.logger.Warn("enqueue notification failed",
			zap.String("to", msg.To), zap.Error(err))
	}
}

func (n *NotificationService) pushToCustomer(ctx context.Context, ticketID, text string) {
	ticket, err := n.tickets.GetByID(ctx, ticketID)
	if err != nil {
		n.logger.Warn("notification: load ticket failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return
	}
	if ticket.CustomerChannelID == "" {
		return
	}
	n.Enqueue(ctx, notify.Message{To: ticket.CustomerChannelID, Text: text})
}

func (n *NotificationService) pushToUser(ctx context.Context, userID, text string) {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("notification: load user failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if user.ChannelUserID == "" {
		return
	}
	n.Enqueue(ctx, notify.Message{To: user.ChannelUserID, Text: text})
}

func (n *NotificationService) pushToRole(ctx context.Context, role domain.Role, text string) {
	users, err := n.users.ListActiveByRole(ctx, role)
	if err != nil {
		n.logger.Warn("notification: list users failed", zap.String("role", string(role)), zap.Error(err))
		return
	}
	for _, user := range users {
		if user.ChannelUserID == "" {
			continue
		}
		n.Enqueue(ctx, notify.Message{To: user.ChannelUserID, Text: text})
	}
}

func (n *NotificationService) pushToPrimaryTechnician(ctx context.Context, ticketID, text string) {
	assignees, err := n.assignments.ListByTicket(ctx, ticketID)
	if err != nil {
		n.logger.Warn("notification: load roster failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return
	}
	for _, a := range assignees {
		if a.Role == domain.AssignmentRolePrimary {
			n.pushToUser(ctx, a.UserID, text)
			return
		}
	}
}

func renderDispatchText(payload domain.DispatchPayload) string {
	var b strings.Builder
	if payload.IsUrgent {
		b.WriteString("[URGENT] ")
	}
	fmt.Fprintf(&b, "Job %s (%s)\n", payload.TicketNo, payload.Category)
	fmt.Fprintf(&b, "Customer: %s %s\n", payload.CustomerName, payload.Phone)
	fmt.Fprintf(&b, "Address: %s\n", payload.Address)
	if payload.ScheduledSlot != "" {
		fmt.Fprintf(&b, "Requested time: %s\n", payload.ScheduledSlot)
	}
	if payload.Description != "" {
		fmt.Fprintf(&b, "Issue: %s\n", payload.Description)
	}
	if payload.Message != "" {
		fmt.Fprintf(&b, "Note: %s\n", payload.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}
