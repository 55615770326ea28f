package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/repairflow/workorder-service/internal/api/dto"
	"github.com/repairflow/workorder-service/internal/domain"
	"github.com/repairflow/workorder-service/internal/service"
	apperrors "github.com/repairflow/workorder-service/pkg/util"
)

// PublicHandler serves the unauthenticated customer surface: intake and the
// identity-scoped track endpoints. Identity on every track route is the
// triple (ticket id, phone, ticket number); any mismatch reads as not found.
type PublicHandler struct {
	tickets    *service.TicketService
	scheduling *service.SchedulingService
}

// NewPublicHandler constructs handler.
func NewPublicHandler(tickets *service.TicketService, scheduling *service.SchedulingService) *PublicHandler {
	return &PublicHandler{tickets: tickets, scheduling: scheduling}
}

// CreateTicket POST /public/tickets.
func (h *PublicHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.IntakeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	actor := domain.CustomerActor(req.CustomerName, req.Phone)
	ticket, err := h.tickets.Intake(c.UserContext(), actor, service.IntakeInput{
		Title:             req.Title,
		Category:          req.Category,
		CustomerName:      req.CustomerName,
		Phone:             req.Phone,
		Address:           req.Address,
		CustomerChannelID: req.ChannelUserID,
		Description:       req.Description,
		IsUrgent:          req.IsUrgent,
		PreferredSlots:    dto.ToDomainSlots(req.PreferredSlots),
		Channel:           domain.ChannelWeb,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"ticket_id": ticket.ID,
		"ticket_no": ticket.TicketNo,
	}})
}

// AvailablePeriods GET /public/periods?date=YYYY-MM-DD.
func (h *PublicHandler) AvailablePeriods(c *fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		return apperrors.NewValidationFailure("date query parameter is required", nil)
	}
	periods := h.scheduling.AvailablePeriods(date)
	options := make([]dto.PeriodOption, 0, len(periods))
	for _, p := range periods {
		options = append(options, dto.PeriodOption{Period: string(p), Label: p.Label()})
	}
	return c.JSON(fiber.Map{"data": options})
}

// Track GET /public/track/:id?phone=...&ticket_no=...
func (h *PublicHandler) Track(c *fiber.Ctx) error {
	view, err := h.tickets.Track(c.UserContext(), c.Params("id"), c.Query("phone"), c.Query("ticket_no"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTrackResponse(view)})
}

// TrackByNumber GET /public/track?phone=...&ticket_no=...
func (h *PublicHandler) TrackByNumber(c *fiber.Ctx) error {
	view, err := h.tickets.TrackByNumber(c.UserContext(), c.Query("phone"), c.Query("ticket_no"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTrackResponse(view)})
}

// trackIdentity carries the proof-of-identity fields every public mutation
// must present alongside its payload.
type trackIdentity struct {
	Phone    string `json:"phone" validate:"required"`
	TicketNo string `json:"ticket_no" validate:"required"`
}

// resolve verifies the identity triple and returns the customer actor.
func (h *PublicHandler) resolve(c *fiber.Ctx, identity trackIdentity) (domain.Actor, error) {
	if err := dto.Validate(identity); err != nil {
		return domain.Actor{}, err
	}
	if _, err := h.tickets.Track(c.UserContext(), c.Params("id"), identity.Phone, identity.TicketNo); err != nil {
		return domain.Actor{}, err
	}
	return domain.CustomerActor("", identity.Phone), nil
}

// Supplement POST /public/track/:id/supplement.
func (h *PublicHandler) Supplement(c *fiber.Ctx) error {
	var req struct {
		trackIdentity
		Note string `json:"note" validate:"required,max=4000"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	actor, err := h.resolve(c, req.trackIdentity)
	if err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.tickets.Supplement(c.UserContext(), actor, c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": ticket.Status}})
}

// ConfirmTime POST /public/track/:id/confirm-time.
func (h *PublicHandler) ConfirmTime(c *fiber.Ctx) error {
	var req struct {
		trackIdentity
		ProposalIndex *int `json:"proposal_index" validate:"omitempty,gte=0,lte=2"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	actor, err := h.resolve(c, req.trackIdentity)
	if err != nil {
		return err
	}
	ticket, err := h.scheduling.ConfirmTime(c.UserContext(), actor, c.Params("id"), req.ProposalIndex, "")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"status":         ticket.Status,
		"confirmed_slot": ticket.Schedule.ConfirmedSlot,
	}})
}

// Reschedule POST /public/track/:id/reschedule.
func (h *PublicHandler) Reschedule(c *fiber.Ctx) error {
	var req struct {
		trackIdentity
		Reason string                     `json:"reason" validate:"required,min=5,max=1000"`
		Slots  []dto.PreferredSlotPayload `json:"slots" validate:"max=3,dive"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	actor, err := h.resolve(c, req.trackIdentity)
	if err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.scheduling.RequestReschedule(c.UserContext(), actor, c.Params("id"), req.Reason, dto.ToDomainSlots(req.Slots))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"status":           ticket.Status,
		"reschedule_count": ticket.Schedule.RescheduleCount,
	}})
}

// ConfirmQuote POST /public/track/:id/confirm-quote.
func (h *PublicHandler) ConfirmQuote(c *fiber.Ctx) error {
	var req trackIdentity
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	actor, err := h.resolve(c, req)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.ConfirmQuote(c.UserContext(), actor, c.Params("id"), "")
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"quote_confirmed_at": ticket.QuoteConfirmedAt}})
}

// Cancel POST /public/track/:id/cancel.
func (h *PublicHandler) Cancel(c *fiber.Ctx) error {
	var req struct {
		trackIdentity
		Reason string `json:"reason" validate:"required,min=5,max=1000"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	actor, err := h.resolve(c, req.trackIdentity)
	if err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.tickets.Cancel(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": ticket.Status}})
}
