package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/repairflow/workorder-service/internal/api/dto"
	"github.com/repairflow/workorder-service/internal/domain"
	"github.com/repairflow/workorder-service/internal/service"
	apperrors "github.com/repairflow/workorder-service/pkg/util"
)

// DispatchHandler serves dispatch, acceptance and scheduling operations on
// the staff surface.
type DispatchHandler struct {
	dispatch   *service.DispatchService
	scheduling *service.SchedulingService
}

// NewDispatchHandler constructs handler.
func NewDispatchHandler(dispatch *service.DispatchService, scheduling *service.SchedulingService) *DispatchHandler {
	return &DispatchHandler{dispatch: dispatch, scheduling: scheduling}
}

// Dispatch POST /staff/tickets/:id/dispatch.
func (h *DispatchHandler) Dispatch(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.dispatch.Dispatch(c.UserContext(), principal.Actor(), c.Params("id"), service.DispatchInput{
		TechnicianID: req.TechnicianID,
		OpenBid:      req.OpenBid,
		Message:      req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Accept POST /staff/tickets/:id/accept.
func (h *DispatchHandler) Accept(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.dispatch.Accept(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// CancelAcceptance POST /staff/tickets/:id/cancel-acceptance.
func (h *DispatchHandler) CancelAcceptance(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.dispatch.CancelAcceptance(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// SelectSlot POST /staff/tickets/:id/select-slot.
func (h *DispatchHandler) SelectSlot(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SelectSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.scheduling.SelectPreferredSlot(c.UserContext(), principal.Actor(), c.Params("id"), req.SlotIndex)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// ProposeSlots POST /staff/tickets/:id/propose-slots.
func (h *DispatchHandler) ProposeSlots(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ProposeSlotsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	proposed := make([]domain.ProposedSlot, 0, len(req.Slots))
	for _, slot := range req.Slots {
		proposed = append(proposed, domain.ProposedSlot{Date: slot.Date, Time: slot.Time})
	}
	ticket, err := h.scheduling.ProposeTimeSlots(c.UserContext(), principal.Actor(), c.Params("id"), proposed)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// ConfirmTime POST /staff/tickets/:id/confirm-time. Coordinator confirming
// on the customer's behalf; a reason is mandatory.
func (h *DispatchHandler) ConfirmTime(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ConfirmTimeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.scheduling.ConfirmTime(c.UserContext(), principal.Actor(), c.Params("id"), req.ProposalIndex, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Reschedule POST /staff/tickets/:id/reschedule.
func (h *DispatchHandler) Reschedule(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.scheduling.RequestReschedule(c.UserContext(), principal.Actor(), c.Params("id"), req.Reason, dto.ToDomainSlots(req.Slots))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// AddAssistant POST /staff/tickets/:id/assistants.
func (h *DispatchHandler) AddAssistant(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssistantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.dispatch.AddAssistant(c.UserContext(), principal.Actor(), c.Params("id"), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// RemoveAssistant DELETE /staff/tickets/:id/assistants/:userId.
func (h *DispatchHandler) RemoveAssistant(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.dispatch.RemoveAssistant(c.UserContext(), principal.Actor(), c.Params("id"), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// History GET /staff/tickets/:id/dispatches.
func (h *DispatchHandler) History(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	entries, err := h.dispatch.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.DispatchLogResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewDispatchLogResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
