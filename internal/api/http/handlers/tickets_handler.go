package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/repairflow/workorder-service/internal/api/dto"
	"github.com/repairflow/workorder-service/internal/auth"
	"github.com/repairflow/workorder-service/internal/domain"
	"github.com/repairflow/workorder-service/internal/repository"
	"github.com/repairflow/workorder-service/internal/service"
	apperrors "github.com/repairflow/workorder-service/pkg/util"
)

// TicketsHandler serves the staff console: listing, detail, intake on
// behalf of a caller, and every lifecycle mutation outside scheduling and
// dispatch.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

// List GET /staff/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	filter := repository.TicketFilter{
		Search: c.Query("search"),
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status := domain.TicketStatus(raw)
		if !domain.IsKnownStatus(status) {
			return apperrors.NewValidationFailure("unknown status filter", map[string]any{"status": raw})
		}
		filter.Status = &status
	}

	tickets, err := h.service.List(c.UserContext(), principal.Actor(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /staff/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Create POST /staff/tickets. Coordinator intake on a customer's behalf.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StaffIntakeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.Intake(c.UserContext(), principal.Actor(), service.IntakeInput{
		Title:             req.Title,
		Category:          req.Category,
		CustomerName:      req.CustomerName,
		Phone:             req.Phone,
		Address:           req.Address,
		CustomerChannelID: req.ChannelUserID,
		Description:       req.Description,
		Priority:          req.Priority,
		IsUrgent:          req.IsUrgent,
		PreferredSlots:    dto.ToDomainSlots(req.PreferredSlots),
		Channel:           domain.ChannelStaff,
		NotesInternal:     req.NotesInternal,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// RequestInfo POST /staff/tickets/:id/request-info.
func (h *TicketsHandler) RequestInfo(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RequestInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.service.RequestInfo(c.UserContext(), principal.Actor(), c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// ChangeStatus POST /staff/tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.service.ChangeStatus(c.UserContext(), principal.Actor(), c.Params("id"), req.Status, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// UpdateContact PATCH /staff/tickets/:id/contact.
func (h *TicketsHandler) UpdateContact(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ContactUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.service.UpdateContact(c.UserContext(), principal.Actor(), c.Params("id"), service.ContactUpdateInput{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Address:      req.Address,
		Title:        req.Title,
		Description:  req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// UpdateInternal PATCH /staff/tickets/:id/internal.
func (h *TicketsHandler) UpdateInternal(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.InternalUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.service.UpdateInternal(c.UserContext(), principal.Actor(), c.Params("id"), service.InternalUpdateInput{
		NotesInternal:      req.NotesInternal,
		DescriptionSummary: req.DescriptionSummary,
		Category:           req.Category,
		Priority:           req.Priority,
		IsUrgent:           req.IsUrgent,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Cancel POST /staff/tickets/:id/cancel.
func (h *TicketsHandler) Cancel(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CancelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.service.Cancel(c.UserContext(), principal.Actor(), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Reopen POST /staff/tickets/:id/reopen.
func (h *TicketsHandler) Reopen(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Reopen(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// SubmitQuote POST /staff/tickets/:id/quote.
func (h *TicketsHandler) SubmitQuote(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.QuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.service.SubmitQuote(c.UserContext(), principal.Actor(), c.Params("id"), req.Amount, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// ConfirmQuote POST /staff/tickets/:id/confirm-quote. Coordinator acting on
// the customer's behalf; a reason is mandatory.
func (h *TicketsHandler) ConfirmQuote(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ConfirmQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	ticket, err := h.service.ConfirmQuote(c.UserContext(), principal.Actor(), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Complete POST /staff/tickets/:id/complete.
func (h *TicketsHandler) Complete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	ticket, err := h.service.Complete(c.UserContext(), principal.Actor(), c.Params("id"), req.ActualAmount, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// Close POST /staff/tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Close(c.UserContext(), principal.Actor(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket)})
}

// AddComment POST /staff/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationFailure("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), principal.Actor(), c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.CommentResponse{
		ID:        comment.ID,
		Author:    comment.Author,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}})
}

// ListComments GET /staff/tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	comments, err := h.service.Comments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		items = append(items, dto.CommentResponse{
			ID:        comment.ID,
			Author:    comment.Author,
			Body:      comment.Body,
			CreatedAt: comment.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// AuditTrail GET /staff/tickets/:id/audit.
func (h *TicketsHandler) AuditTrail(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	entries, err := h.service.AuditTrail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.AuditEntryResponse{
			ID:         entry.ID,
			ActorRole:  entry.ActorRole,
			ActorName:  entry.ActorName,
			ChangeType: string(entry.ChangeType),
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
