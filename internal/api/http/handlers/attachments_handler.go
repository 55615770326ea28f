package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/repairflow/workorder-service/internal/api/dto"
	"github.com/repairflow/workorder-service/internal/service"
	apperrors "github.com/repairflow/workorder-service/pkg/util"
)

// AttachmentsHandler serves photo and document uploads on tickets.
type AttachmentsHandler struct {
	service *service.AttachmentService
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(attachmentService *service.AttachmentService) *AttachmentsHandler {
	return &AttachmentsHandler{service: attachmentService}
}

// Upload POST /staff/tickets/:id/attachments (multipart form, field "file").
func (h *AttachmentsHandler) Upload(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationFailure("a file field is required", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.MapError(err)
	}
	defer file.Close()

	attachment, err := h.service.Attach(c.UserContext(), c.Params("id"), c.FormValue("kind"), fileHeader.Filename, file)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.AttachmentResponse{
		ID:           attachment.ID,
		Kind:         attachment.Kind,
		OriginalName: attachment.OriginalName,
		CreatedAt:    attachment.CreatedAt,
	}})
}

// List GET /staff/tickets/:id/attachments.
func (h *AttachmentsHandler) List(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	attachments, err := h.service.List(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		items = append(items, dto.AttachmentResponse{
			ID:           a.ID,
			Kind:         a.Kind,
			OriginalName: a.OriginalName,
			CreatedAt:    a.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Download GET /staff/attachments/:id.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	attachment, reader, err := h.service.Open(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set("Content-Disposition", `attachment; filename="`+attachment.OriginalName+`"`)
	return c.SendStream(reader)
}
