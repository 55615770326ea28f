package service

import (
	"context"
	"io"

	"github.com/repairflow/workorder-service/internal/domain"
	"github.com/repairflow/workorder-service/internal/repository"
	"github.com/repairflow/workorder-service/internal/storage"
	apperrors "github.com/repairflow/workorder-service/pkg/util"
)

// AttachmentService stores photos and documents attached to tickets.
type AttachmentService struct {
	tickets     repository.TicketRepository
	attachments repository.AttachmentRepository
	store       storage.AttachmentStore
}

// NewAttachmentService constructs the service.
func NewAttachmentService(tickets repository.TicketRepository, attachments repository.AttachmentRepository, store storage.AttachmentStore) *AttachmentService {
	return &AttachmentService{tickets: tickets, attachments: attachments, store: store}
}

// Attach saves the blob and records its metadata against the ticket.
func (s *AttachmentService) Attach(ctx context.Context, ticketID, kind, originalName string, reader io.Reader) (*domain.Attachment, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, apperrors.MapError(err)
	}
	if kind == "" {
		kind = "photo"
	}
	key, err := s.store.Save(reader, originalName)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	attachment := &domain.Attachment{
		TicketID:     ticketID,
		StorageKey:   key,
		Kind:         kind,
		OriginalName: originalName,
	}
	if err := s.attachments.Add(ctx, attachment); err != nil {
		_ = s.store.Remove(key)
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

// List returns attachment metadata for a ticket.
func (s *AttachmentService) List(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	list, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// Open streams a stored attachment.
func (s *AttachmentService) Open(ctx context.Context, id string) (*domain.Attachment, io.ReadCloser, error) {
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	reader, err := s.store.Open(attachment.StorageKey)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return attachment, reader, nil
}
