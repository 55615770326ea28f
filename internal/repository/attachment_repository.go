package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repairflow/workorder-service/internal/domain"
)

// AttachmentRepository stores attachment metadata; the blobs themselves live
// in the attachment store.
type AttachmentRepository interface {
	Add(ctx context.Context, attachment *domain.Attachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
	GetByID(ctx context.Context, id string) (*domain.Attachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Add(ctx context.Context, attachment *domain.Attachment) error {
	const query = `
        INSERT INTO ticket_attachments (ticket_id, storage_key, kind, original_name)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		attachment.TicketID, attachment.StorageKey, attachment.Kind, attachment.OriginalName,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, ticket_id, storage_key, kind, original_name, created_at
        FROM ticket_attachments WHERE ticket_id = $1 ORDER BY created_at`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.TicketID, &a.StorageKey, &a.Kind, &a.OriginalName, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	var a domain.Attachment
	err := r.pool.QueryRow(ctx, `
        SELECT id, ticket_id, storage_key, kind, original_name, created_at
        FROM ticket_attachments WHERE id = $1`, id).
		Scan(&a.ID, &a.TicketID, &a.StorageKey, &a.Kind, &a.OriginalName, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
