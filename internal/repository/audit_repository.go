package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repairflow/workorder-service/internal/domain"
)

// AuditRepository stores the per-ticket mutation trail. Append-only.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.TicketAuditEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAuditEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Append(ctx context.Context, entry *domain.TicketAuditEntry) error {
	oldVal, err := marshalNullable(entry.OldValue)
	if err != nil {
		return err
	}
	newVal, err := marshalNullable(entry.NewValue)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO ticket_audit (ticket_id, actor_role, actor_name, change_type, old_value, new_value)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID, entry.ActorRole, entry.ActorName, entry.ChangeType, oldVal, newVal,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, ticket_id, actor_role, actor_name, change_type, old_value, new_value, created_at
        FROM ticket_audit WHERE ticket_id = $1 ORDER BY created_at`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketAuditEntry
	for rows.Next() {
		var (
			e              domain.TicketAuditEntry
			oldVal, newVal []byte
		)
		if err := rows.Scan(&e.ID, &e.TicketID, &e.ActorRole, &e.ActorName,
			&e.ChangeType, &oldVal, &newVal, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(oldVal) > 0 {
			if err := json.Unmarshal(oldVal, &e.OldValue); err != nil {
				return nil, err
			}
		}
		if len(newVal) > 0 {
			if err := json.Unmarshal(newVal, &e.NewValue); err != nil {
				return nil, err
			}
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func marshalNullable(value map[string]any) ([]byte, error) {
	if len(value) == 0 {
		return nil, nil
	}
	return json.Marshal(value)
}
