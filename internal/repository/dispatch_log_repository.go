package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repairflow/workorder-service/internal/domain"
)

// DispatchLogRepository stores the append-only dispatch audit trail. There
// is deliberately no update or delete.
type DispatchLogRepository interface {
	Append(ctx context.Context, entry *domain.DispatchLogEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.DispatchLogEntry, error)
}

type dispatchLogRepository struct {
	pool *pgxpool.Pool
}

func NewDispatchLogRepository(pool *pgxpool.Pool) DispatchLogRepository {
	return &dispatchLogRepository{pool: pool}
}

func (r *dispatchLogRepository) Append(ctx context.Context, entry *domain.DispatchLogEntry) error {
	techIDs, err := json.Marshal(entry.TechnicianIDs)
	if err != nil {
		return err
	}
	snapshot, err := json.Marshal(entry.PayloadSnapshot)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO dispatch_logs (ticket_id, dispatcher_user_id, technician_ids, open_bid, payload_snapshot)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, dispatched_at`
	return r.pool.QueryRow(ctx, query,
		entry.TicketID, entry.DispatcherUserID, techIDs, entry.OpenBid, snapshot,
	).Scan(&entry.ID, &entry.DispatchedAt)
}

func (r *dispatchLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.DispatchLogEntry, error) {
	const query = `
        SELECT id, ticket_id, dispatcher_user_id, technician_ids, open_bid, payload_snapshot, dispatched_at
        FROM dispatch_logs WHERE ticket_id = $1 ORDER BY dispatched_at`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DispatchLogEntry
	for rows.Next() {
		var (
			entry             domain.DispatchLogEntry
			techIDs, snapshot []byte
		)
		if err := rows.Scan(&entry.ID, &entry.TicketID, &entry.DispatcherUserID,
			&techIDs, &entry.OpenBid, &snapshot, &entry.DispatchedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(techIDs, &entry.TechnicianIDs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapshot, &entry.PayloadSnapshot); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
