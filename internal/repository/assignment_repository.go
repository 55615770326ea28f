package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repairflow/workorder-service/internal/domain"
)

// AssignmentRepository manages the technician roster of a ticket. The
// one-primary rule is enforced twice: SetPrimaryIfUnassigned races through a
// conditional insert, and the partial unique index backstops every other path.
type AssignmentRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error)
	// SetPrimaryIfUnassigned claims the primary slot only when no primary
	// exists yet. It reports whether this caller won the claim.
	SetPrimaryIfUnassigned(ctx context.Context, ticketID, userID string) (bool, error)
	// ReplacePrimary installs userID as primary, displacing any current one.
	ReplacePrimary(ctx context.Context, ticketID, userID string) error
	AddAssistant(ctx context.Context, ticketID, userID string) error
	Remove(ctx context.Context, ticketID, userID string) error
	// Clear empties the roster, as when an acceptance is withdrawn.
	Clear(ctx context.Context, ticketID string) error
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

func (r *assignmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error) {
	const query = `
        SELECT a.ticket_id, a.user_id, a.role, a.created_at, u.name
        FROM ticket_assignments a
        JOIN users u ON u.id = a.user_id
        WHERE a.ticket_id = $1
        ORDER BY a.role, a.created_at`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.TicketID, &a.UserID, &a.Role, &a.CreatedAt, &a.UserName); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *assignmentRepository) SetPrimaryIfUnassigned(ctx context.Context, ticketID, userID string) (bool, error) {
	const query = `
        INSERT INTO ticket_assignments (ticket_id, user_id, role)
        SELECT $1, $2, 'primary'
        WHERE NOT EXISTS (
            SELECT 1 FROM ticket_assignments WHERE ticket_id = $1 AND role = 'primary'
        )
        ON CONFLICT (ticket_id, user_id) DO NOTHING`
	cmd, err := r.pool.Exec(ctx, query, ticketID, userID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *assignmentRepository) ReplacePrimary(ctx context.Context, ticketID, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM ticket_assignments WHERE ticket_id = $1 AND (role = 'primary' OR user_id = $2)`,
		ticketID, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO ticket_assignments (ticket_id, user_id, role) VALUES ($1, $2, 'primary')`,
		ticketID, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *assignmentRepository) AddAssistant(ctx context.Context, ticketID, userID string) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO ticket_assignments (ticket_id, user_id, role)
        VALUES ($1, $2, 'assistant')
        ON CONFLICT (ticket_id, user_id) DO NOTHING`,
		ticketID, userID)
	return err
}

func (r *assignmentRepository) Remove(ctx context.Context, ticketID, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM ticket_assignments WHERE ticket_id = $1 AND user_id = $2`,
		ticketID, userID)
	return err
}

func (r *assignmentRepository) Clear(ctx context.Context, ticketID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM ticket_assignments WHERE ticket_id = $1`, ticketID)
	return err
}
