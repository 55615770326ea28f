package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repairflow/workorder-service/internal/domain"
)

// ErrStatusConflict reports a guarded write that lost to a concurrent
// mutation: the ticket's status no longer matched the expected value.
var ErrStatusConflict = errors.New("ticket status changed concurrently")

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Status     *domain.TicketStatus
	Search     string
	// VisibleToUserID scopes results the technician way: tickets the user is
	// assigned to plus unassigned ones.
	VisibleToUserID *string
	Limit           int
	Offset          int
}

// TicketRepository encapsulates ticket persistence. All mutations are either
// plain writes (non-workflow field edits) or status-guarded writes used by
// workflow transitions to keep at most one committed mutation in flight per
// ticket.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetByTrackIdentity performs the identity-scoped public lookup. A miss
	// on either the id or the (phone, ticket_no) pair is pgx.ErrNoRows.
	GetByTrackIdentity(ctx context.Context, id, phone, ticketNo string) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	// UpdateGuarded writes the ticket only if its stored status still equals
	// expected, returning ErrStatusConflict otherwise.
	UpdateGuarded(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListByPhoneAndNo(ctx context.Context, phone, ticketNo string, limit int) ([]domain.Ticket, error)
	ListByChannelUser(ctx context.Context, channelUserID string, limit int) ([]domain.Ticket, error)
	// ListConfirmedOn returns tickets whose selected slot falls on the given
	// date, for the schedule reminder sweep.
	ListConfirmedOn(ctx context.Context, date string) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool          *pgxpool.Pool
	lockTimeoutMs int
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool, lockTimeoutMs int) TicketRepository {
	return &ticketRepository{pool: pool, lockTimeoutMs: lockTimeoutMs}
}

var ticketColumnList = []string{
	"id", "ticket_no", "title", "category",
	"customer_name", "phone", "address", "customer_channel_id",
	"description_raw", "description_summary", "notes_internal", "supplement_note",
	"status", "priority", "is_urgent", "created_by", "channel",
	"customer_preferred_slots", "worker_selected_slot", "proposed_time_slots",
	"confirmed_slot", "confirmed_by", "confirm_reason", "time_confirmed_at",
	"reschedule_history", "reschedule_count",
	"accepted_at", "quoted_amount", "quote_note", "quote_confirmed_at", "quote_confirmed_by",
	"actual_amount", "completion_note",
	"cancelled_at", "cancelled_by_role", "cancelled_by_name", "cancel_reason",
	"created_at", "updated_at", "completed_at", "closed_at",
}

var ticketColumns = " " + strings.Join(ticketColumnList, ", ")

// Create allocates the day-scoped ticket number and inserts the row in one
// transaction, so an insert failure never burns an identifier.
func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now()
	ticketNo, err := allocateTicketNo(ctx, tx, now, r.lockTimeoutMs)
	if err != nil {
		return err
	}
	ticket.TicketNo = ticketNo

	preferred, selected, proposed, history, err := marshalSchedule(&ticket.Schedule)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO tickets (
            ticket_no, title, category,
            customer_name, phone, address, customer_channel_id,
            description_raw, description_summary, notes_internal, supplement_note,
            status, priority, is_urgent, created_by, channel,
            customer_preferred_slots, worker_selected_slot, proposed_time_slots,
            confirmed_slot, confirmed_by, confirm_reason, time_confirmed_at,
            reschedule_history, reschedule_count)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		ticket.TicketNo, ticket.Title, ticket.Category,
		ticket.CustomerName, ticket.Phone, ticket.Address, ticket.CustomerChannelID,
		ticket.DescriptionRaw, ticket.DescriptionSummary, ticket.NotesInternal, ticket.SupplementNote,
		ticket.Status, ticket.Priority, ticket.IsUrgent, ticket.CreatedBy, ticket.Channel,
		preferred, selected, proposed,
		ticket.Schedule.ConfirmedSlot, ticket.Schedule.ConfirmedBy, ticket.Schedule.ConfirmReason, ticket.Schedule.TimeConfirmedAt,
		history, ticket.Schedule.RescheduleCount,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByTrackIdentity(ctx context.Context, id, phone, ticketNo string) (*domain.Ticket, error) {
	query := `SELECT` + ticketColumns + ` FROM tickets WHERE id=$1 AND phone=$2 AND ticket_no=$3`
	return r.fetchSingle(ctx, query, id, phone, ticketNo)
}

const ticketUpdateSet = `
        title=$1, category=$2,
        customer_name=$3, phone=$4, address=$5, customer_channel_id=$6,
        description_raw=$7, description_summary=$8, notes_internal=$9, supplement_note=$10,
        status=$11, priority=$12, is_urgent=$13,
        customer_preferred_slots=$14, worker_selected_slot=$15, proposed_time_slots=$16,
        confirmed_slot=$17, confirmed_by=$18, confirm_reason=$19, time_confirmed_at=$20,
        reschedule_history=$21, reschedule_count=$22,
        accepted_at=$23, quoted_amount=$24, quote_note=$25, quote_confirmed_at=$26, quote_confirmed_by=$27,
        actual_amount=$28, completion_note=$29,
        cancelled_at=$30, cancelled_by_role=$31, cancelled_by_name=$32, cancel_reason=$33,
        completed_at=$34, closed_at=$35, updated_at=NOW()`

func (r *ticketRepository) updateArgs(ticket *domain.Ticket) ([]any, error) {
	preferred, selected, proposed, history, err := marshalSchedule(&ticket.Schedule)
	if err != nil {
		return nil, err
	}
	var cancelledAt *time.Time
	cancelRole, cancelName, cancelReason := "", "", ""
	if ticket.Cancellation != nil {
		at := ticket.Cancellation.CancelledAt
		cancelledAt = &at
		cancelRole = string(ticket.Cancellation.Role)
		cancelName = ticket.Cancellation.Name
		cancelReason = ticket.Cancellation.Reason
	}
	return []any{
		ticket.Title, ticket.Category,
		ticket.CustomerName, ticket.Phone, ticket.Address, ticket.CustomerChannelID,
		ticket.DescriptionRaw, ticket.DescriptionSummary, ticket.NotesInternal, ticket.SupplementNote,
		ticket.Status, ticket.Priority, ticket.IsUrgent,
		preferred, selected, proposed,
		ticket.Schedule.ConfirmedSlot, ticket.Schedule.ConfirmedBy, ticket.Schedule.ConfirmReason, ticket.Schedule.TimeConfirmedAt,
		history, ticket.Schedule.RescheduleCount,
		ticket.AcceptedAt, ticket.QuotedAmount, ticket.QuoteNote, ticket.QuoteConfirmedAt, ticket.QuoteConfirmedBy,
		ticket.ActualAmount, ticket.CompletionNote,
		cancelledAt, cancelRole, cancelName, cancelReason,
		ticket.CompletedAt, ticket.ClosedAt,
	}, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	args, err := r.updateArgs(ticket)
	if err != nil {
		return err
	}
	args = append(args, ticket.ID)
	cmd, err := r.pool.Exec(ctx, `UPDATE tickets SET`+ticketUpdateSet+` WHERE id=$36`, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) UpdateGuarded(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error {
	args, err := r.updateArgs(ticket)
	if err != nil {
		return err
	}
	args = append(args, ticket.ID, expected)
	cmd, err := r.pool.Exec(ctx, `UPDATE tickets SET`+ticketUpdateSet+` WHERE id=$36 AND status=$37`, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// Distinguish a vanished row from a lost race.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrStatusConflict
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	builder := sq.Select(aliasedTicketColumns("t")...).
		From("tickets t").
		OrderBy("t.created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"t.status": *filter.Status})
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"t.ticket_no": like},
			sq.ILike{"t.customer_name": like},
			sq.ILike{"t.phone": like},
			sq.ILike{"t.address": like},
			sq.ILike{"t.title": like},
		})
	}
	if filter.VisibleToUserID != nil {
		builder = builder.Where(
			`(EXISTS (SELECT 1 FROM ticket_assignments a WHERE a.ticket_id = t.id AND a.user_id = ?)
              OR NOT EXISTS (SELECT 1 FROM ticket_assignments a WHERE a.ticket_id = t.id))`,
			*filter.VisibleToUserID,
		)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder = builder.Limit(uint64(limit)).Offset(uint64(offset))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByPhoneAndNo(ctx context.Context, phone, ticketNo string, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT` + ticketColumns + ` FROM tickets
        WHERE phone=$1 AND ticket_no=$2 ORDER BY created_at DESC LIMIT $3`
	rows, err := r.pool.Query(ctx, query, phone, ticketNo, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByChannelUser(ctx context.Context, channelUserID string, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT` + ticketColumns + ` FROM tickets
        WHERE customer_channel_id=$1 AND customer_channel_id <> '' ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, channelUserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListConfirmedOn(ctx context.Context, date string) ([]domain.Ticket, error) {
	// Confirmed slot displays always lead with the visit date.
	query := `SELECT` + ticketColumns + ` FROM tickets
        WHERE status IN ('in_progress', 'processing')
          AND confirmed_slot LIKE $1`
	rows, err := r.pool.Query(ctx, query, date+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	return scanTicket(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		t                                      domain.Ticket
		preferred, selected, proposed, history []byte
		cancelledAt                            *time.Time
		cancelRole, cancelName, cancelReason   string
	)
	if err := row.Scan(
		&t.ID, &t.TicketNo, &t.Title, &t.Category,
		&t.CustomerName, &t.Phone, &t.Address, &t.CustomerChannelID,
		&t.DescriptionRaw, &t.DescriptionSummary, &t.NotesInternal, &t.SupplementNote,
		&t.Status, &t.Priority, &t.IsUrgent, &t.CreatedBy, &t.Channel,
		&preferred, &selected, &proposed,
		&t.Schedule.ConfirmedSlot, &t.Schedule.ConfirmedBy, &t.Schedule.ConfirmReason, &t.Schedule.TimeConfirmedAt,
		&history, &t.Schedule.RescheduleCount,
		&t.AcceptedAt, &t.QuotedAmount, &t.QuoteNote, &t.QuoteConfirmedAt, &t.QuoteConfirmedBy,
		&t.ActualAmount, &t.CompletionNote,
		&cancelledAt, &cancelRole, &cancelName, &cancelReason,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.ClosedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalSchedule(&t.Schedule, preferred, selected, proposed, history); err != nil {
		return nil, err
	}
	if cancelledAt != nil {
		t.Cancellation = &domain.CancellationRecord{
			CancelledAt: *cancelledAt,
			Role:        domain.Role(cancelRole),
			Name:        cancelName,
			Reason:      cancelReason,
		}
	}
	return &t, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func marshalSchedule(s *domain.Schedule) (preferred, selected, proposed, history []byte, err error) {
	if len(s.CustomerPreferredSlots) > 0 {
		if preferred, err = json.Marshal(s.CustomerPreferredSlots); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	if s.WorkerSelectedSlot != nil {
		if selected, err = json.Marshal(s.WorkerSelectedSlot); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	if len(s.ProposedTimeSlots) > 0 {
		if proposed, err = json.Marshal(s.ProposedTimeSlots); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	if len(s.RescheduleHistory) > 0 {
		if history, err = json.Marshal(s.RescheduleHistory); err != nil {
			return nil, nil, nil, nil, err
		}
	}
	return preferred, selected, proposed, history, nil
}

func unmarshalSchedule(s *domain.Schedule, preferred, selected, proposed, history []byte) error {
	if len(preferred) > 0 {
		if err := json.Unmarshal(preferred, &s.CustomerPreferredSlots); err != nil {
			return err
		}
	}
	if len(selected) > 0 {
		var slot domain.SelectedSlot
		if err := json.Unmarshal(selected, &slot); err != nil {
			return err
		}
		s.WorkerSelectedSlot = &slot
	}
	if len(proposed) > 0 {
		if err := json.Unmarshal(proposed, &s.ProposedTimeSlots); err != nil {
			return err
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &s.RescheduleHistory); err != nil {
			return err
		}
	}
	return nil
}

func aliasedTicketColumns(alias string) []string {
	out := make([]string, len(ticketColumnList))
	for i, col := range ticketColumnList {
		out[i] = alias + "." + col
	}
	return out
}
