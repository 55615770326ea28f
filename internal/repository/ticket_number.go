package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/repairflow/workorder-service/pkg/util"
)

// ticketNoPrefix + YYMMDD + 4-digit sequence, e.g. TK2608290001.
const ticketNoPrefix = "TK"

const dayFormat = "060102"

// FormatTicketNo renders an identifier for the given day and sequence.
func FormatTicketNo(day time.Time, seq int) string {
	return fmt.Sprintf("%s%s%04d", ticketNoPrefix, day.Format(dayFormat), seq)
}

// allocateTicketNo issues the next identifier for the day inside tx.
//
// Allocation is the one deliberately serialized path: a per-day advisory
// transaction lock makes the read-max-then-increment atomic across
// concurrent creators, while allocations on different days never contend.
// The wait is bounded by lock_timeout; hitting it surfaces a retryable
// allocation-contention error rather than risking a duplicate.
func allocateTicketNo(ctx context.Context, tx pgx.Tx, day time.Time, lockTimeoutMs int) (string, error) {
	dayKey := day.Format(dayFormat)

	if lockTimeoutMs <= 0 {
		lockTimeoutMs = 2000
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeoutMs)); err != nil {
		return "", err
	}
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "ticket_no:"+dayKey); err != nil {
		if isLockTimeout(err) {
			return "", apperrors.NewAllocationContention(dayKey)
		}
		return "", err
	}

	prefix := ticketNoPrefix + dayKey
	var maxSeq int
	err := tx.QueryRow(ctx, `
        SELECT COALESCE(MAX(SUBSTRING(ticket_no FROM $2)::int), 0)
        FROM tickets WHERE ticket_no LIKE $1`,
		prefix+"%", len(prefix)+1,
	).Scan(&maxSeq)
	if err != nil {
		return "", err
	}

	return FormatTicketNo(day, maxSeq+1), nil
}

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	// 55P03 lock_not_available
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}
