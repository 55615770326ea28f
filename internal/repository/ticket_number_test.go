package repository

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTicketNo(t *testing.T) {
	day := time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "TK2608290001", FormatTicketNo(day, 1))
	assert.Equal(t, "TK2608290042", FormatTicketNo(day, 42))
	// Sequence wider than four digits is never truncated.
	assert.Equal(t, "TK26082912345", FormatTicketNo(day, 12345))

	newYear := time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "TK2701020007", FormatTicketNo(newYear, 7))
}

// allocStore emulates the two pieces of Postgres the allocator leans on: a
// per-day advisory lock held until commit, and MAX() over committed numbers.
type allocStore struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	issued []string
}

func newAllocStore() *allocStore {
	return &allocStore{locks: make(map[string]*sync.Mutex)}
}

func (s *allocStore) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *allocStore) maxSeq(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, no := range s.issued {
		if !strings.HasPrefix(no, prefix) {
			continue
		}
		if seq, err := strconv.Atoi(no[len(prefix):]); err == nil && seq > max {
			max = seq
		}
	}
	return max
}

func (s *allocStore) insert(no string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued = append(s.issued, no)
}

type allocTx struct {
	store *allocStore
	held  *sync.Mutex
}

func (tx *allocTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if strings.Contains(sql, "pg_advisory_xact_lock") {
		l := tx.store.lockFor(args[0].(string))
		l.Lock()
		tx.held = l
	}
	return pgconn.CommandTag{}, nil
}

func (tx *allocTx) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	prefix := strings.TrimSuffix(args[0].(string), "%")
	return allocRow{max: tx.store.maxSeq(prefix)}
}

func (tx *allocTx) Commit(context.Context) error {
	if tx.held != nil {
		tx.held.Unlock()
		tx.held = nil
	}
	return nil
}

func (tx *allocTx) Rollback(ctx context.Context) error { return tx.Commit(ctx) }

func (tx *allocTx) Begin(context.Context) (pgx.Tx, error) { panic("not used") }
func (tx *allocTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not used")
}
func (tx *allocTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { panic("not used") }
func (tx *allocTx) LargeObjects() pgx.LargeObjects                         { panic("not used") }
func (tx *allocTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not used")
}
func (tx *allocTx) Query(context.Context, string, ...any) (pgx.Rows, error) { panic("not used") }
func (tx *allocTx) Conn() *pgx.Conn                                         { panic("not used") }

type allocRow struct{ max int }

func (r allocRow) Scan(dest ...any) error {
	*(dest[0].(*int)) = r.max
	return nil
}

func TestAllocateTicketNoParallelUniqueness(t *testing.T) {
	store := newAllocStore()
	day := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	const workers = 32

	results := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx := &allocTx{store: store}
			no, err := allocateTicketNo(context.Background(), tx, day, 0)
			if !assert.NoError(t, err) {
				_ = tx.Rollback(context.Background())
				return
			}
			store.insert(no)
			_ = tx.Commit(context.Background())
			results <- no
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]struct{})
	for no := range results {
		assert.True(t, strings.HasPrefix(no, "TK260829"))
		_, dup := seen[no]
		assert.False(t, dup, "duplicate ticket number %s", no)
		seen[no] = struct{}{}
	}
	require.Len(t, seen, workers)
	// Serialized max-plus-one allocation leaves no gaps either.
	_, ok := seen[FormatTicketNo(day, workers)]
	assert.True(t, ok)
}

func TestAllocateTicketNoIndependentDays(t *testing.T) {
	store := newAllocStore()
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	for _, day := range []time.Time{monday, tuesday} {
		tx := &allocTx{store: store}
		no, err := allocateTicketNo(context.Background(), tx, day, 0)
		require.NoError(t, err)
		store.insert(no)
		require.NoError(t, tx.Commit(context.Background()))
	}

	// Each day runs its own sequence from 1.
	assert.Contains(t, store.issued, "TK2608240001")
	assert.Contains(t, store.issued, "TK2608250001")
}
