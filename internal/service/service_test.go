package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/repairflow/workorder-service/internal/domain"
	"github.com/repairflow/workorder-service/internal/events"
	"github.com/repairflow/workorder-service/internal/repository"
)

// In-memory fakes backing the service tests. They mirror the repository
// contracts closely enough that workflow semantics, including the guarded
// status write and the conditional primary claim, behave as in Postgres.

type fakeTicketRepo struct {
	mu         sync.Mutex
	seq        int
	tickets    map[string]*domain.Ticket
	lastFilter repository.TicketFilter
	// guardConflict makes the next guarded write lose, simulating a
	// concurrent mutation landing between read and write.
	guardConflict bool
	now           func() time.Time
}

func newFakeTicketRepo(now func() time.Time) *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket), now: now}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("tic-%04d", r.seq)
	ticket.TicketNo = repository.FormatTicketNo(r.now(), r.seq)
	ticket.CreatedAt = r.now()
	ticket.UpdatedAt = r.now()
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *stored
	return &cp, nil
}

func (r *fakeTicketRepo) GetByTrackIdentity(_ context.Context, id, phone, ticketNo string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[id]
	if !ok || stored.Phone != phone || stored.TicketNo != ticketNo {
		return nil, pgx.ErrNoRows
	}
	cp := *stored
	return &cp, nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = r.now()
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) UpdateGuarded(_ context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if r.guardConflict || stored.Status != expected {
		r.guardConflict = false
		return repository.ErrStatusConflict
	}
	ticket.UpdatedAt = r.now()
	cp := *ticket
	r.tickets[ticket.ID] = &cp
	return nil
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	var out []domain.Ticket
	for _, t := range r.tickets {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTicketRepo) ListByPhoneAndNo(_ context.Context, phone, ticketNo string, limit int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if t.Phone == phone && t.TicketNo == ticketNo {
			out = append(out, *t)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListByChannelUser(_ context.Context, channelUserID string, limit int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if t.CustomerChannelID == channelUserID {
			out = append(out, *t)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListConfirmedOn(_ context.Context, date string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.tickets {
		if t.Status.Canonical() == domain.TicketStatusInProgress &&
			strings.HasPrefix(t.Schedule.ConfirmedSlot, date) {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeAssignmentRepo struct {
	mu    sync.Mutex
	rows  map[string][]domain.Assignment
	users *fakeUserRepo
	// claimDenied simulates losing the conditional primary insert to a
	// racing transaction that is not yet visible in the loaded snapshot.
	claimDenied bool
}

func newFakeAssignmentRepo(users *fakeUserRepo) *fakeAssignmentRepo {
	return &fakeAssignmentRepo{rows: make(map[string][]domain.Assignment), users: users}
}

func (r *fakeAssignmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Assignment{}, r.rows[ticketID]...), nil
}

func (r *fakeAssignmentRepo) SetPrimaryIfUnassigned(_ context.Context, ticketID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimDenied {
		r.claimDenied = false
		return false, nil
	}
	for _, a := range r.rows[ticketID] {
		if a.Role == domain.AssignmentRolePrimary {
			return false, nil
		}
	}
	r.rows[ticketID] = append(r.rows[ticketID], r.assignment(ticketID, userID, domain.AssignmentRolePrimary))
	return true, nil
}

func (r *fakeAssignmentRepo) ReplacePrimary(_ context.Context, ticketID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[ticketID][:0]
	for _, a := range r.rows[ticketID] {
		if a.Role != domain.AssignmentRolePrimary && a.UserID != userID {
			kept = append(kept, a)
		}
	}
	r.rows[ticketID] = append(kept, r.assignment(ticketID, userID, domain.AssignmentRolePrimary))
	return nil
}

func (r *fakeAssignmentRepo) AddAssistant(_ context.Context, ticketID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows[ticketID] {
		if a.UserID == userID {
			return nil
		}
	}
	r.rows[ticketID] = append(r.rows[ticketID], r.assignment(ticketID, userID, domain.AssignmentRoleAssistant))
	return nil
}

func (r *fakeAssignmentRepo) Remove(_ context.Context, ticketID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[ticketID][:0]
	for _, a := range r.rows[ticketID] {
		if a.UserID != userID {
			kept = append(kept, a)
		}
	}
	r.rows[ticketID] = kept
	return nil
}

func (r *fakeAssignmentRepo) Clear(_ context.Context, ticketID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, ticketID)
	return nil
}

func (r *fakeAssignmentRepo) assignment(ticketID, userID string, role domain.AssignmentRole) domain.Assignment {
	name := userID
	if u, ok := r.users.byID[userID]; ok {
		name = u.Name
	}
	return domain.Assignment{TicketID: ticketID, UserID: userID, UserName: name, Role: role}
}

type fakeUserRepo struct {
	byID map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = fmt.Sprintf("usr-%04d", len(r.byID)+1)
	}
	r.byID[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.byID {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListActiveByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, user := range r.byID {
		if user.Role == role && user.Active {
			out = append(out, *user)
		}
	}
	return out, nil
}

type fakeCommentRepo struct {
	comments []domain.Comment
}

func (r *fakeCommentRepo) Add(_ context.Context, comment *domain.Comment) error {
	comment.ID = fmt.Sprintf("cmt-%04d", len(r.comments)+1)
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range r.comments {
		if c.TicketID == ticketID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeAttachmentRepo struct {
	attachments []domain.Attachment
}

func (r *fakeAttachmentRepo) Add(_ context.Context, attachment *domain.Attachment) error {
	attachment.ID = fmt.Sprintf("att-%04d", len(r.attachments)+1)
	r.attachments = append(r.attachments, *attachment)
	return nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var out []domain.Attachment
	for _, a := range r.attachments {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttachmentRepo) GetByID(_ context.Context, id string) (*domain.Attachment, error) {
	for i := range r.attachments {
		if r.attachments[i].ID == id {
			cp := r.attachments[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeAuditRepo struct {
	entries []domain.TicketAuditEntry
}

func (r *fakeAuditRepo) Append(_ context.Context, entry *domain.TicketAuditEntry) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketAuditEntry, error) {
	var out []domain.TicketAuditEntry
	for _, e := range r.entries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) lastChangeType() domain.AuditChangeType {
	if len(r.entries) == 0 {
		return ""
	}
	return r.entries[len(r.entries)-1].ChangeType
}

type fakeDispatchLogRepo struct {
	entries []domain.DispatchLogEntry
}

func (r *fakeDispatchLogRepo) Append(_ context.Context, entry *domain.DispatchLogEntry) error {
	entry.ID = fmt.Sprintf("dsp-%04d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeDispatchLogRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.DispatchLogEntry, error) {
	var out []domain.DispatchLogEntry
	for _, e := range r.entries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	out := make([]events.EventType, 0, len(d.published))
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

// fixture wires the three workflow services onto one shared set of fakes so
// a ticket can be walked through its whole lifecycle in a single test.
type fixture struct {
	now time.Time

	tickets      *fakeTicketRepo
	assignments  *fakeAssignmentRepo
	users        *fakeUserRepo
	comments     *fakeCommentRepo
	attachments  *fakeAttachmentRepo
	audit        *fakeAuditRepo
	dispatchLogs *fakeDispatchLogRepo
	dispatcher   *recordingDispatcher

	ticketSvc   *TicketService
	scheduleSvc *SchedulingService
	dispatchSvc *DispatchService
}

func newFixture() *fixture {
	f := &fixture{now: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	f.users = newFakeUserRepo()
	f.tickets = newFakeTicketRepo(clock)
	f.assignments = newFakeAssignmentRepo(f.users)
	f.comments = &fakeCommentRepo{}
	f.attachments = &fakeAttachmentRepo{}
	f.audit = &fakeAuditRepo{}
	f.dispatchLogs = &fakeDispatchLogRepo{}
	f.dispatcher = &recordingDispatcher{}

	f.ticketSvc = NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		AssignmentRepo: f.assignments,
		CommentRepo:    f.comments,
		AttachmentRepo: f.attachments,
		AuditRepo:      f.audit,
		Dispatcher:     f.dispatcher,
		Now:            clock,
	})
	f.scheduleSvc = NewSchedulingService(f.tickets, f.assignments, f.audit, f.dispatcher, clock)
	f.dispatchSvc = NewDispatchService(DispatchDependencies{
		TicketRepo:      f.tickets,
		AssignmentRepo:  f.assignments,
		UserRepo:        f.users,
		DispatchLogRepo: f.dispatchLogs,
		AuditRepo:       f.audit,
		Dispatcher:      f.dispatcher,
		Now:             clock,
	})
	return f
}

func (f *fixture) seedUser(id, name string, role domain.Role, phone string) domain.Actor {
	f.users.byID[id] = &domain.User{
		ID: id, Name: name, Username: id, Role: role, Phone: phone, Active: true,
	}
	return domain.Actor{ID: id, Name: name, Phone: phone, Role: role}
}

func (f *fixture) seedTicket(status domain.TicketStatus, mutate func(*domain.Ticket)) *domain.Ticket {
	f.tickets.seq++
	ticket := &domain.Ticket{
		ID:             fmt.Sprintf("tic-%04d", f.tickets.seq),
		TicketNo:       repository.FormatTicketNo(f.now, f.tickets.seq),
		Title:          "water heater leaking",
		Category:       "plumbing",
		CustomerName:   "Smith John",
		Phone:          "0912345678",
		Address:        "123 Elm Street, Apt 4",
		DescriptionRaw: "water pooling under the heater since yesterday",
		Status:         status,
		Priority:       domain.TicketPriorityMedium,
		Channel:        domain.ChannelWeb,
		CreatedAt:      f.now,
		UpdatedAt:      f.now,
	}
	if mutate != nil {
		mutate(ticket)
	}
	f.tickets.tickets[ticket.ID] = ticket
	return ticket
}

func (f *fixture) assignPrimary(ticketID string, actor domain.Actor) {
	f.assignments.rows[ticketID] = append(f.assignments.rows[ticketID],
		domain.Assignment{TicketID: ticketID, UserID: actor.ID, UserName: actor.Name, Role: domain.AssignmentRolePrimary})
}

func futureSlot(date string, period domain.Period) domain.PreferredSlot {
	return domain.PreferredSlot{Date: date, Period: period}
}
