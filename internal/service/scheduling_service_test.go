package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repairflow/workorder-service/internal/domain"
)

func seedDispatchedWithSlots(f *fixture) *domain.Ticket {
	return f.seedTicket(domain.TicketStatusDispatched, func(tk *domain.Ticket) {
		tk.Schedule.CustomerPreferredSlots = []domain.PreferredSlot{
			futureSlot("2026-03-12", domain.PeriodMorning),
			futureSlot("2026-03-13", domain.PeriodEvening),
		}
	})
}

func TestSelectPreferredSlot(t *testing.T) {
	f := newFixture()
	technician := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	ticket := seedDispatchedWithSlots(f)
	f.assignPrimary(ticket.ID, technician)

	updated, err := f.scheduleSvc.SelectPreferredSlot(context.Background(), technician, ticket.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusTimeProposed, updated.Status)
	require.NotNil(t, updated.Schedule.WorkerSelectedSlot)
	assert.Equal(t, "2026-03-13", updated.Schedule.WorkerSelectedSlot.Slot.Date)
	assert.Equal(t, "Alex", updated.Schedule.WorkerSelectedSlot.SelectedBy)
	assert.Empty(t, updated.Schedule.ProposedTimeSlots)
}

func TestSelectPreferredSlotIndexOutOfRange(t *testing.T) {
	f := newFixture()
	technician := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	ticket := seedDispatchedWithSlots(f)
	f.assignPrimary(ticket.ID, technician)

	_, err := f.scheduleSvc.SelectPreferredSlot(context.Background(), technician, ticket.ID, 2)
	assertErrCode(t, err, "VALIDATION_FAILED")
	_, err = f.scheduleSvc.SelectPreferredSlot(context.Background(), technician, ticket.ID, -1)
	assertErrCode(t, err, "VALIDATION_FAILED")
}

func TestSelectPreferredSlotClaimsOpenBidTicket(t *testing.T) {
	f := newFixture()
	technician := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	ticket := seedDispatchedWithSlots(f)

	updated, err := f.scheduleSvc.SelectPreferredSlot(context.Background(), technician, ticket.ID, 0)
	require.NoError(t, err)
	assert.True(t, updated.IsPrimary("tech-1"))
}

func TestSelectPreferredSlotLosesOpenBidRace(t *testing.T) {
	f := newFixture()
	technician := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	ticket := seedDispatchedWithSlots(f)

	f.assignments.claimDenied = true
	_, err := f.scheduleSvc.SelectPreferredSlot(context.Background(), technician, ticket.ID, 0)
	assertErrCode(t, err, "CONFLICT")
}

func TestSelectPreferredSlotNonPrimaryRejected(t *testing.T) {
	f := newFixture()
	primary := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	other := f.seedUser("tech-2", "Blair", domain.RoleTechnician, "0933444555")
	ticket := seedDispatchedWithSlots(f)
	f.assignPrimary(ticket.ID, primary)

	_, err := f.scheduleSvc.SelectPreferredSlot(context.Background(), other, ticket.ID, 0)
	assertErrCode(t, err, "AUTHORITY_VIOLATION")
}

func TestProposeTimeSlots(t *testing.T) {
	f := newFixture()
	technician := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	ticket := seedDispatchedWithSlots(f)
	f.assignPrimary(ticket.ID, technician)

	_, err := f.scheduleSvc.ProposeTimeSlots(context.Background(), technician, ticket.ID, nil)
	assertErrCode(t, err, "VALIDATION_FAILED")

	tooMany := make([]domain.ProposedSlot, 4)
	for i := range tooMany {
		tooMany[i] = domain.ProposedSlot{Date: "2026-03-14", Time: "09:00-12:00"}
	}
	_, err = f.scheduleSvc.ProposeTimeSlots(context.Background(), technician, ticket.ID, tooMany)
	assertErrCode(t, err, "VALIDATION_FAILED")

	_, err = f.scheduleSvc.ProposeTimeSlots(context.Background(), technician, ticket.ID,
		[]domain.ProposedSlot{{Date: "2026-03-14", Time: " "}})
	assertErrCode(t, err, "VALIDATION_FAILED")

	updated, err := f.scheduleSvc.ProposeTimeSlots(context.Background(), technician, ticket.ID,
		[]domain.ProposedSlot{
			{Date: "2026-03-14", Time: "09:00-12:00"},
			{Date: "2026-03-15", Time: "13:00-17:00"},
		})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusTimeProposed, updated.Status)
	assert.Nil(t, updated.Schedule.WorkerSelectedSlot)
	assert.Len(t, updated.Schedule.ProposedTimeSlots, 2)
}

func TestConfirmTimeSelectedSlot(t *testing.T) {
	f := newFixture()
	customer := domain.CustomerActor("Smith John", "0912345678")
	ticket := f.seedTicket(domain.TicketStatusTimeProposed, func(tk *domain.Ticket) {
		tk.Schedule.WorkerSelectedSlot = &domain.SelectedSlot{
			Slot:       futureSlot("2026-03-12", domain.PeriodMorning),
			SelectedBy: "Alex",
		}
	})

	updated, err := f.scheduleSvc.ConfirmTime(context.Background(), customer, ticket.ID, nil, "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)
	assert.Equal(t, "2026-03-12 morning 09:00-12:00", updated.Schedule.ConfirmedSlot)
	assert.NotNil(t, updated.Schedule.TimeConfirmedAt)
}

func TestConfirmTimeProposalIndex(t *testing.T) {
	f := newFixture()
	customer := domain.CustomerActor("Smith John", "0912345678")
	ticket := f.seedTicket(domain.TicketStatusTimeProposed, func(tk *domain.Ticket) {
		tk.Schedule.ProposedTimeSlots = []domain.ProposedSlot{
			{Date: "2026-03-14", Time: "09:00-12:00"},
			{Date: "2026-03-15", Time: "13:00-17:00"},
		}
	})

	idx := 5
	_, err := f.scheduleSvc.ConfirmTime(context.Background(), customer, ticket.ID, &idx, "")
	assertErrCode(t, err, "VALIDATION_FAILED")

	idx = 1
	updated, err := f.scheduleSvc.ConfirmTime(context.Background(), customer, ticket.ID, &idx, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15 13:00-17:00", updated.Schedule.ConfirmedSlot)
}

func TestConfirmTimeCoordinatorNeedsReason(t *testing.T) {
	f := newFixture()
	coordinator := f.seedUser("coor-1", "Dana", domain.RoleCoordinator, "")
	ticket := f.seedTicket(domain.TicketStatusTimeProposed, func(tk *domain.Ticket) {
		tk.Schedule.WorkerSelectedSlot = &domain.SelectedSlot{
			Slot: futureSlot("2026-03-12", domain.PeriodMorning),
		}
	})

	_, err := f.scheduleSvc.ConfirmTime(context.Background(), coordinator, ticket.ID, nil, "")
	assertErrCode(t, err, "VALIDATION_FAILED")

	updated, err := f.scheduleSvc.ConfirmTime(context.Background(), coordinator, ticket.ID, nil, "customer confirmed by phone")
	require.NoError(t, err)
	assert.Equal(t, "Dana", updated.Schedule.ConfirmedBy)
	assert.Equal(t, "customer confirmed by phone", updated.Schedule.ConfirmReason)
}

func TestConfirmTimeNothingPending(t *testing.T) {
	f := newFixture()
	customer := domain.CustomerActor("Smith John", "0912345678")
	ticket := f.seedTicket(domain.TicketStatusTimeProposed, nil)

	_, err := f.scheduleSvc.ConfirmTime(context.Background(), customer, ticket.ID, nil, "")
	assertErrCode(t, err, "VALIDATION_FAILED")
}

func TestRequestReschedule(t *testing.T) {
	f := newFixture()
	customer := domain.CustomerActor("Smith John", "0912345678")
	ticket := f.seedTicket(domain.TicketStatusTimeProposed, func(tk *domain.Ticket) {
		tk.Schedule.WorkerSelectedSlot = &domain.SelectedSlot{
			Slot: futureSlot("2026-03-12", domain.PeriodMorning),
		}
	})

	_, err := f.scheduleSvc.RequestReschedule(context.Background(), customer, ticket.ID, "no", nil)
	assertErrCode(t, err, "VALIDATION_FAILED")

	updated, err := f.scheduleSvc.RequestReschedule(context.Background(), customer, ticket.ID,
		"out of town that morning", []domain.PreferredSlot{futureSlot("2026-03-16", domain.PeriodAfternoon)})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusReschedule, updated.Status)
	assert.Equal(t, 1, updated.Schedule.RescheduleCount)
	require.Len(t, updated.Schedule.RescheduleHistory, 1)
	round := updated.Schedule.RescheduleHistory[0]
	assert.Equal(t, domain.RoleCustomer, round.Initiator)
	assert.Equal(t, "2026-03-12 morning 09:00-12:00", round.PriorSlot)
	assert.Nil(t, updated.Schedule.WorkerSelectedSlot)
	require.Len(t, updated.Schedule.CustomerPreferredSlots, 1)
	assert.Equal(t, "2026-03-16", updated.Schedule.CustomerPreferredSlots[0].Date)
}

func TestRequestRescheduleCapped(t *testing.T) {
	f := newFixture()
	customer := domain.CustomerActor("Smith John", "0912345678")
	coordinator := f.seedUser("coor-1", "Dana", domain.RoleCoordinator, "")
	ticket := f.seedTicket(domain.TicketStatusInProgress, func(tk *domain.Ticket) {
		tk.Schedule.RescheduleCount = domain.MaxRescheduleRounds
		tk.Schedule.ConfirmedSlot = "2026-03-12 morning 09:00-12:00"
	})

	_, err := f.scheduleSvc.RequestReschedule(context.Background(), customer, ticket.ID, "plans changed again", nil)
	assertErrCode(t, err, "VALIDATION_FAILED")

	// The cap binds coordinators too; past it they force a status change
	// rather than keep negotiating.
	_, err = f.scheduleSvc.RequestReschedule(context.Background(), coordinator, ticket.ID, "technician double-booked", nil)
	assertErrCode(t, err, "VALIDATION_FAILED")

	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxRescheduleRounds, stored.Schedule.RescheduleCount)
	assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
}

func TestRequestRescheduleLastRoundAllowed(t *testing.T) {
	f := newFixture()
	customer := domain.CustomerActor("Smith John", "0912345678")
	ticket := f.seedTicket(domain.TicketStatusInProgress, func(tk *domain.Ticket) {
		tk.Schedule.RescheduleCount = domain.MaxRescheduleRounds - 1
		tk.Schedule.ConfirmedSlot = "2026-03-12 morning 09:00-12:00"
	})

	updated, err := f.scheduleSvc.RequestReschedule(context.Background(), customer, ticket.ID, "family emergency", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxRescheduleRounds, updated.Schedule.RescheduleCount)
}

func TestAvailablePeriodsUsesServiceClock(t *testing.T) {
	f := newFixture() // clock fixed at 10:00

	assert.Equal(t, []domain.Period{domain.PeriodAfternoon, domain.PeriodEvening},
		f.scheduleSvc.AvailablePeriods("2026-03-10"))
	assert.Len(t, f.scheduleSvc.AvailablePeriods("2026-03-11"), 3)
	assert.Empty(t, f.scheduleSvc.AvailablePeriods("2026-03-09"))
}
