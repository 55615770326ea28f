package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repairflow/workorder-service/internal/domain"
)

func TestDispatchTargeted(t *testing.T) {
	f := newFixture()
	coordinator := f.seedUser("coor-1", "Dana", domain.RoleCoordinator, "")
	f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	ticket := f.seedTicket(domain.TicketStatusNew, nil)

	updated, err := f.dispatchSvc.Dispatch(context.Background(), coordinator, ticket.ID, DispatchInput{
		TechnicianID: "tech-1",
		Message:      "please call before heading out",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusDispatched, updated.Status)
	assert.True(t, updated.IsPrimary("tech-1"))

	require.Len(t, f.dispatchLogs.entries, 1)
	entry := f.dispatchLogs.entries[0]
	assert.Equal(t, []string{"tech-1"}, entry.TechnicianIDs)
	assert.False(t, entry.OpenBid)
	assert.Equal(t, "coor-1", entry.DispatcherUserID)
	assert.Equal(t, "please call before heading out", entry.PayloadSnapshot.Message)
}

func TestDispatchOpenBid(t *testing.T) {
	f := newFixture()
	coordinator := f.seedUser("coor-1", "Dana", domain.RoleCoordinator, "")
	f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	f.seedUser("tech-2", "Blair", domain.RoleTechnician, "0933444555")
	f.users.byID["tech-3"] = &domain.User{ID: "tech-3", Name: "Casey", Role: domain.RoleTechnician, Active: false}
	ticket := f.seedTicket(domain.TicketStatusNew, nil)

	updated, err := f.dispatchSvc.Dispatch(context.Background(), coordinator, ticket.ID, DispatchInput{OpenBid: true})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusDispatched, updated.Status)
	// Open-bid dispatch assigns nobody; the first acceptor claims primary.
	assert.Nil(t, updated.PrimaryAssignee())

	require.Len(t, f.dispatchLogs.entries, 1)
	entry := f.dispatchLogs.entries[0]
	assert.True(t, entry.OpenBid)
	assert.ElementsMatch(t, []string{"tech-1", "tech-2"}, entry.TechnicianIDs)
}

func TestRedispatchReplacesAssignment(t *testing.T) {
	f := newFixture()
	coordinator := f.seedUser("coor-1", "Dana", domain.RoleCoordinator, "")
	first := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	f.seedUser("tech-2", "Blair", domain.RoleTechnician, "0933444555")
	ticket := f.seedTicket(domain.TicketStatusNew, nil)

	updated, err := f.dispatchSvc.Dispatch(context.Background(), coordinator, ticket.ID, DispatchInput{TechnicianID: first.ID})
	require.NoError(t, err)
	assert.True(t, updated.IsPrimary("tech-1"))

	updated, err = f.dispatchSvc.Dispatch(context.Background(), coordinator, ticket.ID, DispatchInput{TechnicianID: "tech-2"})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusDispatched, updated.Status)
	assert.True(t, updated.IsPrimary("tech-2"))
	assert.False(t, updated.IsAssigned("tech-1"))

	// Every dispatch, including a re-dispatch, appends its own log entry.
	history, err := f.dispatchSvc.History(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestDispatchTargetValidation(t *testing.T) {
	f := newFixture()
	coordinator := f.seedUser("coor-1", "Dana", domain.RoleCoordinator, "")
	f.users.byID["tech-3"] = &domain.User{ID: "tech-3", Name: "Casey", Role: domain.RoleTechnician, Active: false}
	ticket := f.seedTicket(domain.TicketStatusNew, nil)

	_, err := f.dispatchSvc.Dispatch(context.Background(), coordinator, ticket.ID, DispatchInput{})
	assertErrCode(t, err, "VALIDATION_FAILED")

	_, err = f.dispatchSvc.Dispatch(context.Background(), coordinator, ticket.ID, DispatchInput{
		TechnicianID: "tech-3", OpenBid: true,
	})
	assertErrCode(t, err, "VALIDATION_FAILED")

	_, err = f.dispatchSvc.Dispatch(context.Background(), coordinator, ticket.ID, DispatchInput{TechnicianID: "tech-3"})
	assertErrCode(t, err, "VALIDATION_FAILED")

	// Open bid with no active technicians has nobody to notify.
	_, err = f.dispatchSvc.Dispatch(context.Background(), coordinator, ticket.ID, DispatchInput{OpenBid: true})
	assertErrCode(t, err, "VALIDATION_FAILED")
}

func TestDispatchTechnicianForbidden(t *testing.T) {
	f := newFixture()
	technician := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	ticket := f.seedTicket(domain.TicketStatusNew, nil)

	_, err := f.dispatchSvc.Dispatch(context.Background(), technician, ticket.ID, DispatchInput{TechnicianID: "tech-1"})
	assertErrCode(t, err, "AUTHORITY_VIOLATION")
}

func TestBuildDispatchPayloadMinimalDisclosure(t *testing.T) {
	ticket := &domain.Ticket{
		TicketNo:       "TK2603100001",
		Category:       "plumbing",
		CustomerName:   "Smith John",
		Phone:          "0912345678",
		Address:        "123 Elm Street, Apt 4",
		DescriptionRaw: "water pooling under the heater",
		NotesInternal:  "customer disputed last invoice",
		IsUrgent:       true,
	}

	payload := BuildDispatchPayload(ticket, "second visit")
	assert.Equal(t, "Mr./Ms. Smith", payload.CustomerName)
	// Field staff need the real phone and address for the visit.
	assert.Equal(t, "0912345678", payload.Phone)
	assert.Equal(t, "123 Elm Street, Apt 4", payload.Address)
	assert.Equal(t, "water pooling under the heater", payload.Description)
	assert.True(t, payload.IsUrgent)
	assert.NotContains(t, payload.Description, "disputed")

	// A curated summary, when present, replaces the raw description.
	ticket.DescriptionSummary = "heater leak, bring replacement valve"
	payload = BuildDispatchPayload(ticket, "")
	assert.Equal(t, "heater leak, bring replacement valve", payload.Description)
}

func TestAcceptClaimsDispatchedTicket(t *testing.T) {
	f := newFixture()
	technician := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	ticket := f.seedTicket(domain.TicketStatusDispatched, nil)

	updated, err := f.dispatchSvc.Accept(context.Background(), technician, ticket.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsPrimary("tech-1"))
	assert.NotNil(t, updated.AcceptedAt)
}

func TestAcceptRequiresPhoneOnFile(t *testing.T) {
	f := newFixture()
	technician := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "")
	ticket := f.seedTicket(domain.TicketStatusDispatched, nil)

	_, err := f.dispatchSvc.Accept(context.Background(), technician, ticket.ID)
	assertErrCode(t, err, "VALIDATION_FAILED")
}

func TestAcceptOnlyDispatchedTickets(t *testing.T) {
	f := newFixture()
	technician := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	ticket := f.seedTicket(domain.TicketStatusNew, nil)

	_, err := f.dispatchSvc.Accept(context.Background(), technician, ticket.ID)
	assertErrCode(t, err, "VALIDATION_FAILED")
}

func TestAcceptLosesOpenBidRace(t *testing.T) {
	f := newFixture()
	first := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	second := f.seedUser("tech-2", "Blair", domain.RoleTechnician, "0933444555")
	ticket := f.seedTicket(domain.TicketStatusDispatched, nil)

	_, err := f.dispatchSvc.Accept(context.Background(), first, ticket.ID)
	require.NoError(t, err)

	_, err = f.dispatchSvc.Accept(context.Background(), second, ticket.ID)
	assertErrCode(t, err, "CONFLICT")

	// The race can also be lost below the loaded snapshot.
	other := f.seedTicket(domain.TicketStatusDispatched, nil)
	f.assignments.claimDenied = true
	_, err = f.dispatchSvc.Accept(context.Background(), second, other.ID)
	assertErrCode(t, err, "CONFLICT")
}

func TestCancelAcceptance(t *testing.T) {
	f := newFixture()
	primary := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	other := f.seedUser("tech-2", "Blair", domain.RoleTechnician, "0933444555")
	accepted := f.now
	ticket := f.seedTicket(domain.TicketStatusTimeProposed, func(tk *domain.Ticket) {
		tk.AcceptedAt = &accepted
		tk.Schedule.WorkerSelectedSlot = &domain.SelectedSlot{
			Slot: futureSlot("2026-03-12", domain.PeriodMorning),
		}
	})
	f.assignPrimary(ticket.ID, primary)

	_, err := f.dispatchSvc.CancelAcceptance(context.Background(), other, ticket.ID)
	assertErrCode(t, err, "AUTHORITY_VIOLATION")

	updated, err := f.dispatchSvc.CancelAcceptance(context.Background(), primary, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusDispatched, updated.Status)
	assert.Nil(t, updated.AcceptedAt)
	assert.Nil(t, updated.Schedule.WorkerSelectedSlot)
	assert.Empty(t, updated.Assignees)
}

func TestCancelAcceptanceAfterWorkStarts(t *testing.T) {
	f := newFixture()
	primary := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	ticket := f.seedTicket(domain.TicketStatusInProgress, nil)
	f.assignPrimary(ticket.ID, primary)

	_, err := f.dispatchSvc.CancelAcceptance(context.Background(), primary, ticket.ID)
	assertErrCode(t, err, "VALIDATION_FAILED")
}

func TestAssistantManagement(t *testing.T) {
	f := newFixture()
	primary := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	helper := f.seedUser("tech-2", "Blair", domain.RoleTechnician, "0933444555")
	ticket := f.seedTicket(domain.TicketStatusInProgress, nil)
	f.assignPrimary(ticket.ID, primary)

	_, err := f.dispatchSvc.AddAssistant(context.Background(), helper, ticket.ID, "tech-2")
	assertErrCode(t, err, "AUTHORITY_VIOLATION")

	_, err = f.dispatchSvc.AddAssistant(context.Background(), primary, ticket.ID, "tech-1")
	assertErrCode(t, err, "VALIDATION_FAILED")

	updated, err := f.dispatchSvc.AddAssistant(context.Background(), primary, ticket.ID, "tech-2")
	require.NoError(t, err)
	require.Len(t, updated.Assignees, 2)
	assert.True(t, updated.IsAssigned("tech-2"))
	assert.True(t, updated.IsPrimary("tech-1"))

	// Re-adding a user who already holds a role is rejected.
	_, err = f.dispatchSvc.AddAssistant(context.Background(), primary, ticket.ID, "tech-2")
	assertErrCode(t, err, "VALIDATION_FAILED")

	updated, err = f.dispatchSvc.RemoveAssistant(context.Background(), primary, ticket.ID, "tech-2")
	require.NoError(t, err)
	assert.False(t, updated.IsAssigned("tech-2"))

	// The primary cannot be removed through assistant management.
	_, err = f.dispatchSvc.RemoveAssistant(context.Background(), primary, ticket.ID, "tech-1")
	assertErrCode(t, err, "VALIDATION_FAILED")
}

func TestAssistantOnlyOnActiveTickets(t *testing.T) {
	f := newFixture()
	primary := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	helper := f.seedUser("tech-2", "Blair", domain.RoleTechnician, "0933444555")
	ticket := f.seedTicket(domain.TicketStatusDone, nil)
	f.assignPrimary(ticket.ID, primary)
	f.assignments.rows[ticket.ID] = append(f.assignments.rows[ticket.ID],
		domain.Assignment{TicketID: ticket.ID, UserID: helper.ID, UserName: helper.Name, Role: domain.AssignmentRoleAssistant})

	_, err := f.dispatchSvc.AddAssistant(context.Background(), primary, ticket.ID, "tech-3")
	assertErrCode(t, err, "VALIDATION_FAILED")

	_, err = f.dispatchSvc.RemoveAssistant(context.Background(), primary, ticket.ID, "tech-2")
	assertErrCode(t, err, "VALIDATION_FAILED")
}

func TestAssistantManagementDeniedToCoordinators(t *testing.T) {
	f := newFixture()
	primary := f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	helper := f.seedUser("tech-2", "Blair", domain.RoleTechnician, "0933444555")
	coordinator := f.seedUser("coor-1", "Dana", domain.RoleCoordinator, "")
	ticket := f.seedTicket(domain.TicketStatusInProgress, nil)
	f.assignPrimary(ticket.ID, primary)

	_, err := f.dispatchSvc.AddAssistant(context.Background(), coordinator, ticket.ID, helper.ID)
	assertErrCode(t, err, "AUTHORITY_VIOLATION")

	_, err = f.dispatchSvc.RemoveAssistant(context.Background(), coordinator, ticket.ID, helper.ID)
	assertErrCode(t, err, "AUTHORITY_VIOLATION")
}

func TestDispatchHistory(t *testing.T) {
	f := newFixture()
	coordinator := f.seedUser("coor-1", "Dana", domain.RoleCoordinator, "")
	f.seedUser("tech-1", "Alex", domain.RoleTechnician, "0911222333")
	ticket := f.seedTicket(domain.TicketStatusNew, nil)

	_, err := f.dispatchSvc.Dispatch(context.Background(), coordinator, ticket.ID, DispatchInput{TechnicianID: "tech-1"})
	require.NoError(t, err)

	history, err := f.dispatchSvc.History(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Mr./Ms. Smith", history[0].PayloadSnapshot.CustomerName)
}
