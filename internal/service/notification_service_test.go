package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/repairflow/workorder-service/internal/domain"
)

func TestRenderDispatchText(t *testing.T) {
	payload := domain.DispatchPayload{
		TicketNo:      "TK2603100001",
		Category:      "plumbing",
		CustomerName:  "Mr./Ms. Smith",
		Phone:         "0912345678",
		Address:       "123 Elm Street, Apt 4",
		ScheduledSlot: "2026-03-12 morning 09:00-12:00",
		Description:   "water pooling under the heater",
		IsUrgent:      true,
		Message:       "second visit",
	}

	text := renderDispatchText(payload)
	assert.Equal(t,
		"[URGENT] Job TK2603100001 (plumbing)\n"+
			"Customer: Mr./Ms. Smith 0912345678\n"+
			"Address: 123 Elm Street, Apt 4\n"+
			"Requested time: 2026-03-12 morning 09:00-12:00\n"+
			"Issue: water pooling under the heater\n"+
			"Note: second visit",
		text)
}

func TestRenderDispatchTextSkipsEmptyLines(t *testing.T) {
	text := renderDispatchText(domain.DispatchPayload{
		TicketNo:     "TK2603100002",
		Category:     "electrical",
		CustomerName: "Mr./Ms. Lee",
		Phone:        "0933444555",
		Address:      "9 Pine Road",
	})
	assert.NotContains(t, text, "Requested time")
	assert.NotContains(t, text, "Issue")
	assert.NotContains(t, text, "Note")
	assert.NotContains(t, text, "[URGENT]")
}

func TestReminderFor(t *testing.T) {
	ticket := &domain.Ticket{
		TicketNo: "TK2603100001",
		Schedule: domain.Schedule{ConfirmedSlot: "2026-03-11 morning 09:00-12:00"},
	}
	assert.Equal(t,
		"Reminder: your repair visit for TK2603100001 is scheduled tomorrow, 2026-03-11 morning 09:00-12:00.",
		ReminderFor(ticket))
}
