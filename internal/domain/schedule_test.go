package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour int) time.Time {
	return time.Date(2026, 3, 10, hour, 30, 0, 0, time.UTC)
}

func TestAvailablePeriodsFutureDateOffersAll(t *testing.T) {
	periods := AvailablePeriods("2026-03-11", at(20))
	assert.Equal(t, []Period{PeriodMorning, PeriodAfternoon, PeriodEvening}, periods)
}

func TestAvailablePeriodsPastDateOffersNothing(t *testing.T) {
	assert.Nil(t, AvailablePeriods("2026-03-09", at(8)))
}

func TestAvailablePeriodsSameDayDropsStartedPeriods(t *testing.T) {
	cases := []struct {
		hour     int
		expected []Period
	}{
		{8, []Period{PeriodMorning, PeriodAfternoon, PeriodEvening}},
		{9, []Period{PeriodAfternoon, PeriodEvening}},
		{12, []Period{PeriodAfternoon, PeriodEvening}},
		{13, []Period{PeriodEvening}},
		{17, []Period{PeriodEvening}},
		{18, nil},
		{22, nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, AvailablePeriods("2026-03-10", at(tc.hour)), "hour %d", tc.hour)
	}
}

func TestAvailablePeriodsRejectsMalformedDate(t *testing.T) {
	assert.Nil(t, AvailablePeriods("10/03/2026", at(8)))
	assert.Nil(t, AvailablePeriods("", at(8)))
}

func TestFilterPreferredSlotsDropsInvalidAndCaps(t *testing.T) {
	now := at(10) // morning already started today
	slots := []PreferredSlot{
		{Date: "2026-03-10", Period: PeriodMorning},   // started, dropped
		{Date: "2026-03-10", Period: PeriodAfternoon}, // kept
		{Date: "2026-03-11", Period: "midnight"},      // unknown period, dropped
		{Date: "2026-03-11", Period: PeriodMorning},   // kept
		{Date: "2026-03-12", Period: PeriodEvening},   // kept
		{Date: "2026-03-13", Period: PeriodMorning},   // over the cap
	}
	filtered := FilterPreferredSlots(slots, now)
	assert.Len(t, filtered, MaxPreferredSlots)
	assert.Equal(t, PeriodAfternoon, filtered[0].Period)
	assert.Equal(t, "2026-03-11", filtered[1].Date)
	assert.Equal(t, "2026-03-12", filtered[2].Date)
	for _, slot := range filtered {
		assert.NotEmpty(t, slot.Label)
	}
}

func TestClearNegotiationKeepsHistory(t *testing.T) {
	confirmedAt := at(9)
	s := Schedule{
		WorkerSelectedSlot: &SelectedSlot{Slot: PreferredSlot{Date: "2026-03-11", Period: PeriodMorning}},
		ProposedTimeSlots:  []ProposedSlot{{Date: "2026-03-12", Time: "09:00-12:00"}},
		ConfirmedSlot:      "2026-03-11 morning 09:00-12:00",
		ConfirmedBy:        "Alex",
		TimeConfirmedAt:    &confirmedAt,
		RescheduleHistory:  []RescheduleRound{{Reason: "sick"}},
		RescheduleCount:    1,
	}
	s.ClearNegotiation()

	assert.Nil(t, s.WorkerSelectedSlot)
	assert.Nil(t, s.ProposedTimeSlots)
	assert.Empty(t, s.ConfirmedSlot)
	assert.Empty(t, s.ConfirmedBy)
	assert.Nil(t, s.TimeConfirmedAt)
	assert.Len(t, s.RescheduleHistory, 1)
	assert.Equal(t, 1, s.RescheduleCount)
}

func TestPendingSlotDisplayPrecedence(t *testing.T) {
	s := Schedule{}
	assert.Empty(t, s.PendingSlotDisplay())

	s.ProposedTimeSlots = []ProposedSlot{{Date: "2026-03-12", Time: "13:00-17:00"}}
	assert.Equal(t, "2026-03-12 13:00-17:00", s.PendingSlotDisplay())

	s.WorkerSelectedSlot = &SelectedSlot{Slot: PreferredSlot{Date: "2026-03-11", Period: PeriodMorning}}
	assert.Equal(t, "2026-03-11 morning 09:00-12:00", s.PendingSlotDisplay())

	s.ConfirmedSlot = "2026-03-11 morning 09:00-12:00"
	assert.Equal(t, s.ConfirmedSlot, s.PendingSlotDisplay())
}
