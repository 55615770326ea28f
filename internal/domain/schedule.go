package domain

import (
	"fmt"
	"time"
)

// Period is a coarse visit window within a day.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
)

// Start hours of each period; a period is no longer offerable on the same
// day once its start hour has passed.
var periodStartHour = map[Period]int{
	PeriodMorning:   9,
	PeriodAfternoon: 13,
	PeriodEvening:   18,
}

var periodLabels = map[Period]string{
	PeriodMorning:   "morning 09:00-12:00",
	PeriodAfternoon: "afternoon 13:00-17:00",
	PeriodEvening:   "evening 18:00-21:00",
}

// Label returns the human-readable window for the period.
func (p Period) Label() string {
	if label, ok := periodLabels[p]; ok {
		return label
	}
	return string(p)
}

// IsValid reports whether p names a known period bucket.
func (p Period) IsValid() bool {
	_, ok := periodStartHour[p]
	return ok
}

const slotDateLayout = "2006-01-02"

// PreferredSlot is one customer-supplied (date, period) candidate.
type PreferredSlot struct {
	Date   string `json:"date"`
	Period Period `json:"period"`
	Label  string `json:"label"`
}

// String renders the slot for messages and audit records.
func (s PreferredSlot) String() string {
	return fmt.Sprintf("%s %s", s.Date, s.Period.Label())
}

// SelectedSlot records the slot a technician picked from the customer's
// preferred list, tagged with who picked it and when.
type SelectedSlot struct {
	Slot       PreferredSlot `json:"slot"`
	SelectedBy string        `json:"selected_by"`
	SelectedAt time.Time     `json:"selected_at"`
}

// ProposedSlot is one technician-authored candidate when none of the
// customer's preferences work. Time is a free-form range such as
// "09:00-12:00".
type ProposedSlot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (s ProposedSlot) String() string {
	return fmt.Sprintf("%s %s", s.Date, s.Time)
}

// RescheduleRound is one append-only entry in the negotiation history.
type RescheduleRound struct {
	Initiator Role            `json:"initiator"`
	Name      string          `json:"name"`
	Reason    string          `json:"reason"`
	PriorSlot string          `json:"prior_slot,omitempty"`
	NewSlots  []PreferredSlot `json:"new_slots,omitempty"`
	At        time.Time       `json:"at"`
}

// MaxPreferredSlots bounds the customer's candidate list at intake.
const MaxPreferredSlots = 3

// MaxRescheduleRounds caps the negotiation; a further attempt must go
// through a coordinator.
const MaxRescheduleRounds = 3

// Schedule is the scheduling sub-state embedded in a Ticket.
type Schedule struct {
	CustomerPreferredSlots []PreferredSlot
	WorkerSelectedSlot     *SelectedSlot
	ProposedTimeSlots      []ProposedSlot
	ConfirmedSlot          string
	ConfirmedBy            string
	ConfirmReason          string
	TimeConfirmedAt        *time.Time
	RescheduleHistory      []RescheduleRound
	RescheduleCount        int
}

// ClearNegotiation drops proposal and confirmation state ahead of a new
// negotiation round. The reschedule history is never cleared.
func (s *Schedule) ClearNegotiation() {
	s.WorkerSelectedSlot = nil
	s.ProposedTimeSlots = nil
	s.ConfirmedSlot = ""
	s.ConfirmedBy = ""
	s.ConfirmReason = ""
	s.TimeConfirmedAt = nil
}

// PendingSlotDisplay renders whatever slot is currently on the table, for
// confirmation prompts and dispatch payloads.
func (s *Schedule) PendingSlotDisplay() string {
	if s.ConfirmedSlot != "" {
		return s.ConfirmedSlot
	}
	if s.WorkerSelectedSlot != nil {
		return s.WorkerSelectedSlot.Slot.String()
	}
	if len(s.ProposedTimeSlots) > 0 {
		return s.ProposedTimeSlots[0].String()
	}
	return ""
}

// AvailablePeriods returns the periods offerable for the given visit date as
// of now. Future dates offer every period; same-day bookings exclude periods
// whose start hour has already passed. Dates in the past offer nothing.
// Callers must re-derive this server-side rather than trust client input.
func AvailablePeriods(date string, now time.Time) []Period {
	day, err := time.ParseInLocation(slotDateLayout, date, now.Location())
	if err != nil {
		return nil
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return nil
	}
	all := []Period{PeriodMorning, PeriodAfternoon, PeriodEvening}
	if day.After(today) {
		return all
	}
	var out []Period
	for _, p := range all {
		if now.Hour() < periodStartHour[p] {
			out = append(out, p)
		}
	}
	return out
}

// FilterPreferredSlots validates and server-side filters customer slot
// candidates: unknown periods and same-day periods already past are dropped,
// labels are normalized, and the list is capped at MaxPreferredSlots.
func FilterPreferredSlots(slots []PreferredSlot, now time.Time) []PreferredSlot {
	var out []PreferredSlot
	for _, slot := range slots {
		if len(out) == MaxPreferredSlots {
			break
		}
		if !slot.Period.IsValid() {
			continue
		}
		available := false
		for _, p := range AvailablePeriods(slot.Date, now) {
			if p == slot.Period {
				available = true
				break
			}
		}
		if !available {
			continue
		}
		slot.Label = slot.String()
		out = append(out, slot)
	}
	return out
}
