package domain

import "fmt"

// Decision is the outcome of evaluating a requested status transition.
type Decision struct {
	Allowed bool
	// Forced marks a coordinator override of the transition table. Forced
	// transitions are audited separately from normal ones.
	Forced bool
	Reason string
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusNew:          {TicketStatusNeedMoreInfo, TicketStatusDispatched, TicketStatusCancelled},
	TicketStatusNeedMoreInfo: {TicketStatusNew, TicketStatusInfoSubmit, TicketStatusDispatched, TicketStatusCancelled},
	TicketStatusInfoSubmit:   {TicketStatusNeedMoreInfo, TicketStatusDispatched, TicketStatusCancelled},
	TicketStatusDispatched:   {TicketStatusTimeProposed, TicketStatusReschedule, TicketStatusCancelled},
	TicketStatusTimeProposed: {TicketStatusInProgress, TicketStatusReschedule, TicketStatusDispatched, TicketStatusCancelled},
	TicketStatusReschedule:   {TicketStatusDispatched, TicketStatusTimeProposed, TicketStatusCancelled},
	TicketStatusInProgress:   {TicketStatusDone, TicketStatusReschedule, TicketStatusCancelled},
	TicketStatusDone:         {TicketStatusClosed},
	TicketStatusClosed:       {},
	TicketStatusCancelled:    {TicketStatusNew},
}

// Decide evaluates whether the actor may move a ticket from current to
// requested. It is a pure function of its inputs and consults no storage.
// Actors holding CapForceTransition may bypass the table; such decisions are
// marked Forced so callers can audit them distinctly.
func Decide(current, requested TicketStatus, actor Actor) Decision {
	current = current.Canonical()
	requested = requested.Canonical()

	if current == requested {
		return Decision{Allowed: false, Reason: fmt.Sprintf("ticket already in status %q", current)}
	}
	for _, next := range allowedTransitions[current] {
		if next == requested {
			return Decision{Allowed: true}
		}
	}
	if actor.Can(CapForceTransition) {
		return Decision{Allowed: true, Forced: true}
	}
	return Decision{
		Allowed: false,
		Reason:  fmt.Sprintf("illegal transition from %q to %q", current, requested),
	}
}

// KnownStatuses lists every canonical lifecycle status, in workflow order.
func KnownStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusNew,
		TicketStatusNeedMoreInfo,
		TicketStatusInfoSubmit,
		TicketStatusDispatched,
		TicketStatusTimeProposed,
		TicketStatusReschedule,
		TicketStatusInProgress,
		TicketStatusDone,
		TicketStatusClosed,
		TicketStatusCancelled,
	}
}

// IsKnownStatus reports whether s is a canonical or legacy status value.
func IsKnownStatus(s TicketStatus) bool {
	switch s {
	case legacyStatusPending, legacyStatusProcessing, legacyStatusCompleted:
		return true
	}
	for _, known := range KnownStatuses() {
		if s == known {
			return true
		}
	}
	return false
}
