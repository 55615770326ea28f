package domain

// Role tags the kind of actor performing an operation.
type Role string

const (
	RoleCustomer    Role = "customer"
	RoleCoordinator Role = "coordinator"
	RoleTechnician  Role = "technician"
)

// Capability names a discrete permission an actor may hold.
type Capability string

const (
	CapCreateTicket    Capability = "create_ticket"
	CapEditContact     Capability = "edit_contact"
	CapEditInternal    Capability = "edit_internal"
	CapDispatch        Capability = "dispatch"
	CapAcceptTicket    Capability = "accept_ticket"
	CapProposeTime     Capability = "propose_time"
	CapConfirmTime     Capability = "confirm_time"
	CapConfirmOnBehalf Capability = "confirm_on_behalf"
	CapReschedule      Capability = "reschedule"
	CapSubmitQuote     Capability = "submit_quote"
	CapConfirmQuote    Capability = "confirm_quote"
	CapComplete        Capability = "complete"
	CapCloseTicket     Capability = "close_ticket"
	CapCancelTicket    Capability = "cancel_ticket"
	CapForceTransition Capability = "force_transition"
	CapViewSensitive   Capability = "view_sensitive"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleCustomer: capSet(
		CapCreateTicket, CapEditContact, CapConfirmTime, CapReschedule,
		CapConfirmQuote, CapCancelTicket,
	),
	RoleCoordinator: capSet(
		CapCreateTicket, CapEditContact, CapEditInternal, CapDispatch,
		CapConfirmTime, CapConfirmOnBehalf, CapReschedule, CapConfirmQuote,
		CapCloseTicket, CapCancelTicket, CapForceTransition, CapViewSensitive,
	),
	RoleTechnician: capSet(
		CapAcceptTicket, CapProposeTime, CapSubmitQuote, CapComplete,
		CapCancelTicket,
	),
}

func capSet(caps ...Capability) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Actor is the authenticated principal acting on a ticket. Role determines a
// fixed capability set; ticket-scoped checks (primary vs assistant, ownership)
// are evaluated per operation against freshly read ticket state.
type Actor struct {
	ID    string
	Name  string
	Phone string
	Role  Role
}

// Can reports whether the actor's role grants the capability.
func (a Actor) Can(cap Capability) bool {
	set, ok := roleCapabilities[a.Role]
	if !ok {
		return false
	}
	_, ok = set[cap]
	return ok
}

// CustomerActor builds the anonymous customer principal used on the public
// track surface, where identity is established by (phone, ticket number).
func CustomerActor(name, phone string) Actor {
	if name == "" {
		name = "customer"
	}
	return Actor{Name: name, Phone: phone, Role: RoleCustomer}
}
