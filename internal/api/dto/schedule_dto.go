package dto

// SelectSlotRequest picks one of the customer's preferred slots.
type SelectSlotRequest struct {
	SlotIndex int `json:"slot_index" validate:"gte=0,lte=2"`
}

// ProposedSlotPayload is one technician counter-proposal.
type ProposedSlotPayload struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Time string `json:"time" validate:"required,max=50"`
}

// ProposeSlotsRequest counter-proposes visit slots.
type ProposeSlotsRequest struct {
	Slots []ProposedSlotPayload `json:"slots" validate:"required,min=1,max=3,dive"`
}

// ConfirmTimeRequest accepts the slot on the table. ProposalIndex selects
// among counter-proposals; Reason is mandatory for coordinator confirms.
type ConfirmTimeRequest struct {
	ProposalIndex *int   `json:"proposal_index" validate:"omitempty,gte=0,lte=2"`
	Reason        string `json:"reason" validate:"max=1000"`
}

// RescheduleRequest reopens the negotiation.
type RescheduleRequest struct {
	Reason string                 `json:"reason" validate:"required,min=5,max=1000"`
	Slots  []PreferredSlotPayload `json:"slots" validate:"max=3,dive"`
}

// PeriodOption is one offerable period for a date.
type PeriodOption struct {
	Period string `json:"period"`
	Label  string `json:"label"`
}
