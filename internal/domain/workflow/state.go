package workflow

import "github.com/garyjia/supplier-workflow/internal/domain/entity"

// State represents a claim workflow state
type State string

const (
	StateNew                State = entity.ClaimStatusNew
	StateUnderReview        State = entity.ClaimStatusUnderReview
	StateOperationsApproved State = entity.ClaimStatusOperationsApproved
	StateLegalApproved      State = entity.ClaimStatusLegalApproved
	StateSentToSupplier     State = entity.ClaimStatusSentToSupplier
	StateAccepted           State = entity.ClaimStatusAccepted
	StateRejectedBySupplier State = entity.ClaimStatusRejectedBySupplier
	StateRejected           State = entity.ClaimStatusRejected
)

var validStates = map[State]bool{
	StateNew:                true,
	StateUnderReview:        true,
	StateOperationsApproved: true,
	StateLegalApproved:      true,
	StateSentToSupplier:     true,
	StateAccepted:           true,
	StateRejectedBySupplier: true,
	StateRejected:           true,
}

var terminalStates = map[State]bool{
	StateAccepted:           true,
	StateRejectedBySupplier: true,
	StateRejected:           true,
}

// stage orders the forward path; Rejected sits outside it
var stage = map[State]int{
	StateNew:                0,
	StateUnderReview:        0,
	StateOperationsApproved: 1,
	StateLegalApproved:      2,
	StateSentToSupplier:     3,
	StateAccepted:           4,
	StateRejectedBySupplier: 4,
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsDeclined reports whether the claim was turned down, either internally or by the supplier
func (s State) IsDeclined() bool {
	return s == StateRejected || s == StateRejectedBySupplier
}

// IsEntry reports whether the state is one of the equivalent entry states
func (s State) IsEntry() bool {
	return s == StateNew || s == StateUnderReview
}

// Stage returns the position of the state on the forward path, or -1 for Rejected
func (s State) Stage() int {
	if st, ok := stage[s]; ok {
		return st
	}
	return -1
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// AllStates returns every claim state in forward-path order followed by Rejected
func AllStates() []State {
	return []State{
		StateNew,
		StateUnderReview,
		StateOperationsApproved,
		StateLegalApproved,
		StateSentToSupplier,
		StateAccepted,
		StateRejectedBySupplier,
		StateRejected,
	}
}
