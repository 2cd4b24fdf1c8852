package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when a state transition is not allowed
	// for the actor's role and the entity's current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrValidationFailed is returned when input is missing or malformed
	ErrValidationFailed = errors.New("validation failed")

	// ErrForbidden is returned when the actor may not access the resource at all
	ErrForbidden = errors.New("forbidden")

	// ErrNotEligible is returned when a rating cannot be accepted by the actor
	ErrNotEligible = errors.New("not eligible")

	// ErrConflict is returned when the entity changed since it was read
	ErrConflict = errors.New("concurrent modification")

	// ErrStorage is returned for persistence failures other than conflicts
	ErrStorage = errors.New("storage error")
)

// Rating eligibility reasons. Each matches ErrNotEligible with errors.Is.
var (
	ErrAlreadyAccepted = fmt.Errorf("%w: rating already accepted", ErrNotEligible)
	ErrWindowExpired   = fmt.Errorf("%w: acceptance window expired", ErrNotEligible)
	ErrWrongActor      = fmt.Errorf("%w: wrong actor", ErrNotEligible)
)
