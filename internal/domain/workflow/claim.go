package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/supplier-workflow/internal/domain/entity"
)

// claimMachine is built in init so the state and trigger tables it validates
// against are populated first
var claimMachine StateMachine

func init() {
	claimMachine = newClaimMachine()
}

func newClaimMachine() StateMachine {
	b := NewBuilder()

	reviewers := requireRole(RoleOperations, RoleLegal)
	for _, entry := range []State{StateNew, StateUnderReview} {
		b.Configure(entry).
			PermitIf(TriggerApprove, StateOperationsApproved, requireRole(RoleOperations)).
			PermitIf(TriggerReject, StateRejected, reviewers, RequireComment())
	}

	b.Configure(StateOperationsApproved).
		PermitIf(TriggerApprove, StateLegalApproved, requireRole(RoleLegal)).
		PermitIf(TriggerReject, StateRejected, reviewers, RequireComment())

	b.Configure(StateLegalApproved).
		PermitIf(TriggerSendToSupplier, StateSentToSupplier, requireRole(RolePurchasing))

	b.Configure(StateSentToSupplier).
		PermitIf(TriggerAccept, StateAccepted, requireOwner, RequireComment()).
		PermitIf(TriggerDecline, StateRejectedBySupplier, requireOwner, RequireComment())

	return b.Build()
}

// ClaimMachine returns the shared claim decision table
func ClaimMachine() StateMachine {
	return claimMachine
}

func requireRole(roles ...Role) GuardFunc {
	return func(req Request) error {
		for _, r := range roles {
			if req.Actor.Role == r {
				return nil
			}
		}
		return fmt.Errorf("%w: role %q not permitted", ErrInvalidTransition, req.Actor.Role)
	}
}

func requireOwner(req Request) error {
	if req.Actor.Role != RoleSupplier {
		return fmt.Errorf("%w: role %q not permitted", ErrInvalidTransition, req.Actor.Role)
	}
	if !req.Actor.IsSupplierFor(req.OwnerID) {
		return fmt.Errorf("%w: claim belongs to another supplier", ErrInvalidTransition)
	}
	return nil
}

// ClaimOutcome describes an accepted claim transition
type ClaimOutcome struct {
	Trigger Trigger
	From    State
	To      State
	// Claim is an updated copy; the input claim is never modified
	Claim *entity.Claim
	// NotifySupplier is set when the supplier must be told about the claim
	NotifySupplier bool
}

// AttemptTransition decides whether the actor may move the claim to the
// requested state and returns the stamped copy if so
func AttemptTransition(claim *entity.Claim, requested State, actor Actor, comment string, now time.Time) (*ClaimOutcome, error) {
	if claim == nil {
		return nil, fmt.Errorf("%w: claim is required", ErrValidationFailed)
	}

	from := State(claim.Status)
	trigger, err := claimMachine.Resolve(from, requested, claimRequest(claim, actor, comment))
	if err != nil {
		return nil, err
	}

	return stamp(claim, trigger, from, requested, comment, now), nil
}

// ApplyAction is AttemptTransition addressed by action instead of target state.
// Approve resolves to the operations or legal stage from the current state.
func ApplyAction(claim *entity.Claim, trigger Trigger, actor Actor, comment string, now time.Time) (*ClaimOutcome, error) {
	if claim == nil {
		return nil, fmt.Errorf("%w: claim is required", ErrValidationFailed)
	}

	from := State(claim.Status)
	to, err := claimMachine.Fire(from, trigger, claimRequest(claim, actor, comment))
	if err != nil {
		return nil, err
	}

	return stamp(claim, trigger, from, to, comment, now), nil
}

func claimRequest(claim *entity.Claim, actor Actor, comment string) Request {
	return Request{Actor: actor, OwnerID: claim.SupplierID, Comment: comment}
}

func stamp(claim *entity.Claim, trigger Trigger, from, to State, comment string, now time.Time) *ClaimOutcome {
	updated := claim.Clone()
	updated.Status = to.String()
	updated.UpdatedAt = now
	comment = strings.TrimSpace(comment)
	ts := now

	outcome := &ClaimOutcome{Trigger: trigger, From: from, To: to, Claim: updated}

	switch to {
	case StateOperationsApproved:
		updated.DateApproved = &ts
	case StateLegalApproved:
		updated.DateLegalApproved = &ts
	case StateRejected:
		updated.RejectionReason = comment
	case StateSentToSupplier:
		updated.DateSentToSupplier = &ts
		outcome.NotifySupplier = true
	case StateAccepted, StateRejectedBySupplier:
		accepted := to == StateAccepted
		updated.AcceptedBySupplier = &accepted
		updated.DateFeedback = &ts
		updated.SupplierResponse = comment
	}

	return outcome
}

// ClaimEligibility lists which claim actions an actor may currently take
type ClaimEligibility struct {
	CanApprove        bool `json:"canApprove"`
	CanReject         bool `json:"canReject"`
	CanSendToSupplier bool `json:"canSendToSupplier"`
	CanRespond        bool `json:"canRespond"`
	CanEdit           bool `json:"canEdit"`
}

// EligibilityFor derives the action flags from the same table AttemptTransition uses
func EligibilityFor(claim *entity.Claim, actor Actor) ClaimEligibility {
	if claim == nil {
		return ClaimEligibility{}
	}
	from := State(claim.Status)
	req := claimRequest(claim, actor, "")

	return ClaimEligibility{
		CanApprove:        claimMachine.CanFire(from, TriggerApprove, req),
		CanReject:         claimMachine.CanFire(from, TriggerReject, req),
		CanSendToSupplier: claimMachine.CanFire(from, TriggerSendToSupplier, req),
		CanRespond: claimMachine.CanFire(from, TriggerAccept, req) ||
			claimMachine.CanFire(from, TriggerDecline, req),
		CanEdit: EditScopeFor(claim, actor) != EditNone,
	}
}

// EditScope is the set of claim fields an actor may change
type EditScope int

const (
	EditNone EditScope = iota
	// EditResponse allows only the supplier response text
	EditResponse
	// EditFields allows the narrative and monetary fields
	EditFields
)

// EditScopeFor returns what the actor may edit on the claim in its current state
func EditScopeFor(claim *entity.Claim, actor Actor) EditScope {
	state := State(claim.Status)

	switch actor.Role {
	case RolePurchasing:
		if state.IsEntry() || state == StateOperationsApproved {
			return EditFields
		}
	case RoleLegal:
		if state.IsEntry() || state == StateOperationsApproved || state == StateLegalApproved {
			return EditFields
		}
	case RoleSupplier:
		if state == StateSentToSupplier && actor.IsSupplierFor(claim.SupplierID) {
			return EditResponse
		}
	}
	return EditNone
}

// ApplyEdit validates the patch against the actor's edit scope and returns the edited copy
func ApplyEdit(claim *entity.Claim, patch entity.ClaimPatch, actor Actor, now time.Time) (*entity.Claim, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidationFailed)
	}

	switch EditScopeFor(claim, actor) {
	case EditNone:
		return nil, fmt.Errorf("%w: role %q cannot edit a claim in state %s", ErrInvalidTransition, actor.Role, claim.Status)
	case EditResponse:
		if patch.TouchesInternalFields() {
			return nil, fmt.Errorf("%w: suppliers may only edit the response text", ErrInvalidTransition)
		}
	case EditFields:
		if patch.SupplierResponse != nil {
			return nil, fmt.Errorf("%w: only the supplier may edit the response text", ErrInvalidTransition)
		}
	}

	updated := claim.Clone()
	patch.Apply(updated)
	if err := ValidateClaim(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = now
	return updated, nil
}

// CanCreateClaim returns nil if the actor may raise new claims
func CanCreateClaim(actor Actor) error {
	if actor.Role != RolePurchasing && actor.Role != RoleLegal {
		return fmt.Errorf("%w: role %q cannot create claims", ErrInvalidTransition, actor.Role)
	}
	return nil
}

// ValidateClaim checks the claim's required fields and enums
func ValidateClaim(c *entity.Claim) error {
	var problems []string
	if c.SupplierID <= 0 {
		problems = append(problems, "supplier_id is required")
	}
	if !entity.IsValidArea(c.Area) {
		problems = append(problems, fmt.Sprintf("area %q is not one of Material, Service, HSE", c.Area))
	}
	if c.DamageAmount.IsNegative() {
		problems = append(problems, "damage_amount must not be negative")
	}
	if strings.TrimSpace(c.ClaimDescription) == "" {
		problems = append(problems, "claim_description is required")
	}
	if strings.TrimSpace(c.DamageDescription) == "" {
		problems = append(problems, "damage_description is required")
	}
	if !entity.IsValidDemandType(c.DemandType) {
		problems = append(problems, fmt.Sprintf("demand_type %q is not a known remedy", c.DemandType))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(problems, "; "))
	}
	return nil
}

// FormatClaimNumber renders the year-scoped claim number
func FormatClaimNumber(year int, seq int64) string {
	return fmt.Sprintf("CLM-%d-%03d", year, seq)
}
