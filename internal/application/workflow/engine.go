package workflow

import (
	"context"

	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
)

// Coordinator applies actor actions to claims and ratings. It loads the
// entity, asks the pure decision layer, persists the result together with an
// audit entry, and publishes events once the transaction commits.
type Coordinator interface {
	// ApplyTransition performs an action on a claim or rating
	ApplyTransition(ctx context.Context, req TransitionRequest) (*TransitionResult, error)

	// Describe returns the entity with the actions the actor may take on it
	Describe(ctx context.Context, entityType string, entityID int64, actor domainwf.Actor) (*View, error)
}

// TransitionRequest identifies the entity, the action and who performs it
type TransitionRequest struct {
	EntityType string
	EntityID   int64
	Action     string
	Actor      domainwf.Actor
	Comment    string
}

// TransitionResult carries the updated entity
type TransitionResult struct {
	EntityType string                 `json:"entity_type"`
	FromStatus string                 `json:"from_status"`
	ToStatus   string                 `json:"to_status"`
	Claim      *entity.Claim          `json:"claim,omitempty"`
	Rating     *entity.SupplierRating `json:"rating,omitempty"`
}

// Eligibility lists what the actor may currently do with the entity
type Eligibility struct {
	CanApprove        bool `json:"canApprove"`
	CanReject         bool `json:"canReject"`
	CanSendToSupplier bool `json:"canSendToSupplier"`
	CanRespond        bool `json:"canRespond"`
	CanEdit           bool `json:"canEdit"`
	CanAcceptRating   bool `json:"canAcceptRating"`
}

// View is the read model returned by Describe
type View struct {
	EntityType  string                 `json:"entity_type"`
	EntityID    int64                  `json:"entity_id"`
	Status      string                 `json:"status"`
	Claim       *entity.Claim          `json:"claim,omitempty"`
	Rating      *entity.SupplierRating `json:"rating,omitempty"`
	Eligibility Eligibility            `json:"eligibility"`
	// Reason explains why a rating cannot be accepted, when it cannot
	Reason string `json:"reason,omitempty"`
}
