package service

import (
	"context"

	"github.com/garyjia/supplier-workflow/internal/application/dispatcher"
	"github.com/garyjia/supplier-workflow/internal/domain/event"
)

// loggedEvents are the claim lifecycle events written to the activity log
var loggedEvents = []event.Type{
	event.TypeClaimCreated,
	event.TypeClaimEdited,
	event.TypeClaimTransitioned,
}

// ActivityLog writes claim lifecycle events to the application log
type ActivityLog struct {
	logger Logger
}

// NewActivityLog creates a new ActivityLog
func NewActivityLog(logger Logger) *ActivityLog {
	return &ActivityLog{logger: logger}
}

// Register subscribes the activity log on the dispatcher
func (a *ActivityLog) Register(d dispatcher.Dispatcher) {
	for _, t := range loggedEvents {
		d.SubscribeNamed(t, "activity-log:"+t.String(), a.HandleEvent)
	}
}

// HandleEvent logs one claim event. It never fails.
func (a *ActivityLog) HandleEvent(ctx context.Context, evt *event.Event) error {
	kv := []interface{}{
		"event_type", evt.Type.String(),
		"event_id", evt.ID,
		"correlation_id", evt.CorrelationID,
		"entity_type", evt.EntityType,
		"entity_id", evt.EntityID,
		"actor_id", evt.GetPayloadInt(event.KeyActorID),
		"actor_role", evt.GetPayloadString(event.KeyActorRole),
		"claim_number", evt.GetPayloadString(event.KeyClaimNumber),
	}
	if from := evt.GetPayloadString(event.KeyFromStatus); from != "" {
		kv = append(kv, "from_status", from)
	}
	if to := evt.GetPayloadString(event.KeyToStatus); to != "" {
		kv = append(kv, "to_status", to)
	}

	a.logger.Info("Claim activity", kv...)
	return nil
}
