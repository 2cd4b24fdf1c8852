package entity

import "time"

// AuditEntry is one append-only record of a state-changing action.
// EntityID is a weak reference; the entity may live in any table.
type AuditEntry struct {
	ID          int64     `json:"id"`
	ActorID     int64     `json:"actor_id"`
	ActorRole   string    `json:"actor_role"`
	Action      string    `json:"action"`
	EntityType  string    `json:"entity_type"`
	EntityID    int64     `json:"entity_id"`
	Description string    `json:"description"`
	FromStatus  string    `json:"from_status,omitempty"`
	ToStatus    string    `json:"to_status,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
