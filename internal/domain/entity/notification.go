package entity

import "time"

// NotificationStaleAfter is how long a notification may stay PENDING before
// it is treated as abandoned and picked up for retry
const NotificationStaleAfter = 10 * time.Minute

// Recipient types of a notification
const (
	RecipientSupplier = "supplier"
	RecipientUser     = "user"
)

// Notification records one outbound message and its delivery state.
// RecipientType and RecipientID name the directory entry, so an address that
// could not be resolved at first can be looked up again on retry.
type Notification struct {
	ID            int64      `json:"id"`
	Kind          string     `json:"kind"`
	EntityType    string     `json:"entity_type"`
	EntityID      int64      `json:"entity_id"`
	RecipientType string     `json:"recipient_type"`
	RecipientID   int64      `json:"recipient_id"`
	Recipient     string     `json:"recipient"`
	Payload       string     `json:"payload"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
