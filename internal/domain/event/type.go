package event

// Type identifies the type of domain event
type Type string

const (
	TypeClaimCreated        Type = "claim.created"
	TypeClaimEdited         Type = "claim.edited"
	TypeClaimTransitioned   Type = "claim.transitioned"
	TypeClaimSentToSupplier Type = "claim.sent_to_supplier"
	TypeRatingCreated       Type = "rating.created"
	TypeRatingRequested     Type = "rating.requested"
	TypeRatingAccepted      Type = "rating.accepted"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeClaimCreated,
		TypeClaimEdited,
		TypeClaimTransitioned,
		TypeClaimSentToSupplier,
		TypeRatingCreated,
		TypeRatingRequested,
		TypeRatingAccepted:
		return true
	default:
		return false
	}
}
