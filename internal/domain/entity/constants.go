package entity

// Claim status constants. They mirror workflow.State values so rows can be
// scanned without importing the workflow package.
const (
	ClaimStatusNew                = "NEW"
	ClaimStatusUnderReview        = "UNDER_REVIEW"
	ClaimStatusOperationsApproved = "OPERATIONS_APPROVED"
	ClaimStatusLegalApproved      = "LEGAL_APPROVED"
	ClaimStatusSentToSupplier     = "SENT_TO_SUPPLIER"
	ClaimStatusAccepted           = "ACCEPTED"
	ClaimStatusRejectedBySupplier = "REJECTED_BY_SUPPLIER"
	ClaimStatusRejected           = "REJECTED"
)

// Claim area constants
const (
	AreaMaterial = "Material"
	AreaService  = "Service"
	AreaHSE      = "HSE"
)

// Demand type constants (remedy requested from the supplier)
const (
	DemandCompensation   = "Compensation"
	DemandReplacement    = "Replacement"
	DemandRepair         = "Repair"
	DemandPriceReduction = "PriceReduction"
	DemandOther          = "Other"
)

// Entity type constants used by audit entries and events
const (
	EntityTypeClaim  = "claim"
	EntityTypeRating = "rating"
	// EntityTypeSupplier is used for audit entries that concern a supplier
	// rather than a stored claim or rating
	EntityTypeSupplier = "supplier"
)

// Rating status values reported by read models. Ratings store only the
// accepted flag; pending and expired are derived at request time.
const (
	RatingStatusPending  = "PENDING_ACCEPTANCE"
	RatingStatusAccepted = "ACCEPTED"
	RatingStatusExpired  = "EXPIRED"
)

// Notification status constants
const (
	NotificationStatusPending = "PENDING"
	NotificationStatusSent    = "SENT"
	NotificationStatusFailed  = "FAILED"
)

// Notification kinds
const (
	NotificationClaimSentToSupplier = "claim-sent-to-supplier"
	NotificationRatingRequested     = "rating-requested"
	NotificationRatingCompleted     = "rating-completed"
	NotificationRatingAccepted      = "rating-accepted"
)

// Audit action constants
const (
	AuditActionClaimCreated    = "claim.created"
	AuditActionClaimEdited     = "claim.edited"
	AuditActionClaimTransition = "claim.transition"
	AuditActionRatingCreated   = "rating.created"
	AuditActionRatingRequested = "rating.requested"
	AuditActionRatingAccepted  = "rating.accepted"
)

var validAreas = map[string]bool{
	AreaMaterial: true,
	AreaService:  true,
	AreaHSE:      true,
}

var validDemandTypes = map[string]bool{
	DemandCompensation:   true,
	DemandReplacement:    true,
	DemandRepair:         true,
	DemandPriceReduction: true,
	DemandOther:          true,
}

// IsValidArea reports whether area is one of the known claim areas
func IsValidArea(area string) bool {
	return validAreas[area]
}

// IsValidDemandType reports whether demand is a known remedy kind.
// The empty string is accepted since the demand type is optional.
func IsValidDemandType(demand string) bool {
	return demand == "" || validDemandTypes[demand]
}
