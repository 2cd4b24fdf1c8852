package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Claim is a damage claim raised against a supplier
type Claim struct {
	ID                 int64           `json:"id"`
	ClaimNumber        string          `json:"claim_number"`
	SupplierID         int64           `json:"supplier_id"`
	ProjectID          *int64          `json:"project_id,omitempty"`
	AgreementID        *int64          `json:"agreement_id,omitempty"`
	Area               string          `json:"area"`
	DamageAmount       decimal.Decimal `json:"damage_amount"`
	ClaimDescription   string          `json:"claim_description"`
	DamageDescription  string          `json:"damage_description"`
	DefectsDescription string          `json:"defects_description,omitempty"`
	DemandType         string          `json:"demand_type,omitempty"`
	DemandDetail       string          `json:"demand_detail,omitempty"`
	Status             string          `json:"status"`
	DateEntered        time.Time       `json:"date_entered"`
	DateApproved       *time.Time      `json:"date_approved,omitempty"`
	DateLegalApproved  *time.Time      `json:"date_legal_approved,omitempty"`
	DateSentToSupplier *time.Time      `json:"date_sent_to_supplier,omitempty"`
	DateFeedback       *time.Time      `json:"date_feedback,omitempty"`
	// AcceptedBySupplier is nil until the supplier has responded
	AcceptedBySupplier *bool     `json:"accepted_by_supplier,omitempty"`
	SupplierResponse   string    `json:"supplier_response,omitempty"`
	RejectionReason    string    `json:"rejection_reason,omitempty"`
	CreatedBy          int64     `json:"created_by"`
	Version            int64     `json:"version"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the claim
func (c *Claim) Clone() *Claim {
	if c == nil {
		return nil
	}
	cp := *c
	cp.ProjectID = cloneInt64(c.ProjectID)
	cp.AgreementID = cloneInt64(c.AgreementID)
	cp.DateApproved = cloneTime(c.DateApproved)
	cp.DateLegalApproved = cloneTime(c.DateLegalApproved)
	cp.DateSentToSupplier = cloneTime(c.DateSentToSupplier)
	cp.DateFeedback = cloneTime(c.DateFeedback)
	if c.AcceptedBySupplier != nil {
		v := *c.AcceptedBySupplier
		cp.AcceptedBySupplier = &v
	}
	return &cp
}

// ClaimPatch carries the editable claim fields. Nil fields are left unchanged.
type ClaimPatch struct {
	Area               *string          `json:"area,omitempty"`
	DamageAmount       *decimal.Decimal `json:"damage_amount,omitempty"`
	ClaimDescription   *string          `json:"claim_description,omitempty"`
	DamageDescription  *string          `json:"damage_description,omitempty"`
	DefectsDescription *string          `json:"defects_description,omitempty"`
	DemandType         *string          `json:"demand_type,omitempty"`
	DemandDetail       *string          `json:"demand_detail,omitempty"`
	SupplierResponse   *string          `json:"supplier_response,omitempty"`
}

// TouchesInternalFields reports whether the patch changes anything besides
// the supplier response text
func (p ClaimPatch) TouchesInternalFields() bool {
	return p.Area != nil || p.DamageAmount != nil || p.ClaimDescription != nil ||
		p.DamageDescription != nil || p.DefectsDescription != nil ||
		p.DemandType != nil || p.DemandDetail != nil
}

// IsEmpty reports whether the patch changes nothing
func (p ClaimPatch) IsEmpty() bool {
	return !p.TouchesInternalFields() && p.SupplierResponse == nil
}

// Apply writes the non-nil patch fields onto the claim
func (p ClaimPatch) Apply(c *Claim) {
	if p.Area != nil {
		c.Area = *p.Area
	}
	if p.DamageAmount != nil {
		c.DamageAmount = *p.DamageAmount
	}
	if p.ClaimDescription != nil {
		c.ClaimDescription = *p.ClaimDescription
	}
	if p.DamageDescription != nil {
		c.DamageDescription = *p.DamageDescription
	}
	if p.DefectsDescription != nil {
		c.DefectsDescription = *p.DefectsDescription
	}
	if p.DemandType != nil {
		c.DemandType = *p.DemandType
	}
	if p.DemandDetail != nil {
		c.DemandDetail = *p.DemandDetail
	}
	if p.SupplierResponse != nil {
		c.SupplierResponse = *p.SupplierResponse
	}
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
