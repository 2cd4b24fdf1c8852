package entity

import "time"

// SupplierRating is an operations engineer's evaluation of a supplier on a project.
// Sub-ratings are in [1,5]; zero means the aspect was not rated.
type SupplierRating struct {
	ID                  int64      `json:"id"`
	SupplierID          int64      `json:"supplier_id"`
	ProjectID           int64      `json:"project_id"`
	HSERating           int        `json:"hse_rating"`
	CommunicationRating int        `json:"communication_rating"`
	CompetencyRating    int        `json:"competency_rating"`
	OnTimeRating        int        `json:"on_time_rating"`
	ServiceRating       int        `json:"service_rating"`
	OverallRating       float64    `json:"overall_rating"`
	RatingDate          time.Time  `json:"rating_date"`
	AcceptedBySupplier  bool       `json:"accepted_by_supplier"`
	AcceptedDate        *time.Time `json:"accepted_date,omitempty"`
	SupplierComment     string     `json:"supplier_comment,omitempty"`
	CreatedBy           int64      `json:"created_by"`
	Version             int64      `json:"version"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// SubRatings returns the five sub-ratings in a fixed order:
// HSE, communication, competency, on-time, service
func (r *SupplierRating) SubRatings() []int {
	return []int{r.HSERating, r.CommunicationRating, r.CompetencyRating, r.OnTimeRating, r.ServiceRating}
}

// Clone returns a deep copy of the rating
func (r *SupplierRating) Clone() *SupplierRating {
	if r == nil {
		return nil
	}
	cp := *r
	cp.AcceptedDate = cloneTime(r.AcceptedDate)
	return &cp
}

// RatingRequest asks an operations engineer to rate a supplier on a project
type RatingRequest struct {
	SupplierID  int64     `json:"supplier_id"`
	ProjectID   int64     `json:"project_id"`
	EngineerID  int64     `json:"engineer_id"`
	RequestedBy int64     `json:"requested_by"`
	Message     string    `json:"message,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
