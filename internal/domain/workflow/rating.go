package workflow

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/garyjia/supplier-workflow/internal/domain/entity"
)

// AcceptanceWindowDays is how many calendar days after the rating date the
// supplier may still accept it
const AcceptanceWindowDays = 5

// DaysBetween counts calendar days from start to end in start's location
func DaysBetween(start, end time.Time) int {
	end = end.In(start.Location())
	y1, m1, d1 := start.Date()
	y2, m2, d2 := end.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// OverallRating is the mean of the non-zero sub-ratings rounded to two
// decimals, or 0 when nothing was rated
func OverallRating(subs []int) float64 {
	sum, n := 0, 0
	for _, v := range subs {
		if v == 0 {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*100) / 100
}

var subRatingNames = []string{"hse_rating", "communication_rating", "competency_rating", "on_time_rating", "service_rating"}

// ValidateSubRatings checks every sub-rating is unset or within [1,5]
func ValidateSubRatings(subs []int) error {
	var problems []string
	for i, v := range subs {
		if v == 0 || (v >= 1 && v <= 5) {
			continue
		}
		name := fmt.Sprintf("rating %d", i)
		if i < len(subRatingNames) {
			name = subRatingNames[i]
		}
		problems = append(problems, fmt.Sprintf("%s must be between 1 and 5, got %d", name, v))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(problems, "; "))
	}
	return nil
}

// CanAccept returns nil if the actor may accept the rating now, otherwise an
// error matching ErrNotEligible that names the reason
func CanAccept(r *entity.SupplierRating, actor Actor, now time.Time) error {
	if actor.Role != RoleSupplier {
		return fmt.Errorf("%w: role %q cannot accept ratings", ErrWrongActor, actor.Role)
	}
	if !actor.IsSupplierFor(r.SupplierID) {
		return fmt.Errorf("%w: rating belongs to another supplier", ErrWrongActor)
	}
	if r.AcceptedBySupplier {
		return ErrAlreadyAccepted
	}
	if days := DaysBetween(r.RatingDate, now); days > AcceptanceWindowDays {
		return fmt.Errorf("%w: rated %d days ago, limit is %d", ErrWindowExpired, days, AcceptanceWindowDays)
	}
	return nil
}

// AcceptRating returns an accepted copy of the rating carrying the supplier's comment
func AcceptRating(r *entity.SupplierRating, actor Actor, comment string, now time.Time) (*entity.SupplierRating, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: rating is required", ErrValidationFailed)
	}
	if err := CanAccept(r, actor, now); err != nil {
		return nil, err
	}

	updated := r.Clone()
	ts := now
	updated.AcceptedBySupplier = true
	updated.AcceptedDate = &ts
	updated.SupplierComment = strings.TrimSpace(comment)
	updated.UpdatedAt = now
	return updated, nil
}

// RatingStatus derives the acceptance state reported to readers
func RatingStatus(r *entity.SupplierRating, now time.Time) string {
	switch {
	case r.AcceptedBySupplier:
		return entity.RatingStatusAccepted
	case DaysBetween(r.RatingDate, now) > AcceptanceWindowDays:
		return entity.RatingStatusExpired
	default:
		return entity.RatingStatusPending
	}
}

// CanCreateRating returns nil if the actor may rate suppliers
func CanCreateRating(actor Actor) error {
	if actor.Role != RoleOperations {
		return fmt.Errorf("%w: role %q cannot rate suppliers", ErrInvalidTransition, actor.Role)
	}
	return nil
}

// CanRequestRating returns nil if the actor may ask an engineer for a rating
func CanRequestRating(actor Actor) error {
	if actor.Role != RolePurchasing {
		return fmt.Errorf("%w: role %q cannot request ratings", ErrInvalidTransition, actor.Role)
	}
	return nil
}
