package workflow

import (
	"testing"
	"time"

	"github.com/garyjia/supplier-workflow/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC)

func newTestRating() *entity.SupplierRating {
	r := &entity.SupplierRating{
		ID:                  11,
		SupplierID:          testSupplierID,
		ProjectID:           3,
		HSERating:           5,
		CommunicationRating: 4,
		CompetencyRating:    5,
		OnTimeRating:        4,
		ServiceRating:       5,
		RatingDate:          day0,
		CreatedBy:           operations.ID,
		Version:             1,
	}
	r.OverallRating = OverallRating(r.SubRatings())
	return r
}

func TestOverallRating(t *testing.T) {
	tests := []struct {
		name string
		subs []int
		want float64
	}{
		{"all rated", []int{5, 4, 5, 4, 5}, 4.6},
		{"some unset", []int{5, 0, 4, 0, 0}, 4.5},
		{"none rated", []int{0, 0, 0, 0, 0}, 0},
		{"repeating decimal", []int{5, 4, 4, 0, 0}, 4.33},
		{"rounds up", []int{5, 5, 4, 0, 0}, 4.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallRating(tt.subs))
		})
	}
}

func TestValidateSubRatings(t *testing.T) {
	assert.NoError(t, ValidateSubRatings([]int{1, 5, 0, 3, 2}))

	err := ValidateSubRatings([]int{6, 1, 1, -1, 1})
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "hse_rating")
	assert.Contains(t, err.Error(), "on_time_rating")
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(day0, day0.Add(9*time.Hour)))
	assert.Equal(t, 1, DaysBetween(day0, time.Date(2026, 5, 11, 0, 5, 0, 0, time.UTC)))
	assert.Equal(t, 5, DaysBetween(day0, day0.AddDate(0, 0, 5)))
	assert.Equal(t, -1, DaysBetween(day0, day0.AddDate(0, 0, -1)))
}

func TestCanAccept_WindowBoundary(t *testing.T) {
	r := newTestRating()

	assert.NoError(t, CanAccept(r, supplier, day0.AddDate(0, 0, 5).Add(9*time.Hour)))

	err := CanAccept(r, supplier, day0.AddDate(0, 0, 6))
	assert.ErrorIs(t, err, ErrNotEligible)
	assert.ErrorIs(t, err, ErrWindowExpired)
}

func TestCanAccept_Reasons(t *testing.T) {
	now := day0.AddDate(0, 0, 1)

	err := CanAccept(newTestRating(), operations, now)
	assert.ErrorIs(t, err, ErrWrongActor)

	err = CanAccept(newTestRating(), stranger, now)
	assert.ErrorIs(t, err, ErrWrongActor)
	assert.ErrorIs(t, err, ErrNotEligible)

	accepted := newTestRating()
	accepted.AcceptedBySupplier = true
	assert.ErrorIs(t, CanAccept(accepted, supplier, now), ErrAlreadyAccepted)
}

func TestAcceptRating(t *testing.T) {
	r := newTestRating()
	assert.Equal(t, 4.6, r.OverallRating)

	day4 := day0.AddDate(0, 0, 4)
	accepted, err := AcceptRating(r, supplier, " Thanks ", day4)
	require.NoError(t, err)
	assert.True(t, accepted.AcceptedBySupplier)
	require.NotNil(t, accepted.AcceptedDate)
	assert.Equal(t, day4, *accepted.AcceptedDate)
	assert.Equal(t, "Thanks", accepted.SupplierComment)
	assert.False(t, r.AcceptedBySupplier, "input rating must not change")

	_, err = AcceptRating(accepted, supplier, "again", day4)
	assert.ErrorIs(t, err, ErrAlreadyAccepted)

	_, err = AcceptRating(r, stranger, "mine?", day4)
	assert.ErrorIs(t, err, ErrWrongActor)
}

func TestRatingStatus(t *testing.T) {
	r := newTestRating()
	assert.Equal(t, entity.RatingStatusPending, RatingStatus(r, day0.AddDate(0, 0, 5)))
	assert.Equal(t, entity.RatingStatusExpired, RatingStatus(r, day0.AddDate(0, 0, 6)))

	r.AcceptedBySupplier = true
	assert.Equal(t, entity.RatingStatusAccepted, RatingStatus(r, day0.AddDate(0, 0, 30)))
}

func TestRatingPermissions(t *testing.T) {
	assert.NoError(t, CanCreateRating(operations))
	assert.ErrorIs(t, CanCreateRating(purchasing), ErrInvalidTransition)
	assert.NoError(t, CanRequestRating(purchasing))
	assert.ErrorIs(t, CanRequestRating(supplier), ErrInvalidTransition)
}
