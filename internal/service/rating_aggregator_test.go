package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tutormatch/tutormatch-api/internal/models"
)

func reviewsWithRatings(ratings ...int) []models.Review {
	out := make([]models.Review, len(ratings))
	for i, r := range ratings {
		out[i] = models.Review{ID: string(rune('a' + i)), Rating: r}
	}
	return out
}

func TestAggregateRating(t *testing.T) {
	tests := []struct {
		name    string
		reviews []models.Review
		want    models.RatingSummary
	}{
		{name: "empty", reviews: nil, want: models.RatingSummary{Average: 0, Count: 0}},
		{name: "rounds to one decimal", reviews: reviewsWithRatings(5, 4, 4), want: models.RatingSummary{Average: 4.3, Count: 3}},
		{name: "single", reviews: reviewsWithRatings(2), want: models.RatingSummary{Average: 2, Count: 1}},
		{name: "half rounds up", reviews: reviewsWithRatings(5, 4), want: models.RatingSummary{Average: 4.5, Count: 2}},
		{name: "two thirds", reviews: reviewsWithRatings(1, 2, 2), want: models.RatingSummary{Average: 1.7, Count: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateRating(tt.reviews))
		})
	}
}

func TestAggregateRatingIgnoresLikesAndOrder(t *testing.T) {
	a := []models.Review{{Rating: 3, Likes: 100}, {Rating: 5}, {Rating: 4, Likes: 2}}
	b := []models.Review{{Rating: 4}, {Rating: 3}, {Rating: 5, Likes: 7}}

	assert.Equal(t, AggregateRating(a), AggregateRating(b))
}

func TestRatingSummaryStars(t *testing.T) {
	assert.Equal(t, 4, AggregateRating(reviewsWithRatings(5, 4, 4)).Stars())
	assert.Equal(t, 5, AggregateRating(reviewsWithRatings(5, 4)).Stars())
	assert.Equal(t, 0, AggregateRating(nil).Stars())
}
