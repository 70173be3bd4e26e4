package service

import (
	"math"

	"github.com/tutormatch/tutormatch-api/internal/models"
)

// AggregateRating averages review ratings to one decimal. An empty collection is a
// zero summary, not an error. Likes are ignored.
func AggregateRating(reviews []models.Review) models.RatingSummary {
	count := len(reviews)
	if count == 0 {
		return models.RatingSummary{}
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}

	return models.RatingSummary{
		Average: roundToTenth(float64(sum) / float64(count)),
		Count:   count,
	}
}

func roundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
