package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tutormatch/tutormatch-api/internal/models"
)

// ReviewRepository reads tutoring reviews joined with the reviewing student.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs a ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ListByTutoring returns reviews newest first.
func (r *ReviewRepository) ListByTutoring(ctx context.Context, tutoringID string) ([]models.Review, error) {
	const query = `SELECT r.id, r.tutoring_id, r.student_id, r.rating, r.comment, COALESCE(r.likes, 0) AS likes, r.created_at,
COALESCE(u.first_name, '') AS student_first_name, COALESCE(u.last_name, '') AS student_last_name, u.avatar AS student_avatar
FROM tutoring_reviews r
LEFT JOIN users u ON u.id = r.student_id
WHERE r.tutoring_id = $1
ORDER BY r.created_at DESC NULLS LAST`
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, tutoringID); err != nil {
		return nil, fmt.Errorf("list tutoring reviews: %w", err)
	}
	return reviews, nil
}

// ListByTutorings returns reviews for several tutorings grouped by tutoring id.
func (r *ReviewRepository) ListByTutorings(ctx context.Context, tutoringIDs []string) (map[string][]models.Review, error) {
	grouped := make(map[string][]models.Review, len(tutoringIDs))
	if len(tutoringIDs) == 0 {
		return grouped, nil
	}

	query, args, err := sqlx.In(`SELECT id, tutoring_id, student_id, rating, COALESCE(likes, 0) AS likes, created_at
FROM tutoring_reviews WHERE tutoring_id IN (?)`, tutoringIDs)
	if err != nil {
		return nil, fmt.Errorf("build review batch query: %w", err)
	}
	query = r.db.Rebind(query)

	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, fmt.Errorf("list reviews by tutorings: %w", err)
	}
	for _, review := range reviews {
		grouped[review.TutoringID] = append(grouped[review.TutoringID], review)
	}
	return grouped, nil
}
