package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tutormatch/tutormatch-api/internal/models"
)

// AvailabilityRepository reads raw availability rows. Rows are returned exactly as
// stored; normalization happens in the service layer.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository builds repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByTutoring returns the availability rows of one tutoring.
func (r *AvailabilityRepository) ListByTutoring(ctx context.Context, tutoringID string) ([]models.RawTimeSlot, error) {
	const query = `SELECT day_of_week, start_time::text AS start_time, end_time::text AS end_time
FROM tutoring_available_times WHERE tutoring_id = $1`
	var slots []models.RawTimeSlot
	if err := r.db.SelectContext(ctx, &slots, query, tutoringID); err != nil {
		return nil, fmt.Errorf("list tutoring availability: %w", err)
	}
	return slots, nil
}
