package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tutormatch/tutormatch-api/internal/models"
)

const tutoringColumns = `id, COALESCE(tutor_id::text, '') AS tutor_id, course_id, title, COALESCE(description, '') AS description,
price, what_they_will_learn, image_url, created_at, updated_at`

// TutoringRepository manages persistence for tutorings.
type TutoringRepository struct {
	db *sqlx.DB
}

// NewTutoringRepository constructs a TutoringRepository.
func NewTutoringRepository(db *sqlx.DB) *TutoringRepository {
	return &TutoringRepository{db: db}
}

// List returns tutorings matching filters along with total count.
func (r *TutoringRepository) List(ctx context.Context, filter models.TutoringFilter) ([]models.Tutoring, int, error) {
	base := "FROM tutorings WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(COALESCE(description, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page, size := normalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", tutoringColumns, base, size, offset)
	var tutorings []models.Tutoring
	if err := r.db.SelectContext(ctx, &tutorings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tutorings: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count tutorings: %w", err)
	}
	return tutorings, total, nil
}

// FindByID fetches a tutoring by ID. Missing rows surface as sql.ErrNoRows.
func (r *TutoringRepository) FindByID(ctx context.Context, id string) (*models.Tutoring, error) {
	query := fmt.Sprintf("SELECT %s FROM tutorings WHERE id = $1", tutoringColumns)
	var tutoring models.Tutoring
	if err := r.db.GetContext(ctx, &tutoring, query, id); err != nil {
		return nil, err
	}
	return &tutoring, nil
}

// Update writes editable fields and replaces the availability rows in one transaction.
func (r *TutoringRepository) Update(ctx context.Context, tutoring *models.Tutoring, slots []models.RawTimeSlot) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tutoring update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	tutoring.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE tutorings SET title = :title, description = :description, price = :price,
course_id = :course_id, image_url = :image_url, what_they_will_learn = :what_they_will_learn, updated_at = :updated_at
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, tx, updateQuery, tutoring)
	if err != nil {
		return fmt.Errorf("update tutoring: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM tutoring_available_times WHERE tutoring_id = $1`, tutoring.ID); err != nil {
		return fmt.Errorf("clear tutoring availability: %w", err)
	}
	const insertSlot = `INSERT INTO tutoring_available_times (id, tutoring_id, day_of_week, start_time, end_time)
VALUES ($1, $2, $3, $4, $5)`
	for _, slot := range slots {
		if _, err = tx.ExecContext(ctx, insertSlot, uuid.NewString(), tutoring.ID, slot.DayOfWeek, string(slot.StartTime), string(slot.EndTime)); err != nil {
			return fmt.Errorf("insert tutoring availability: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tutoring update: %w", err)
	}
	tutoring.AvailableTimes = slots
	return nil
}

// Delete removes a tutoring and its availability rows. Reviews are kept for history.
func (r *TutoringRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tutoring delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM tutoring_available_times WHERE tutoring_id = $1`, id); err != nil {
		return fmt.Errorf("delete tutoring availability: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tutorings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tutoring: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tutoring delete: %w", err)
	}
	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
