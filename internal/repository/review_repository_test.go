package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRepositoryListByTutoring(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	created := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "tutoring_id", "student_id", "rating", "comment", "likes", "created_at", "student_first_name", "student_last_name", "student_avatar"}).
		AddRow("r1", "t1", "s1", 5, "Excelente", 3, created, "Luis", "Quispe", nil).
		AddRow("r2", "t1", "s2", 4, nil, 0, nil, "", "", nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tutoring_reviews r LEFT JOIN users u ON u.id = r.student_id WHERE r.tutoring_id = $1")).
		WithArgs("t1").
		WillReturnRows(rows)

	reviews, err := repo.ListByTutoring(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "Luis", reviews[0].StudentFirstName)
	require.NotNil(t, reviews[0].CreatedAt)
	assert.True(t, created.Equal(*reviews[0].CreatedAt))
	assert.Nil(t, reviews[1].Comment)
	assert.Nil(t, reviews[1].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryListByTutorings(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "tutoring_id", "student_id", "rating", "likes", "created_at"}).
		AddRow("r1", "t1", "s1", 5, 0, nil).
		AddRow("r2", "t2", "s1", 3, 0, nil).
		AddRow("r3", "t1", "s2", 4, 1, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tutoring_reviews WHERE tutoring_id IN (?, ?)")).
		WithArgs("t1", "t2").
		WillReturnRows(rows)

	grouped, err := repo.ListByTutorings(context.Background(), []string{"t1", "t2"})
	require.NoError(t, err)
	assert.Len(t, grouped["t1"], 2)
	assert.Len(t, grouped["t2"], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
