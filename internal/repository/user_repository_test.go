package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutormatch/tutormatch-api/internal/models"
)

var userRowColumns = []string{"id", "email", "password_hash", "first_name", "last_name", "phone", "avatar", "role", "created_at", "updated_at"}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "tutor@example.com", "hash", "Ana", "Pérez", "999888777", nil, string(models.RoleTutor), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("Tutor@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "Tutor@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana Pérez", user.FullName())
	require.NotNil(t, user.Phone)
	assert.Equal(t, "999888777", *user.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 LIMIT 1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFindByIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id IN (?, ?)")).
		WithArgs("u1", "u2").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "a@example.com", "h", "Ana", "Pérez", nil, nil, "tutor", now, now))

	users, err := repo.FindByIDs(context.Background(), []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Contains(t, users, "u1")
	assert.NotContains(t, users, "u2")

	empty, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}
