package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutormatch/tutormatch-api/internal/dto"
	"github.com/tutormatch/tutormatch-api/internal/models"
	appErrors "github.com/tutormatch/tutormatch-api/pkg/errors"
)

func newTutoringServiceFixture() (*TutoringService, *fakeTutorings, *recordingInvalidator) {
	repo := &fakeTutorings{items: map[string]*models.Tutoring{"tut-1": sampleTutoring()}}
	cards := &recordingInvalidator{}
	return NewTutoringService(repo, cards, nil, nil), repo, cards
}

func validUpdate() dto.UpdateTutoringRequest {
	return dto.UpdateTutoringRequest{
		Title:             "Cálculo integral",
		Description:       "Integrales definidas",
		Price:             40,
		WhatTheyWillLearn: []string{"Sustitución", "Por partes"},
		AvailableTimes: []dto.AvailabilitySlotRequest{
			{DayOfWeek: 2, StartTime: "09:00", EndTime: "11:00"},
		},
	}
}

func TestTutoringServiceUpdate(t *testing.T) {
	svc, repo, cards := newTutoringServiceFixture()

	updated, err := svc.Update(context.Background(), "tut-1", "tutor-1", validUpdate())
	require.NoError(t, err)

	assert.Equal(t, "Cálculo integral", updated.Title)
	assert.Equal(t, 40.0, updated.Price)
	assert.JSONEq(t, `["Sustitución","Por partes"]`, string(updated.WhatTheyWillLearn))
	require.Len(t, repo.slots, 1)
	day, ok := repo.slots[0].DayOfWeek.Number()
	require.True(t, ok)
	assert.Equal(t, 2.0, day)
	assert.Equal(t, []string{"tut-1"}, cards.ids)
}

func TestTutoringServiceUpdateEmptyLearningPoints(t *testing.T) {
	svc, repo, _ := newTutoringServiceFixture()
	req := validUpdate()
	req.WhatTheyWillLearn = nil

	_, err := svc.Update(context.Background(), "tut-1", "tutor-1", req)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(repo.updated.WhatTheyWillLearn))
}

func TestTutoringServiceUpdateRejectsNonOwner(t *testing.T) {
	svc, repo, cards := newTutoringServiceFixture()

	_, err := svc.Update(context.Background(), "tut-1", "student-1", validUpdate())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Nil(t, repo.updated)
	assert.Empty(t, cards.ids)

	_, err = svc.Update(context.Background(), "tut-1", "", validUpdate())
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestTutoringServiceUpdateValidation(t *testing.T) {
	cases := map[string]func(*dto.UpdateTutoringRequest){
		"missing title":    func(r *dto.UpdateTutoringRequest) { r.Title = "" },
		"negative price":   func(r *dto.UpdateTutoringRequest) { r.Price = -1 },
		"bad clock":        func(r *dto.UpdateTutoringRequest) { r.AvailableTimes[0].StartTime = "nueve" },
		"day out of range": func(r *dto.UpdateTutoringRequest) { r.AvailableTimes[0].DayOfWeek = 7 },
		"inverted range":   func(r *dto.UpdateTutoringRequest) { r.AvailableTimes[0].StartTime = "12:00" },
		"bad image url":    func(r *dto.UpdateTutoringRequest) { r.ImageURL = strPtr("not a url") },
		"blank point":      func(r *dto.UpdateTutoringRequest) { r.WhatTheyWillLearn = []string{""} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc, repo, _ := newTutoringServiceFixture()
			req := validUpdate()
			mutate(&req)

			_, err := svc.Update(context.Background(), "tut-1", "tutor-1", req)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
			assert.Nil(t, repo.updated)
		})
	}
}

func TestTutoringServiceUpdateNotFound(t *testing.T) {
	svc, repo, _ := newTutoringServiceFixture()

	_, err := svc.Update(context.Background(), "missing", "tutor-1", validUpdate())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	repo.updateErr = sql.ErrNoRows
	_, err = svc.Update(context.Background(), "tut-1", "tutor-1", validUpdate())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTutoringServiceDelete(t *testing.T) {
	svc, repo, cards := newTutoringServiceFixture()

	require.NoError(t, svc.Delete(context.Background(), "tut-1", "tutor-1"))
	assert.Equal(t, []string{"tut-1"}, repo.deleted)
	assert.Equal(t, []string{"tut-1"}, cards.ids)
}

func TestTutoringServiceDeleteErrors(t *testing.T) {
	svc, repo, _ := newTutoringServiceFixture()

	assert.ErrorIs(t, svc.Delete(context.Background(), "tut-1", "student-1"), appErrors.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing", "tutor-1"), appErrors.ErrNotFound)

	repo.updateErr = errors.New("db down")
	err := svc.Delete(context.Background(), "tut-1", "tutor-1")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestTutoringServiceWithoutInvalidator(t *testing.T) {
	repo := &fakeTutorings{items: map[string]*models.Tutoring{"tut-1": sampleTutoring()}}
	svc := NewTutoringService(repo, nil, nil, nil)

	assert.NoError(t, svc.Delete(context.Background(), "tut-1", "tutor-1"))
}
