package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/tutormatch/tutormatch-api/internal/models"
	"github.com/tutormatch/tutormatch-api/pkg/jobs"
)

type fakeTutorings struct {
	mu        sync.Mutex
	items     map[string]*models.Tutoring
	listed    []models.Tutoring
	err       error
	updated   *models.Tutoring
	slots     []models.RawTimeSlot
	deleted   []string
	updateErr error
}

func (f *fakeTutorings) FindByID(ctx context.Context, id string) (*models.Tutoring, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTutorings) List(ctx context.Context, filter models.TutoringFilter) ([]models.Tutoring, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.listed, len(f.listed), nil
}

func (f *fakeTutorings) Update(ctx context.Context, tutoring *models.Tutoring, slots []models.RawTimeSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = tutoring
	f.slots = slots
	return nil
}

func (f *fakeTutorings) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSlots struct {
	slots []models.RawTimeSlot
	err   error
}

func (f *fakeSlots) ListByTutoring(ctx context.Context, tutoringID string) ([]models.RawTimeSlot, error) {
	return f.slots, f.err
}

type fakeReviews struct {
	mu      sync.Mutex
	byID    map[string][]models.Review
	err     error
	batches int
}

func (f *fakeReviews) ListByTutoring(ctx context.Context, tutoringID string) ([]models.Review, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[tutoringID], nil
}

func (f *fakeReviews) ListByTutorings(ctx context.Context, ids []string) (map[string][]models.Review, error) {
	f.mu.Lock()
	f.batches++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string][]models.Review, len(ids))
	for _, id := range ids {
		if reviews, ok := f.byID[id]; ok {
			out[id] = reviews
		}
	}
	return out, nil
}

type fakeUsers struct {
	users map[string]*models.User
	err   error
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) FindByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]*models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakeCourses struct {
	courses map[string]*models.Course
	err     error
}

func (f *fakeCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) TryEnqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type recordingInvalidator struct {
	ids []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, tutoringID string) {
	r.ids = append(r.ids, tutoringID)
}

func sampleTutoring() *models.Tutoring {
	course := "course-1"
	return &models.Tutoring{
		ID:                "tut-1",
		TutorID:           "tutor-1",
		CourseID:          &course,
		Title:             "Cálculo diferencial",
		Description:       "Límites y derivadas",
		Price:             35,
		WhatTheyWillLearn: []byte(`["Límites","Derivadas"]`),
	}
}

func sampleTutor() *models.User {
	phone := "987654321"
	return &models.User{ID: "tutor-1", FirstName: "Ana", LastName: "Pérez", Email: "ana@tutormatch.pe", Phone: &phone, Role: models.RoleTutor}
}
