package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tutormatch/tutormatch-api/internal/dto"
	"github.com/tutormatch/tutormatch-api/internal/models"
	appErrors "github.com/tutormatch/tutormatch-api/pkg/errors"
)

const testDefaultImage = "https://cdn.tutormatch.pe/placeholder.png"

type detailsFixture struct {
	tutorings *fakeTutorings
	slots     *fakeSlots
	reviews   *fakeReviews
	users     *fakeUsers
	courses   *fakeCourses
}

func newDetailsFixture() *detailsFixture {
	created := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	comment := "Muy clara"
	return &detailsFixture{
		tutorings: &fakeTutorings{items: map[string]*models.Tutoring{"tut-1": sampleTutoring()}},
		slots: &fakeSlots{slots: []models.RawTimeSlot{
			{DayOfWeek: models.DayNumber(1), StartTime: "14:00", EndTime: "15:30"},
		}},
		reviews: &fakeReviews{byID: map[string][]models.Review{"tut-1": {
			{ID: "r1", Rating: 5, Comment: &comment, CreatedAt: &created, StudentFirstName: "Luis", StudentLastName: "Soto"},
			{ID: "r2", Rating: 4},
		}}},
		users:   &fakeUsers{users: map[string]*models.User{"tutor-1": sampleTutor()}},
		courses: &fakeCourses{courses: map[string]*models.Course{"course-1": {ID: "course-1", Name: "Cálculo I", SemesterNumber: 2}}},
	}
}

func (f *detailsFixture) service(logger *zap.Logger) *TutoringDetailsService {
	return NewTutoringDetailsService(f.tutorings, f.slots, f.reviews, f.users, f.courses, NewMetricsService(), logger,
		DetailsConfig{DefaultImageURL: testDefaultImage, WhatsAppCountryCode: "51"})
}

func TestTutoringDetailsServiceGetComposesView(t *testing.T) {
	svc := newDetailsFixture().service(nil)

	details, err := svc.Get(context.Background(), "tut-1", "")
	require.NoError(t, err)

	assert.Equal(t, "S/. 35.00", details.PriceLabel)
	assert.Equal(t, testDefaultImage, details.ImageURL)
	assert.Equal(t, models.LearningPoints{"Límites", "Derivadas"}, details.LearningPoints)
	assert.Equal(t, []string{"2° Semestre", "Cálculo I"}, details.Tags)
	assert.Equal(t, "Ana Pérez", details.TutorName)
	require.NotNil(t, details.Tutor)
	assert.Equal(t, "tutor-1", details.Tutor.ID)

	assert.Equal(t, 4.5, details.Rating.Average)
	assert.Equal(t, "(2 reseñas)", details.Rating.CountLabel)
	require.Len(t, details.Reviews, 2)
	assert.Equal(t, "5 de marzo de 2024", details.Reviews[0].DateLabel)
	assert.Equal(t, "Sin comentarios adicionales.", details.Reviews[1].Comment)

	assert.Equal(t, []string{"14-15", "15-16"}, details.Availability["Lunes"].Sorted())
	assert.Len(t, details.Schedule.Rows, len(models.GridHours()))

	assert.False(t, details.IsOwner)
	assert.Equal(t, []dto.TutoringAction{dto.ActionRequest}, details.Actions)
	require.NotNil(t, details.Contact)
	assert.True(t, details.Contact.HasWhatsApp)
}

func TestTutoringDetailsServiceGetForOwner(t *testing.T) {
	svc := newDetailsFixture().service(nil)

	details, err := svc.Get(context.Background(), "tut-1", "tutor-1")
	require.NoError(t, err)

	assert.True(t, details.IsOwner)
	assert.Equal(t, []dto.TutoringAction{dto.ActionEdit, dto.ActionDelete}, details.Actions)
}

func TestTutoringDetailsServiceGetOtherViewerIsNotOwner(t *testing.T) {
	svc := newDetailsFixture().service(nil)

	details, err := svc.Get(context.Background(), "tut-1", "student-9")
	require.NoError(t, err)
	assert.False(t, details.IsOwner)
}

func TestTutoringDetailsServiceGetNotFound(t *testing.T) {
	svc := newDetailsFixture().service(nil)

	_, err := svc.Get(context.Background(), "missing", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTutoringDetailsServiceGetLoadFailure(t *testing.T) {
	fx := newDetailsFixture()
	fx.tutorings.err = errors.New("connection reset")

	_, err := fx.service(nil).Get(context.Background(), "tut-1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestTutoringDetailsServiceDegradesCollaborators(t *testing.T) {
	fx := newDetailsFixture()
	fx.slots.err = errors.New("availability down")
	fx.reviews.err = errors.New("reviews down")
	fx.users.err = errors.New("users down")
	fx.courses.err = errors.New("courses down")

	core, logs := observer.New(zapcore.WarnLevel)
	details, err := fx.service(zap.New(core)).Get(context.Background(), "tut-1", "tutor-1")
	require.NoError(t, err)

	assert.Equal(t, "Tutor no disponible", details.TutorName)
	assert.Nil(t, details.Tutor)
	assert.Nil(t, details.Contact)
	assert.Equal(t, []string{"Tutoría"}, details.Tags)
	assert.Equal(t, 0, details.Rating.Count)
	assert.Empty(t, details.Reviews)
	assert.Len(t, details.Availability, 7)
	for _, day := range models.DayNames() {
		assert.Empty(t, details.Availability[day])
	}
	// tutor_id on the tutoring still identifies the owner
	assert.True(t, details.IsOwner)

	assert.Equal(t, 4, logs.FilterMessage("tutoring details collaborator failed").Len())
}

func TestTutoringDetailsServiceSkipsTutorLookupWithoutTutorID(t *testing.T) {
	fx := newDetailsFixture()
	fx.tutorings.items["tut-1"].TutorID = ""
	fx.tutorings.items["tut-1"].CourseID = nil

	details, err := fx.service(nil).Get(context.Background(), "tut-1", "tutor-1")
	require.NoError(t, err)

	assert.False(t, details.IsOwner)
	assert.Equal(t, "Tutor no disponible", details.TutorName)
	assert.Equal(t, []string{"Tutoría"}, details.Tags)
}

func TestTutoringDetailsServiceAvailability(t *testing.T) {
	svc := newDetailsFixture().service(nil)

	grid, table, err := svc.Availability(context.Background(), "tut-1")
	require.NoError(t, err)

	assert.True(t, grid.Contains("Lunes", "14-15"))
	assert.Equal(t, []string{"DOM", "LUN", "MAR", "MIÉ", "JUE", "VIE", "SÁB"}, table.Headers)

	_, _, err = svc.Availability(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestTutoringDetailsServiceRatingAndOwner(t *testing.T) {
	svc := newDetailsFixture().service(nil)

	rating, err := svc.Rating(context.Background(), "tut-1")
	require.NoError(t, err)
	assert.Equal(t, "4.5", rating.AverageLabel)
	assert.Equal(t, 5, rating.Stars)

	owner, err := svc.OwnerID(context.Background(), "tut-1")
	require.NoError(t, err)
	assert.Equal(t, "tutor-1", owner)
}
