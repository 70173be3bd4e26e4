package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/tutormatch/tutormatch-api/internal/dto"
	"github.com/tutormatch/tutormatch-api/internal/models"
	appErrors "github.com/tutormatch/tutormatch-api/pkg/errors"
)

type tutoringReader interface {
	FindByID(ctx context.Context, id string) (*models.Tutoring, error)
}

type availabilityReader interface {
	ListByTutoring(ctx context.Context, tutoringID string) ([]models.RawTimeSlot, error)
}

type reviewReader interface {
	ListByTutoring(ctx context.Context, tutoringID string) ([]models.Review, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// DetailsConfig carries presentation defaults for the details view.
type DetailsConfig struct {
	DefaultImageURL     string
	WhatsAppCountryCode string
}

// TutoringDetailsService composes the tutoring details view. Only the tutoring
// itself is required; every other collaborator degrades to a fallback.
type TutoringDetailsService struct {
	tutorings    tutoringReader
	availability availabilityReader
	reviews      reviewReader
	users        userReader
	courses      courseReader
	grid         *AvailabilityGridBuilder
	metrics      *MetricsService
	logger       *zap.Logger
	config       DetailsConfig
}

// NewTutoringDetailsService wires the details composition.
func NewTutoringDetailsService(
	tutorings tutoringReader,
	availability availabilityReader,
	reviews reviewReader,
	users userReader,
	courses courseReader,
	metrics *MetricsService,
	logger *zap.Logger,
	config DetailsConfig,
) *TutoringDetailsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutoringDetailsService{
		tutorings:    tutorings,
		availability: availability,
		reviews:      reviews,
		users:        users,
		courses:      courses,
		grid:         NewAvailabilityGridBuilder(logger, metrics),
		metrics:      metrics,
		logger:       logger,
		config:       config,
	}
}

type detailsParts struct {
	slots   []models.RawTimeSlot
	reviews []models.Review
	tutor   *models.User
	course  *models.Course
}

// Get builds the details view of tutoringID as seen by viewerID. An empty viewer
// is anonymous and never owns anything.
func (s *TutoringDetailsService) Get(ctx context.Context, tutoringID, viewerID string) (*dto.TutoringDetailsResponse, error) {
	tutoring, err := s.load(ctx, tutoringID)
	if err != nil {
		return nil, err
	}

	parts := s.collect(ctx, tutoring)
	grid := s.grid.Build(parts.slots)
	isOwner := ComputeOwnership(viewerID, ResolveOwnerID(tutoring.TutorID, parts.tutor))

	tutorName := tutorUnavailable
	var tutorSummary *dto.TutorSummary
	if parts.tutor != nil {
		tutorName = parts.tutor.FullName()
		tutorSummary = &dto.TutorSummary{
			ID:        parts.tutor.ID,
			FirstName: parts.tutor.FirstName,
			LastName:  parts.tutor.LastName,
			Email:     parts.tutor.Email,
			Avatar:    parts.tutor.Avatar,
		}
	}

	return &dto.TutoringDetailsResponse{
		ID:             tutoring.ID,
		Title:          tutoring.Title,
		Description:    tutoring.Description,
		Price:          tutoring.Price,
		PriceLabel:     formatPrice(tutoring.Price),
		ImageURL:       imageOrDefault(tutoring.ImageURL, s.config.DefaultImageURL),
		LearningPoints: models.ParseLearningPoints(tutoring.WhatTheyWillLearn),
		Tags:           courseTags(parts.course),
		Tutor:          tutorSummary,
		TutorName:      tutorName,
		Rating:         ratingView(AggregateRating(parts.reviews)),
		Availability:   grid,
		Schedule:       RenderAvailability(grid),
		Reviews:        reviewViews(parts.reviews),
		IsOwner:        isOwner,
		Actions:        allowedActions(isOwner),
		Contact:        BuildContactLinks(parts.tutor, s.config.WhatsAppCountryCode),
	}, nil
}

// Availability returns the normalized grid and its rendered table.
func (s *TutoringDetailsService) Availability(ctx context.Context, tutoringID string) (models.AvailabilityGrid, models.AvailabilityTable, error) {
	if _, err := s.load(ctx, tutoringID); err != nil {
		return nil, models.AvailabilityTable{}, err
	}
	slots, err := s.availability.ListByTutoring(ctx, tutoringID)
	if err != nil {
		s.degraded("availability", tutoringID, err)
		slots = nil
	}
	grid := s.grid.Build(slots)
	return grid, RenderAvailability(grid), nil
}

// Rating returns the aggregated rating of a tutoring.
func (s *TutoringDetailsService) Rating(ctx context.Context, tutoringID string) (dto.RatingView, error) {
	if _, err := s.load(ctx, tutoringID); err != nil {
		return dto.RatingView{}, err
	}
	reviews, err := s.reviews.ListByTutoring(ctx, tutoringID)
	if err != nil {
		s.degraded("reviews", tutoringID, err)
		reviews = nil
	}
	return ratingView(AggregateRating(reviews)), nil
}

// OwnerID resolves who owns tutoringID.
func (s *TutoringDetailsService) OwnerID(ctx context.Context, tutoringID string) (string, error) {
	tutoring, err := s.load(ctx, tutoringID)
	if err != nil {
		return "", err
	}
	return ResolveOwnerID(tutoring.TutorID, nil), nil
}

func (s *TutoringDetailsService) load(ctx context.Context, tutoringID string) (*models.Tutoring, error) {
	tutoring, err := s.tutorings.FindByID(ctx, tutoringID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutoring not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutoring")
	}
	return tutoring, nil
}

// collect loads the optional collaborators concurrently. Each failure is logged and
// replaced by its fallback.
func (s *TutoringDetailsService) collect(ctx context.Context, tutoring *models.Tutoring) detailsParts {
	var (
		parts detailsParts
		wg    sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		slots, err := s.availability.ListByTutoring(ctx, tutoring.ID)
		if err != nil {
			s.degraded("availability", tutoring.ID, err)
			return
		}
		parts.slots = slots
	}()
	go func() {
		defer wg.Done()
		reviews, err := s.reviews.ListByTutoring(ctx, tutoring.ID)
		if err != nil {
			s.degraded("reviews", tutoring.ID, err)
			return
		}
		parts.reviews = reviews
	}()
	go func() {
		defer wg.Done()
		if tutoring.TutorID == "" {
			return
		}
		tutor, err := s.users.FindByID(ctx, tutoring.TutorID)
		if err != nil {
			s.degraded("tutor", tutoring.ID, err)
			return
		}
		parts.tutor = tutor
	}()

	if tutoring.CourseID != nil && *tutoring.CourseID != "" {
		course, err := s.courses.FindByID(ctx, *tutoring.CourseID)
		if err != nil {
			s.degraded("course", tutoring.ID, err)
		} else {
			parts.course = course
		}
	}

	wg.Wait()
	return parts
}

func (s *TutoringDetailsService) degraded(collaborator, tutoringID string, err error) {
	s.logger.Warn("tutoring details collaborator failed",
		zap.String("collaborator", collaborator),
		zap.String("tutoring_id", tutoringID),
		zap.Error(err),
	)
	s.metrics.ObserveDegradedDetails(collaborator)
}
