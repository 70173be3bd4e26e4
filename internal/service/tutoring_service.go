package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/tutormatch/tutormatch-api/internal/dto"
	"github.com/tutormatch/tutormatch-api/internal/models"
	appErrors "github.com/tutormatch/tutormatch-api/pkg/errors"
)

type tutoringWriter interface {
	FindByID(ctx context.Context, id string) (*models.Tutoring, error)
	Update(ctx context.Context, tutoring *models.Tutoring, slots []models.RawTimeSlot) error
	Delete(ctx context.Context, id string) error
}

type cardInvalidator interface {
	Invalidate(ctx context.Context, tutoringID string)
}

// TutoringService applies owner-only mutations to tutorings. Ownership is checked
// here regardless of what the client displayed.
type TutoringService struct {
	repo      tutoringWriter
	cards     cardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTutoringService constructs the service and registers the clock validation tag.
func NewTutoringService(repo tutoringWriter, cards cardInvalidator, validate *validator.Validate, logger *zap.Logger) *TutoringService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = validate.RegisterValidation("clock", validateClock)
	return &TutoringService{repo: repo, cards: cards, validator: validate, logger: logger}
}

// Update replaces the editable fields and availability of a tutoring owned by actorID.
func (s *TutoringService) Update(ctx context.Context, tutoringID, actorID string, req dto.UpdateTutoringRequest) (*models.Tutoring, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tutoring payload")
	}

	slots := make([]models.RawTimeSlot, 0, len(req.AvailableTimes))
	for i, in := range req.AvailableTimes {
		raw := models.RawTimeSlot{
			DayOfWeek: models.DayNumber(float64(in.DayOfWeek)),
			StartTime: models.LooseString(in.StartTime),
			EndTime:   models.LooseString(in.EndTime),
		}
		if _, ok := ParseTimeSlot(raw); !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("availableTimes[%d] must start before it ends", i))
		}
		slots = append(slots, raw)
	}

	tutoring, err := s.authorize(ctx, tutoringID, actorID)
	if err != nil {
		return nil, err
	}

	points := req.WhatTheyWillLearn
	if points == nil {
		points = []string{}
	}
	encoded, err := json.Marshal(points)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode learning points")
	}

	tutoring.Title = req.Title
	tutoring.Description = req.Description
	tutoring.Price = req.Price
	tutoring.ImageURL = req.ImageURL
	tutoring.CourseID = req.CourseID
	tutoring.WhatTheyWillLearn = types.JSONText(encoded)

	if err := s.repo.Update(ctx, tutoring, slots); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutoring not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tutoring")
	}

	s.invalidate(ctx, tutoringID)
	s.logger.Info("tutoring updated", zap.String("tutoring_id", tutoringID), zap.String("actor_id", actorID))
	return tutoring, nil
}

// Delete removes a tutoring owned by actorID.
func (s *TutoringService) Delete(ctx context.Context, tutoringID, actorID string) error {
	if _, err := s.authorize(ctx, tutoringID, actorID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, tutoringID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "tutoring not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete tutoring")
	}

	s.invalidate(ctx, tutoringID)
	s.logger.Info("tutoring deleted", zap.String("tutoring_id", tutoringID), zap.String("actor_id", actorID))
	return nil
}

func (s *TutoringService) authorize(ctx context.Context, tutoringID, actorID string) (*models.Tutoring, error) {
	tutoring, err := s.repo.FindByID(ctx, tutoringID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutoring not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutoring")
	}
	if !ComputeOwnership(actorID, ResolveOwnerID(tutoring.TutorID, nil)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the tutor can modify this tutoring")
	}
	return tutoring, nil
}

func (s *TutoringService) invalidate(ctx context.Context, tutoringID string) {
	if s.cards != nil {
		s.cards.Invalidate(ctx, tutoringID)
	}
}

func validateClock(fl validator.FieldLevel) bool {
	hour, _, ok := splitClock(fl.Field().String())
	return ok && hour <= 24
}
