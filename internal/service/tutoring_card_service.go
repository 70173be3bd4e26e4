package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tutormatch/tutormatch-api/internal/dto"
	"github.com/tutormatch/tutormatch-api/internal/models"
	"github.com/tutormatch/tutormatch-api/pkg/jobs"
	appErrors "github.com/tutormatch/tutormatch-api/pkg/errors"
)

// JobTypeCardRefresh identifies card refresh jobs.
const JobTypeCardRefresh = "tutoring.card.refresh"

type tutoringLister interface {
	FindByID(ctx context.Context, id string) (*models.Tutoring, error)
	List(ctx context.Context, filter models.TutoringFilter) ([]models.Tutoring, int, error)
}

type reviewBatchReader interface {
	ListByTutoring(ctx context.Context, tutoringID string) ([]models.Review, error)
	ListByTutorings(ctx context.Context, tutoringIDs []string) (map[string][]models.Review, error)
}

type userBatchReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

// TutoringCardService builds the compact tutoring cards shown in listings.
type TutoringCardService struct {
	tutorings    tutoringLister
	reviews      reviewBatchReader
	users        userBatchReader
	cache        *CacheService
	cacheTTL     time.Duration
	queue        jobEnqueuer
	logger       *zap.Logger
	defaultImage string
}

// NewTutoringCardService constructs the card service. cache and queue may be nil.
func NewTutoringCardService(tutorings tutoringLister, reviews reviewBatchReader, users userBatchReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger, defaultImage string) *TutoringCardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutoringCardService{
		tutorings:    tutorings,
		reviews:      reviews,
		users:        users,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger,
		defaultImage: defaultImage,
	}
}

// AttachQueue sets the refresh queue once the worker pool exists.
func (s *TutoringCardService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// cardBase holds the card fields that only change with the tutoring or its tutor.
// The rating is never cached; it is folded from the current reviews on every read.
type cardBase struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	TutorID     string  `json:"tutorId"`
	TutorName   string  `json:"tutorName"`
}

// Card returns one card. Static fields may come from cache, the rating is always fresh.
func (s *TutoringCardService) Card(ctx context.Context, tutoringID string) (*dto.TutoringCard, error) {
	var base cardBase
	if hit, _ := s.cache.Get(ctx, TutoringCardKey(tutoringID), &base); !hit {
		tutoring, err := s.tutorings.FindByID(ctx, tutoringID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "tutoring not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutoring")
		}
		base = s.fill(ctx, tutoring)
		_ = s.cache.Set(ctx, TutoringCardKey(tutoringID), base, s.cacheTTL)
	}

	reviews, err := s.reviews.ListByTutoring(ctx, tutoringID)
	if err != nil {
		s.logger.Warn("card reviews unavailable", zap.String("tutoring_id", tutoringID), zap.Error(err))
		reviews = nil
	}
	card := withRating(base, AggregateRating(reviews))
	return &card, nil
}

// List returns a page of cards. Cache misses are filled with one batched tutor lookup
// and every rating comes from one batched review lookup.
func (s *TutoringCardService) List(ctx context.Context, filter models.TutoringFilter) ([]dto.TutoringCard, *models.Pagination, error) {
	tutorings, total, err := s.tutorings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutorings")
	}

	bases := make([]cardBase, len(tutorings))
	ids := make([]string, 0, len(tutorings))
	var missing []int
	for i := range tutorings {
		ids = append(ids, tutorings[i].ID)
		if hit, _ := s.cache.Get(ctx, TutoringCardKey(tutorings[i].ID), &bases[i]); !hit {
			missing = append(missing, i)
		}
	}

	if len(missing) > 0 {
		tutorIDs := make([]string, 0, len(missing))
		for _, idx := range missing {
			if tutorings[idx].TutorID != "" {
				tutorIDs = append(tutorIDs, tutorings[idx].TutorID)
			}
		}
		tutors, err := s.users.FindByIDs(ctx, tutorIDs)
		if err != nil {
			s.logger.Warn("card tutors unavailable", zap.Error(err))
			tutors = map[string]*models.User{}
		}
		for _, idx := range missing {
			t := &tutorings[idx]
			bases[idx] = buildCardBase(t, tutors[t.TutorID], s.defaultImage)
			_ = s.cache.Set(ctx, TutoringCardKey(t.ID), bases[idx], s.cacheTTL)
		}
	}

	var reviews map[string][]models.Review
	if len(ids) > 0 {
		reviews, err = s.reviews.ListByTutorings(ctx, ids)
		if err != nil {
			s.logger.Warn("card reviews unavailable", zap.Error(err))
			reviews = nil
		}
	}

	cards := make([]dto.TutoringCard, len(bases))
	for i := range bases {
		cards[i] = withRating(bases[i], AggregateRating(reviews[tutorings[i].ID]))
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return cards, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Invalidate drops the cached card and schedules a background refresh.
func (s *TutoringCardService) Invalidate(ctx context.Context, tutoringID string) {
	if err := s.cache.Delete(ctx, TutoringCardKey(tutoringID)); err != nil {
		s.logger.Warn("card invalidation failed", zap.String("tutoring_id", tutoringID), zap.Error(err))
	}
	if s.queue == nil || !s.cache.Enabled() {
		return
	}
	job := jobs.Job{
		ID:      fmt.Sprintf("%s:%s:%d", JobTypeCardRefresh, tutoringID, time.Now().UnixNano()),
		Type:    JobTypeCardRefresh,
		Key:     tutoringID,
		Payload: tutoringID,
	}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.logger.Warn("card refresh not scheduled", zap.String("tutoring_id", tutoringID), zap.Error(err))
	}
}

// HandleRefreshJob rebuilds the cached card fields. Deleted tutorings are simply skipped.
func (s *TutoringCardService) HandleRefreshJob(ctx context.Context, job jobs.Job) error {
	tutoringID, ok := job.Payload.(string)
	if !ok || tutoringID == "" {
		return fmt.Errorf("card refresh: unexpected payload %T", job.Payload)
	}
	tutoring, err := s.tutorings.FindByID(ctx, tutoringID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("card refresh %s: %w", tutoringID, err)
	}
	card := s.fill(ctx, tutoring)
	return s.cache.Set(ctx, TutoringCardKey(tutoringID), card, s.cacheTTL)
}

func (s *TutoringCardService) fill(ctx context.Context, tutoring *models.Tutoring) cardBase {
	var tutor *models.User
	if tutoring.TutorID != "" {
		u, err := s.users.FindByID(ctx, tutoring.TutorID)
		if err != nil {
			s.logger.Debug("card tutor lookup failed", zap.String("tutoring_id", tutoring.ID), zap.Error(err))
		} else {
			tutor = u
		}
	}
	return buildCardBase(tutoring, tutor, s.defaultImage)
}

func buildCardBase(tutoring *models.Tutoring, tutor *models.User, defaultImage string) cardBase {
	name := tutorUnknown
	if tutor != nil {
		name = tutor.FullName()
	}
	return cardBase{
		ID:          tutoring.ID,
		Title:       tutoring.Title,
		Description: tutoring.Description,
		Price:       tutoring.Price,
		ImageURL:    imageOrDefault(tutoring.ImageURL, defaultImage),
		TutorID:     tutoring.TutorID,
		TutorName:   name,
	}
}

func withRating(base cardBase, summary models.RatingSummary) dto.TutoringCard {
	return dto.TutoringCard{
		ID:           base.ID,
		Title:        base.Title,
		Description:  base.Description,
		Price:        base.Price,
		ImageURL:     base.ImageURL,
		TutorID:      base.TutorID,
		TutorName:    base.TutorName,
		Rating:       summary.Average,
		RatingLabel:  fmt.Sprintf("%.1f", summary.Average),
		Stars:        summary.Stars(),
		ReviewsCount: summary.Count,
	}
}
