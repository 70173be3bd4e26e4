package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutormatch/tutormatch-api/internal/dto"
	"github.com/tutormatch/tutormatch-api/internal/models"
	"github.com/tutormatch/tutormatch-api/internal/service"
	appErrors "github.com/tutormatch/tutormatch-api/pkg/errors"
	"github.com/tutormatch/tutormatch-api/pkg/response"
)

type tutoringDetailsService interface {
	Get(ctx context.Context, tutoringID, viewerID string) (*dto.TutoringDetailsResponse, error)
	Availability(ctx context.Context, tutoringID string) (models.AvailabilityGrid, models.AvailabilityTable, error)
	Rating(ctx context.Context, tutoringID string) (dto.RatingView, error)
	OwnerID(ctx context.Context, tutoringID string) (string, error)
}

type tutoringCardService interface {
	List(ctx context.Context, filter models.TutoringFilter) ([]dto.TutoringCard, *models.Pagination, error)
	Card(ctx context.Context, tutoringID string) (*dto.TutoringCard, error)
}

type tutoringMutationService interface {
	Update(ctx context.Context, tutoringID, actorID string, req dto.UpdateTutoringRequest) (*models.Tutoring, error)
	Delete(ctx context.Context, tutoringID, actorID string) error
}

type availabilityExporter interface {
	Export(ctx context.Context, tutoringID string, format service.ExportFormat) (*service.ExportFile, error)
}

// TutoringHandler exposes the tutoring details endpoints.
type TutoringHandler struct {
	details  tutoringDetailsService
	cards    tutoringCardService
	mutation tutoringMutationService
	exporter availabilityExporter
}

// NewTutoringHandler builds the handler.
func NewTutoringHandler(details tutoringDetailsService, cards tutoringCardService, mutation tutoringMutationService, exporter availabilityExporter) *TutoringHandler {
	return &TutoringHandler{details: details, cards: cards, mutation: mutation, exporter: exporter}
}

// availabilityPayload pairs the normalized grid with its rendered table.
type availabilityPayload struct {
	Availability models.AvailabilityGrid  `json:"availability"`
	Schedule     models.AvailabilityTable `json:"schedule"`
}

// List godoc
// @Summary List tutoring cards
// @Tags Tutorings
// @Produce json
// @Param tutorId query string false "Tutor filter"
// @Param courseId query string false "Course filter"
// @Param q query string false "Title search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tutorings [get]
func (h *TutoringHandler) List(c *gin.Context) {
	filter := models.TutoringFilter{
		TutorID:  c.Query("tutorId"),
		CourseID: c.Query("courseId"),
		Search:   c.Query("q"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 20),
	}
	cards, pagination, err := h.cards.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cards, pagination)
}

// Get godoc
// @Summary Tutoring details
// @Description Full details view. Ownership reflects the caller's session; anonymous callers never own.
// @Tags Tutorings
// @Produce json
// @Param id path string true "Tutoring ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutorings/{id} [get]
func (h *TutoringHandler) Get(c *gin.Context) {
	details, err := h.details.Get(c.Request.Context(), c.Param("id"), viewerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// Card godoc
// @Summary Tutoring card
// @Tags Tutorings
// @Produce json
// @Param id path string true "Tutoring ID"
// @Success 200 {object} response.Envelope
// @Router /tutorings/{id}/card [get]
func (h *TutoringHandler) Card(c *gin.Context) {
	card, err := h.cards.Card(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card, nil)
}

// Availability godoc
// @Summary Weekly availability
// @Tags Tutorings
// @Produce json
// @Param id path string true "Tutoring ID"
// @Success 200 {object} response.Envelope
// @Router /tutorings/{id}/availability [get]
func (h *TutoringHandler) Availability(c *gin.Context) {
	grid, table, err := h.details.Availability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, availabilityPayload{Availability: grid, Schedule: table}, nil)
}

// ExportAvailability godoc
// @Summary Download weekly availability
// @Tags Tutorings
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Tutoring ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /tutorings/{id}/availability/export [get]
func (h *TutoringHandler) ExportAvailability(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Rating godoc
// @Summary Aggregated rating
// @Tags Tutorings
// @Produce json
// @Param id path string true "Tutoring ID"
// @Success 200 {object} response.Envelope
// @Router /tutorings/{id}/rating [get]
func (h *TutoringHandler) Rating(c *gin.Context) {
	rating, err := h.details.Rating(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rating, nil)
}

// Ownership godoc
// @Summary Ownership of a tutoring for the caller
// @Tags Tutorings
// @Produce json
// @Param id path string true "Tutoring ID"
// @Success 200 {object} response.Envelope
// @Router /tutorings/{id}/ownership [get]
func (h *TutoringHandler) Ownership(c *gin.Context) {
	tutoringID := c.Param("id")
	ownerID, err := h.details.OwnerID(c.Request.Context(), tutoringID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.OwnershipResponse{
		TutoringID: tutoringID,
		IsOwner:    service.ComputeOwnership(viewerID(c), ownerID),
	}, nil)
}

// Update godoc
// @Summary Update a tutoring
// @Description Only the tutor who owns the tutoring may update it.
// @Tags Tutorings
// @Accept json
// @Produce json
// @Param id path string true "Tutoring ID"
// @Param payload body dto.UpdateTutoringRequest true "Tutoring payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tutorings/{id} [put]
func (h *TutoringHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateTutoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tutoring payload"))
		return
	}
	tutoring, err := h.mutation.Update(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tutoring, nil)
}

// Delete godoc
// @Summary Delete a tutoring
// @Tags Tutorings
// @Param id path string true "Tutoring ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /tutorings/{id} [delete]
func (h *TutoringHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.mutation.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
