package service

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/tutormatch/tutormatch-api/internal/dto"
	"github.com/tutormatch/tutormatch-api/internal/models"
)

const (
	tutorUnavailable  = "Tutor no disponible"
	tutorUnknown      = "Tutor desconocido"
	defaultTag        = "Tutoría"
	dateUnavailable   = "Fecha no disponible"
	noCommentFallback = "Sin comentarios adicionales."
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

func formatPrice(price float64) string {
	return fmt.Sprintf("S/. %.2f", price)
}

func formatSpanishDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return dateUnavailable
	}
	u := t.UTC()
	return fmt.Sprintf("%d de %s de %d", u.Day(), spanishMonths[u.Month()-1], u.Year())
}

func initials(firstName, lastName string) string {
	var b strings.Builder
	for _, name := range []string{firstName, lastName} {
		for _, r := range strings.TrimSpace(name) {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}

func ratingView(summary models.RatingSummary) dto.RatingView {
	return dto.RatingView{
		Average:      summary.Average,
		AverageLabel: fmt.Sprintf("%.1f", summary.Average),
		Count:        summary.Count,
		Stars:        summary.Stars(),
		CountLabel:   fmt.Sprintf("(%d reseñas)", summary.Count),
	}
}

func reviewViews(reviews []models.Review) []dto.ReviewView {
	out := make([]dto.ReviewView, 0, len(reviews))
	for _, r := range reviews {
		comment := noCommentFallback
		if r.Comment != nil && strings.TrimSpace(*r.Comment) != "" {
			comment = *r.Comment
		}
		out = append(out, dto.ReviewView{
			ID:          r.ID,
			StudentName: strings.TrimSpace(r.StudentFirstName + " " + r.StudentLastName),
			Initials:    initials(r.StudentFirstName, r.StudentLastName),
			Avatar:      r.StudentAvatar,
			Rating:      r.Rating,
			Comment:     comment,
			DateLabel:   formatSpanishDate(r.CreatedAt),
			Likes:       r.Likes,
		})
	}
	return out
}

func courseTags(course *models.Course) []string {
	if course == nil {
		return []string{defaultTag}
	}
	var tags []string
	if course.SemesterNumber > 0 {
		tags = append(tags, fmt.Sprintf("%d° Semestre", course.SemesterNumber))
	}
	if name := strings.TrimSpace(course.Name); name != "" {
		tags = append(tags, name)
	}
	if len(tags) == 0 {
		return []string{defaultTag}
	}
	return tags
}

func imageOrDefault(imageURL *string, fallback string) string {
	if imageURL != nil && strings.TrimSpace(*imageURL) != "" {
		return *imageURL
	}
	return fallback
}

func allowedActions(isOwner bool) []dto.TutoringAction {
	if isOwner {
		return []dto.TutoringAction{dto.ActionEdit, dto.ActionDelete}
	}
	return []dto.TutoringAction{dto.ActionRequest}
}
