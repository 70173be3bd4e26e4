package models

import (
	"math"
	"time"
)

// Review is a student's rating of a tutoring. Student columns come from the users join.
type Review struct {
	ID         string     `db:"id" json:"id"`
	TutoringID string     `db:"tutoring_id" json:"tutoring_id"`
	StudentID  string     `db:"student_id" json:"student_id"`
	Rating     int        `db:"rating" json:"rating"`
	Comment    *string    `db:"comment" json:"comment,omitempty"`
	Likes      int        `db:"likes" json:"likes"`
	CreatedAt  *time.Time `db:"created_at" json:"created_at,omitempty"`

	StudentFirstName string  `db:"student_first_name" json:"-"`
	StudentLastName  string  `db:"student_last_name" json:"-"`
	StudentAvatar    *string `db:"student_avatar" json:"-"`
}

// RatingSummary is the aggregate of a review collection.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Stars is the average rounded to a whole star for read-only star widgets.
func (r RatingSummary) Stars() int {
	return int(math.Round(r.Average))
}
