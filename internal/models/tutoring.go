package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Tutoring is a tutoring offer published by a tutor.
type Tutoring struct {
	ID                string         `db:"id" json:"id"`
	TutorID           string         `db:"tutor_id" json:"tutor_id"`
	CourseID          *string        `db:"course_id" json:"course_id,omitempty"`
	Title             string         `db:"title" json:"title"`
	Description       string         `db:"description" json:"description"`
	Price             float64        `db:"price" json:"price"`
	WhatTheyWillLearn types.JSONText `db:"what_they_will_learn" json:"what_they_will_learn"`
	ImageURL          *string        `db:"image_url" json:"image_url,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`

	AvailableTimes []RawTimeSlot `db:"-" json:"available_times,omitempty"`
}

// TutoringFilter captures list options for tutorings.
type TutoringFilter struct {
	TutorID  string
	CourseID string
	Search   string
	Page     int
	PageSize int
}

// Course is the academic course a tutoring belongs to.
type Course struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	SemesterNumber int    `db:"semester_number" json:"semester_number"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
