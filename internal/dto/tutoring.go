package dto

import (
	"github.com/tutormatch/tutormatch-api/internal/models"
)

// TutoringAction is something the viewer may do with a tutoring.
type TutoringAction string

const (
	ActionEdit    TutoringAction = "edit"
	ActionDelete  TutoringAction = "delete"
	ActionRequest TutoringAction = "request"
)

// TutoringDetailsResponse is the full tutoring page payload.
type TutoringDetailsResponse struct {
	ID             string                   `json:"id"`
	Title          string                   `json:"title"`
	Description    string                   `json:"description"`
	Price          float64                  `json:"price"`
	PriceLabel     string                   `json:"priceLabel"`
	ImageURL       string                   `json:"imageUrl"`
	LearningPoints models.LearningPoints    `json:"whatTheyWillLearn"`
	Tags           []string                 `json:"tags"`
	Tutor          *TutorSummary            `json:"tutor"`
	TutorName      string                   `json:"tutorName"`
	Rating         RatingView               `json:"rating"`
	Availability   models.AvailabilityGrid  `json:"availability"`
	Schedule       models.AvailabilityTable `json:"schedule"`
	Reviews        []ReviewView             `json:"reviews"`
	IsOwner        bool                     `json:"isOwner"`
	Actions        []TutoringAction         `json:"actions"`
	Contact        *ContactLinks            `json:"contact,omitempty"`
}

// TutorSummary is the public part of the tutor profile.
type TutorSummary struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Avatar    *string `json:"avatar,omitempty"`
}

// RatingView decorates a rating summary for display.
type RatingView struct {
	Average      float64 `json:"average"`
	AverageLabel string  `json:"averageLabel"`
	Count        int     `json:"count"`
	Stars        int     `json:"stars"`
	CountLabel   string  `json:"countLabel"`
}

// ReviewView is a review prepared for the review list.
type ReviewView struct {
	ID          string  `json:"id"`
	StudentName string  `json:"studentName"`
	Initials    string  `json:"initials"`
	Avatar      *string `json:"avatar,omitempty"`
	Rating      int     `json:"rating"`
	Comment     string  `json:"comment"`
	DateLabel   string  `json:"dateLabel"`
	Likes       int     `json:"likes"`
}

// ContactLinks are the outbound contact options for a tutor.
type ContactLinks struct {
	Email        string `json:"email"`
	MailtoURL    string `json:"mailtoUrl"`
	Phone        string `json:"phone"`
	WhatsAppURL  string `json:"whatsappUrl,omitempty"`
	HasWhatsApp  bool   `json:"hasWhatsapp"`
	DisplayTitle string `json:"displayTitle"`
}

// TutoringCard is the compact list item.
type TutoringCard struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	ImageURL     string  `json:"imageUrl"`
	TutorID      string  `json:"tutorId"`
	TutorName    string  `json:"tutorName"`
	Rating       float64 `json:"rating"`
	RatingLabel  string  `json:"ratingLabel"`
	Stars        int     `json:"stars"`
	ReviewsCount int     `json:"reviewsCount"`
}

// OwnershipResponse is the one-shot ownership answer.
type OwnershipResponse struct {
	TutoringID string `json:"tutoringId"`
	IsOwner    bool   `json:"isOwner"`
}

// AvailabilitySlotRequest is one availability slot in an update payload.
type AvailabilitySlotRequest struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime string `json:"startTime" validate:"required,clock"`
	EndTime   string `json:"endTime" validate:"required,clock"`
}

// UpdateTutoringRequest replaces the editable fields of a tutoring.
type UpdateTutoringRequest struct {
	Title             string                    `json:"title" validate:"required,max=200"`
	Description       string                    `json:"description" validate:"max=5000"`
	Price             float64                   `json:"price" validate:"gte=0"`
	ImageURL          *string                   `json:"imageUrl" validate:"omitempty,url"`
	CourseID          *string                   `json:"courseId" validate:"omitempty,uuid"`
	WhatTheyWillLearn []string                  `json:"whatTheyWillLearn" validate:"dive,required"`
	AvailableTimes    []AvailabilitySlotRequest `json:"availableTimes" validate:"dive"`
}
