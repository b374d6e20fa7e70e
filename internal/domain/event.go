package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventPending  EventStatus = "Pending"
	EventApproved EventStatus = "Approved"
	EventRejected EventStatus = "Rejected"
)

func (s EventStatus) Valid() bool {
	return s == EventPending || s == EventApproved || s == EventRejected
}

type Event struct {
	ID          string
	OrganizerID string

	Title       string
	Description string
	Date        time.Time
	StartTime   string // "HH:MM", local to the venue
	EndTime     string
	Location    string
	Category    string
	ImageURL    string

	Capacity  int
	Attendees int // derived counter; Attendees <= Capacity is a soft invariant

	Status EventStatus

	IsPaid              bool
	Price               float64
	PaymentCollectionID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type NewEventInput struct {
	Title               string
	Description         string
	Date                time.Time
	StartTime           string
	EndTime             string
	Location            string
	Category            string
	ImageURL            string
	Capacity            int
	IsPaid              bool
	Price               float64
	PaymentCollectionID string
}

// NewPendingEvent validates organizer input and returns an event awaiting
// admin review.
func NewPendingEvent(organizerID string, in NewEventInput, now time.Time) (*Event, error) {
	organizerID = strings.TrimSpace(organizerID)
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	location := strings.TrimSpace(in.Location)
	category := strings.TrimSpace(in.Category)

	if organizerID == "" {
		return nil, ErrValidation("organizer_id is required")
	}
	if title == "" || len(title) > 120 {
		return nil, ErrValidation("title is required and must be <= 120 chars")
	}
	if description == "" || len(description) > 4000 {
		return nil, ErrValidation("description is required and must be <= 4000 chars")
	}
	if location == "" || len(location) > 160 {
		return nil, ErrValidation("location is required and must be <= 160 chars")
	}
	if category == "" || len(category) > 80 {
		return nil, ErrValidation("category is required and must be <= 80 chars")
	}
	if in.Date.IsZero() {
		return nil, ErrValidation("date is required")
	}
	if in.Capacity < 1 {
		return nil, ErrValidation("capacity must be at least 1")
	}
	if in.IsPaid {
		if in.Price <= 0 {
			return nil, ErrValidation("price must be > 0 for a paid event")
		}
		if strings.TrimSpace(in.PaymentCollectionID) == "" {
			return nil, ErrValidation("payment_collection_id is required for a paid event")
		}
	} else {
		in.Price = 0
		in.PaymentCollectionID = ""
	}

	return &Event{
		ID:                  uuid.NewString(),
		OrganizerID:         organizerID,
		Title:               title,
		Description:         description,
		Date:                in.Date.UTC(),
		StartTime:           strings.TrimSpace(in.StartTime),
		EndTime:             strings.TrimSpace(in.EndTime),
		Location:            location,
		Category:            category,
		ImageURL:            strings.TrimSpace(in.ImageURL),
		Capacity:            in.Capacity,
		Attendees:           0,
		Status:              EventPending,
		IsPaid:              in.IsPaid,
		Price:               in.Price,
		PaymentCollectionID: strings.TrimSpace(in.PaymentCollectionID),
		CreatedAt:           now.UTC(),
		UpdatedAt:           now.UTC(),
	}, nil
}

type EventUpdate struct {
	Title       *string
	Description *string
	Date        *time.Time
	StartTime   *string
	EndTime     *string
	Location    *string
	Category    *string
	ImageURL    *string
	Capacity    *int
}

// ApplyUpdate edits organizer-owned fields. Approval status and the
// attendee counter are never touched here.
func (e *Event) ApplyUpdate(u EventUpdate, now time.Time) error {
	if u.Title != nil {
		v := strings.TrimSpace(*u.Title)
		if v == "" || len(v) > 120 {
			return ErrValidation("title must be non-empty and <= 120 chars")
		}
		e.Title = v
	}
	if u.Description != nil {
		v := strings.TrimSpace(*u.Description)
		if v == "" || len(v) > 4000 {
			return ErrValidation("description must be non-empty and <= 4000 chars")
		}
		e.Description = v
	}
	if u.Date != nil {
		if u.Date.IsZero() {
			return ErrValidation("date must be a valid timestamp")
		}
		e.Date = u.Date.UTC()
	}
	if u.StartTime != nil {
		e.StartTime = strings.TrimSpace(*u.StartTime)
	}
	if u.EndTime != nil {
		e.EndTime = strings.TrimSpace(*u.EndTime)
	}
	if u.Location != nil {
		v := strings.TrimSpace(*u.Location)
		if v == "" || len(v) > 160 {
			return ErrValidation("location must be non-empty and <= 160 chars")
		}
		e.Location = v
	}
	if u.Category != nil {
		v := strings.TrimSpace(*u.Category)
		if v == "" || len(v) > 80 {
			return ErrValidation("category must be non-empty and <= 80 chars")
		}
		e.Category = v
	}
	if u.ImageURL != nil {
		e.ImageURL = strings.TrimSpace(*u.ImageURL)
	}
	if u.Capacity != nil {
		if *u.Capacity < 1 {
			return ErrValidation("capacity must be at least 1")
		}
		e.Capacity = *u.Capacity
	}
	e.UpdatedAt = now.UTC()
	return nil
}

// Summary is the denormalized line used in notifications and wallet passes.
func (e *Event) Summary() EventSummary {
	return EventSummary{
		EventID:  e.ID,
		Title:    e.Title,
		Date:     e.Date,
		Location: e.Location,
		ImageURL: e.ImageURL,
	}
}

type EventSummary struct {
	EventID  string    `json:"event_id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
	ImageURL string    `json:"image_url"`
}
