package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() NewEventInput {
	return NewEventInput{
		Title:       "Go Meetup",
		Description: "Monthly meetup about Go and backend engineering.",
		Date:        time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		StartTime:   "18:00",
		EndTime:     "21:00",
		Location:    "Community Hall",
		Category:    "Technology",
		Capacity:    50,
	}
}

func TestNewPendingEvent(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	t.Run("defaults", func(t *testing.T) {
		ev, err := NewPendingEvent("org-1", validInput(), now)
		require.NoError(t, err)
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, EventPending, ev.Status)
		assert.Equal(t, 0, ev.Attendees)
		assert.Equal(t, "org-1", ev.OrganizerID)
	})

	t.Run("missing organizer", func(t *testing.T) {
		_, err := NewPendingEvent("  ", validInput(), now)
		assert.True(t, IsCode(err, CodeValidation))
	})

	t.Run("capacity below one", func(t *testing.T) {
		in := validInput()
		in.Capacity = 0
		_, err := NewPendingEvent("org-1", in, now)
		assert.True(t, IsCode(err, CodeValidation))
	})

	t.Run("paid requires price", func(t *testing.T) {
		in := validInput()
		in.IsPaid = true
		in.Price = 0
		in.PaymentCollectionID = "upi-123"
		_, err := NewPendingEvent("org-1", in, now)
		assert.True(t, IsCode(err, CodeValidation))
	})

	t.Run("paid requires collection id", func(t *testing.T) {
		in := validInput()
		in.IsPaid = true
		in.Price = 20
		_, err := NewPendingEvent("org-1", in, now)
		assert.True(t, IsCode(err, CodeValidation))
	})

	t.Run("free event drops price fields", func(t *testing.T) {
		in := validInput()
		in.Price = 99
		in.PaymentCollectionID = "stale"
		ev, err := NewPendingEvent("org-1", in, now)
		require.NoError(t, err)
		assert.Zero(t, ev.Price)
		assert.Empty(t, ev.PaymentCollectionID)
	})
}

func TestApplyUpdate(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	ev, err := NewPendingEvent("org-1", validInput(), now)
	require.NoError(t, err)
	ev.Status = EventApproved
	ev.Attendees = 7

	title := "Go Meetup (rescheduled)"
	cap := 80
	later := now.Add(time.Hour)
	require.NoError(t, ev.ApplyUpdate(EventUpdate{Title: &title, Capacity: &cap}, later))

	assert.Equal(t, title, ev.Title)
	assert.Equal(t, 80, ev.Capacity)
	// status and counter are not update surface
	assert.Equal(t, EventApproved, ev.Status)
	assert.Equal(t, 7, ev.Attendees)
	assert.Equal(t, later, ev.UpdatedAt)

	bad := ""
	err = ev.ApplyUpdate(EventUpdate{Title: &bad}, later)
	assert.True(t, IsCode(err, CodeValidation))
}
