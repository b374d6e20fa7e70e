package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenith-events/zenith/internal/domain"
	"github.com/zenith-events/zenith/internal/service"
)

type stubGate struct {
	advice *service.Advice
	err    error
}

func (g stubGate) Review(ctx context.Context, ev *domain.Event) (*service.Advice, error) {
	return g.advice, g.err
}

func validInput() domain.NewEventInput {
	return domain.NewEventInput{
		Title:       "Go Meetup",
		Description: "Monthly meetup",
		Date:        time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		StartTime:   "18:00",
		EndTime:     "21:00",
		Location:    "Community Hall",
		Category:    "Tech",
		Capacity:    50,
	}
}

func TestEventCreate_StartsPending(t *testing.T) {
	events := newMemEvents()
	svc := service.NewEventService(events, nil, nil, fakeClock{t: time.Now()})

	ev, err := svc.Create(context.Background(), validInput(), "org-1", domain.RoleOrganizer)
	require.NoError(t, err)
	assert.Equal(t, domain.EventPending, ev.Status)
	assert.Equal(t, "org-1", ev.OrganizerID)
	assert.Equal(t, 0, ev.Attendees)
}

func TestEventCreate_AttendeeForbidden(t *testing.T) {
	svc := service.NewEventService(newMemEvents(), nil, nil, nil)

	_, err := svc.Create(context.Background(), validInput(), "att-1", domain.RoleAttendee)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))
}

func TestEventSetStatus_AdminDecidesOnce(t *testing.T) {
	events := newMemEvents()
	svc := service.NewEventService(events, nil, nil, nil)
	ev, err := svc.Create(context.Background(), validInput(), "org-1", domain.RoleOrganizer)
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(context.Background(), ev.ID, domain.EventApproved, domain.RoleAdmin))

	err = svc.SetStatus(context.Background(), ev.ID, domain.EventRejected, domain.RoleAdmin)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))

	got, err := svc.Get(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventApproved, got.Status)
}

func TestEventSetStatus_NonAdminForbidden(t *testing.T) {
	svc := service.NewEventService(newMemEvents(), nil, nil, nil)
	err := svc.SetStatus(context.Background(), "ev-1", domain.EventApproved, domain.RoleOrganizer)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))
}

func TestEventSetStatus_RejectsPendingTarget(t *testing.T) {
	svc := service.NewEventService(newMemEvents(), nil, nil, nil)
	err := svc.SetStatus(context.Background(), "ev-1", domain.EventPending, domain.RoleAdmin)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestEventUpdate_OwnerOnly_AndPreservesCounter(t *testing.T) {
	events := newMemEvents()
	svc := service.NewEventService(events, nil, nil, nil)
	ev, err := svc.Create(context.Background(), validInput(), "org-1", domain.RoleOrganizer)
	require.NoError(t, err)

	_, err = events.IncrementAttendees(context.Background(), ev.ID, 3)
	require.NoError(t, err)

	title := "Go Meetup (rescheduled)"
	_, err = svc.Update(context.Background(), ev.ID, domain.EventUpdate{Title: &title}, "org-2", domain.RoleOrganizer)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))

	updated, err := svc.Update(context.Background(), ev.ID, domain.EventUpdate{Title: &title}, "org-1", domain.RoleOrganizer)
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	got, err := svc.Get(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Attendees)
}

func TestEventDelete_OwnerOnly(t *testing.T) {
	events := newMemEvents()
	svc := service.NewEventService(events, nil, nil, nil)
	ev, err := svc.Create(context.Background(), validInput(), "org-1", domain.RoleOrganizer)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), ev.ID, "org-2", domain.RoleOrganizer)
	assert.True(t, domain.IsCode(err, domain.CodeForbidden))

	require.NoError(t, svc.Delete(context.Background(), ev.ID, "org-1", domain.RoleOrganizer))
	_, err = svc.Get(context.Background(), ev.ID)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestEventReview_ReturnsAdvice(t *testing.T) {
	events := newMemEvents()
	gate := stubGate{advice: &service.Advice{Recommendation: domain.EventApproved, Reason: "content is in policy"}}
	svc := service.NewEventService(events, nil, gate, nil)
	ev, err := svc.Create(context.Background(), validInput(), "org-1", domain.RoleOrganizer)
	require.NoError(t, err)

	advice, err := svc.Review(context.Background(), ev.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.EventApproved, advice.Recommendation)

	// the advice never flips the stored status
	got, err := svc.Get(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EventPending, got.Status)
}

func TestEventReview_GateFailureFallsBackToManual(t *testing.T) {
	events := newMemEvents()
	svc := service.NewEventService(events, nil, stubGate{err: errors.New("timeout")}, nil)
	ev, err := svc.Create(context.Background(), validInput(), "org-1", domain.RoleOrganizer)
	require.NoError(t, err)

	advice, err := svc.Review(context.Background(), ev.ID, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.EventPending, advice.Recommendation)
	assert.Contains(t, advice.Reason, "manually")
}

func TestEnsureUser_UpsertsAttendee(t *testing.T) {
	users := newMemUsers()
	svc := service.NewUserService(users, fakeClock{t: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)})

	u, err := svc.EnsureUser(context.Background(), "sub-1", "Ada", "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAttendee, u.Role)
	assert.Equal(t, "Ada", u.Name)
	assert.Equal(t, "ada@example.com", u.Email)

	// an existing admin keeps its role on re-login
	users.put(&domain.User{ID: "sub-2", Name: "Root", Email: "root@example.com", Role: domain.RoleAdmin})
	again, err := svc.EnsureUser(context.Background(), "sub-2", "Root", "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, again.Role)
}
