package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/zenith-events/zenith/internal/domain"
)

// In-memory repositories with the same conditional-update semantics as the
// real store, so races in the service layer are exercised for real.

type memEvents struct {
	mu     sync.Mutex
	events map[string]domain.Event
}

func newMemEvents() *memEvents {
	return &memEvents{events: map[string]domain.Event{}}
}

func (m *memEvents) put(e *domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = *e
}

func (m *memEvents) Create(ctx context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = *e
	return nil
}

func (m *memEvents) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	cp := e
	return &cp, nil
}

func (m *memEvents) Update(ctx context.Context, e *domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.events[e.ID]
	if !ok {
		return domain.ErrNotFound("event not found")
	}
	next := *e
	next.Status = cur.Status
	next.Attendees = cur.Attendees
	m.events[e.ID] = next
	return nil
}

func (m *memEvents) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return domain.ErrNotFound("event not found")
	}
	delete(m.events, id)
	return nil
}

func (m *memEvents) SetStatus(ctx context.Context, id string, expect, next domain.EventStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return domain.ErrNotFound("event not found")
	}
	if e.Status != expect {
		return domain.ErrInvalidState("event status changed")
	}
	e.Status = next
	m.events[id] = e
	return nil
}

func (m *memEvents) IncrementAttendees(ctx context.Context, id string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return 0, domain.ErrNotFound("event not found")
	}
	e.Attendees += delta
	m.events[id] = e
	return e.Attendees, nil
}

func (m *memEvents) ListApproved(ctx context.Context, limit, offset int) ([]*domain.Event, error) {
	return m.list(func(e domain.Event) bool { return e.Status == domain.EventApproved }), nil
}

func (m *memEvents) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	return m.list(func(e domain.Event) bool { return e.OrganizerID == organizerID }), nil
}

func (m *memEvents) ListByStatus(ctx context.Context, status domain.EventStatus) ([]*domain.Event, error) {
	return m.list(func(e domain.Event) bool { return e.Status == status }), nil
}

func (m *memEvents) list(keep func(domain.Event) bool) []*domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Event
	for _, e := range m.events {
		if keep(e) {
			cp := e
			out = append(out, &cp)
		}
	}
	return out
}

type memRequests struct {
	mu       sync.Mutex
	requests map[string]domain.JoinRequest
}

func newMemRequests() *memRequests {
	return &memRequests{requests: map[string]domain.JoinRequest{}}
}

func (m *memRequests) put(r *domain.JoinRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = *r
}

func (m *memRequests) Create(ctx context.Context, r *domain.JoinRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.requests {
		if existing.EventID == r.EventID && existing.AttendeeID == r.AttendeeID && existing.Status.Active() {
			return domain.ErrInvalidState("an active request for this event already exists")
		}
	}
	m.requests[r.ID] = *r
	return nil
}

func (m *memRequests) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, domain.ErrNotFound("request not found")
	}
	cp := r
	return &cp, nil
}

func (m *memRequests) SetStatus(ctx context.Context, id string, expect, next domain.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return domain.ErrNotFound("request not found")
	}
	if r.Status != expect {
		return domain.ErrInvalidState("request status changed")
	}
	r.Status = next
	m.requests[id] = r
	return nil
}

func (m *memRequests) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.JoinRequest, error) {
	return m.list(func(r domain.JoinRequest) bool { return r.OrganizerID == organizerID }), nil
}

func (m *memRequests) ListByAttendee(ctx context.Context, attendeeID string) ([]*domain.JoinRequest, error) {
	return m.list(func(r domain.JoinRequest) bool { return r.AttendeeID == attendeeID }), nil
}

func (m *memRequests) ListByEvent(ctx context.Context, eventID string) ([]*domain.JoinRequest, error) {
	return m.list(func(r domain.JoinRequest) bool { return r.EventID == eventID }), nil
}

func (m *memRequests) list(keep func(domain.JoinRequest) bool) []*domain.JoinRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.JoinRequest
	for _, r := range m.requests {
		if keep(r) {
			cp := r
			out = append(out, &cp)
		}
	}
	return out
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]domain.User{}}
}

func (m *memUsers) put(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = *u
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound("user not found")
	}
	cp := u
	return &cp, nil
}

func (m *memUsers) Upsert(ctx context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.users[u.ID]; ok {
		cur.Name = u.Name
		cur.Email = u.Email
		cur.LastLogin = u.LastLogin
		m.users[u.ID] = cur
		cp := cur
		return &cp, nil
	}
	m.users[u.ID] = *u
	cp := *u
	return &cp, nil
}

func (m *memUsers) List(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.User
	for _, u := range m.users {
		cp := u
		out = append(out, &cp)
	}
	return out, nil
}

type memNotifier struct {
	mu      sync.Mutex
	notices []domain.ApprovalNotice
	fail    error
}

func (m *memNotifier) EnqueueApproval(ctx context.Context, n domain.ApprovalNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.notices = append(m.notices, n)
	return nil
}

func (m *memNotifier) sent() []domain.ApprovalNotice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ApprovalNotice(nil), m.notices...)
}

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }
