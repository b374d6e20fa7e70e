package domain

import (
	"context"
	"time"
)

// The stores expose exactly the primitives the lifecycle relies on:
// get-by-id, create, field update, a conditional status flip
// (compare-and-set) and an atomic counter increment. No transaction
// spanning an Event and a JoinRequest is assumed anywhere.

type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)

	// Update persists organizer field edits. Status and Attendees are
	// owned by SetStatus / IncrementAttendees and ignored here.
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id string) error

	// SetStatus flips status only when the stored value still equals
	// expect. A row in another state yields invalid_state;
	// a missing row yields not_found.
	SetStatus(ctx context.Context, id string, expect, next EventStatus) error

	// IncrementAttendees atomically adds delta at the storage layer
	// (never read-then-write) and returns the new count.
	IncrementAttendees(ctx context.Context, id string, delta int) (int, error)

	ListApproved(ctx context.Context, limit, offset int) ([]*Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]*Event, error)
	ListByStatus(ctx context.Context, status EventStatus) ([]*Event, error)
}

type RequestRepository interface {
	// Create inserts a pending request. A second active request for the
	// same (event, attendee) pair yields invalid_state.
	Create(ctx context.Context, r *JoinRequest) error
	GetByID(ctx context.Context, id string) (*JoinRequest, error)

	// SetStatus is the compare-and-set edge of the request state
	// machine; semantics match EventRepository.SetStatus.
	SetStatus(ctx context.Context, id string, expect, next RequestStatus) error

	ListByOrganizer(ctx context.Context, organizerID string) ([]*JoinRequest, error)
	ListByAttendee(ctx context.Context, attendeeID string) ([]*JoinRequest, error)
	ListByEvent(ctx context.Context, eventID string) ([]*JoinRequest, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// Upsert creates the record on first authentication and refreshes
	// LastLogin on subsequent ones; role is never overwritten.
	Upsert(ctx context.Context, u *User) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

// CacheRepository backs the submit fast-fail path and transport rate
// limiting. Cache errors are advisory; callers fall through to the store.
type CacheRepository interface {
	GetEventStatus(ctx context.Context, eventID string) (EventStatus, error)
	SetEventStatus(ctx context.Context, eventID string, status EventStatus) error

	AllowRequest(ctx context.Context, ip string, limit int, window time.Duration) (bool, error)
}

// ErrCacheMiss is returned by CacheRepository lookups with no entry.
var ErrCacheMiss = ErrNotFound("cache miss")

// ApprovalNotice is the payload handed to the notification pipeline when a
// join request is approved.
type ApprovalNotice struct {
	RequestID     string       `json:"request_id"`
	AttendeeName  string       `json:"attendee_name"`
	AttendeeEmail string       `json:"attendee_email"`
	Event         EventSummary `json:"event"`
}

// Notifier enqueues the approval notice for asynchronous delivery.
// Callers treat failures as best-effort: log and move on, the approval
// itself has already committed.
type Notifier interface {
	EnqueueApproval(ctx context.Context, n ApprovalNotice) error
}
