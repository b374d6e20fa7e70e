package domain

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
	RequestAttended RequestStatus = "attended"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected, RequestAttended:
		return true
	}
	return false
}

// Active statuses occupy the one-active-request-per-(event,attendee) slot;
// a rejected request frees it.
func (s RequestStatus) Active() bool {
	return s == RequestPending || s == RequestApproved || s == RequestAttended
}

// JoinRequest is a fact record referenced by an event, its attendee and its
// organizer. Its lifetime is independent of the event's: deleting an event
// does not cascade here.
//
// The transitions form a forward-only machine terminal at attended:
//
//	pending -> approved -> attended
//	pending -> rejected
//
// EventTitle/AttendeeName/AttendeeEmail are snapshots taken at request time
// and are not re-synced with later edits.
type JoinRequest struct {
	ID string

	EventID    string
	EventTitle string

	AttendeeID    string
	AttendeeName  string
	AttendeeEmail string

	OrganizerID string

	Status      RequestStatus
	RequestedAt time.Time
	UpdatedAt   time.Time
}

// NewJoinRequest snapshots the event and attendee into a pending request.
// The random id doubles as the check-in token, so it must stay unguessable.
func NewJoinRequest(ev *Event, attendee *User, now time.Time) *JoinRequest {
	return &JoinRequest{
		ID:            uuid.NewString(),
		EventID:       ev.ID,
		EventTitle:    ev.Title,
		AttendeeID:    attendee.ID,
		AttendeeName:  attendee.Name,
		AttendeeEmail: attendee.Email,
		OrganizerID:   ev.OrganizerID,
		Status:        RequestPending,
		RequestedAt:   now.UTC(),
		UpdatedAt:     now.UTC(),
	}
}

// Decision is the organizer's verdict on a pending request.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}
