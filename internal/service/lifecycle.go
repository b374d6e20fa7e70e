package service

import (
	"context"

	"github.com/zenith-events/zenith/internal/domain"
	"github.com/zenith-events/zenith/internal/metrics"
	"github.com/zenith-events/zenith/internal/pkg/logger"
)

// RequestLifecycle mediates every legal transition of a join request and
// runs the side effects each transition requires. The backing store offers
// no multi-document transactions, so the approved path is a sequence of
// discrete, individually fallible steps in a fixed order: status flip,
// counter increment, notification. Only the notification is best-effort.
type RequestLifecycle struct {
	events   domain.EventRepository
	requests domain.RequestRepository
	users    domain.UserRepository
	cache    domain.CacheRepository // optional fast-fail on submit
	notifier domain.Notifier       // optional, best-effort
	clock    Clock
}

func NewRequestLifecycle(
	events domain.EventRepository,
	requests domain.RequestRepository,
	users domain.UserRepository,
	cache domain.CacheRepository,
	notifier domain.Notifier,
	clock Clock,
) *RequestLifecycle {
	if clock == nil {
		clock = SystemClock
	}
	return &RequestLifecycle{
		events:   events,
		requests: requests,
		users:    users,
		cache:    cache,
		notifier: notifier,
		clock:    clock,
	}
}

// Submit creates a pending join request for an approved event, snapshotting
// the event title and attendee name/email at creation time.
func (s *RequestLifecycle) Submit(ctx context.Context, eventID, attendeeID string) (*domain.JoinRequest, error) {
	if s.cache != nil {
		status, err := s.cache.GetEventStatus(ctx, eventID)
		if err == nil && status != domain.EventApproved {
			return nil, domain.ErrPrecondition("event is not open for registration")
		}
		// cache miss or redis error: fall through to the store
	}

	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.Status != domain.EventApproved {
		return nil, domain.ErrPrecondition("event is not open for registration")
	}
	if ev.OrganizerID == "" {
		return nil, domain.ErrPrecondition("event has no organizer on record")
	}

	attendee, err := s.users.GetByID(ctx, attendeeID)
	if err != nil {
		return nil, err
	}

	r := domain.NewJoinRequest(ev, attendee, s.clock.Now())
	if err := s.requests.Create(ctx, r); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetEventStatus(ctx, ev.ID, ev.Status)
	}
	metrics.RecordJoinRequest("created")
	return r, nil
}

// Decide applies the organizer's verdict to a pending request.
//
// The status flip is a conditional update keyed on the stored status still
// being pending, so of N concurrent deciders exactly one wins; the rest see
// invalid_state. On approval the attendee counter is then incremented with
// the store's atomic-increment primitive, and finally the notification is
// enqueued. A failed increment surfaces to the caller without rolling back
// the flip; the reconciler repairs the resulting drift.
func (s *RequestLifecycle) Decide(ctx context.Context, requestID string, decision domain.Decision, actorID string, role domain.Role) error {
	if !decision.Valid() {
		return domain.ErrValidation("decision must be approved or rejected")
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if !isAdmin(role) && req.OrganizerID != actorID {
		return domain.ErrForbidden("only the event organizer can decide this request")
	}
	if req.Status != domain.RequestPending {
		return domain.ErrInvalidState("request is not pending")
	}

	// step 1: compare-and-set status flip
	next := domain.RequestStatus(decision)
	if err := s.requests.SetStatus(ctx, requestID, domain.RequestPending, next); err != nil {
		return err
	}
	metrics.RecordDecision(string(decision))

	if decision == domain.DecisionRejected {
		return nil
	}

	log := logger.WithCtx(ctx)

	// step 2: atomic counter increment, must-succeed
	count, err := s.events.IncrementAttendees(ctx, req.EventID, 1)
	if err != nil {
		log.Error().Err(err).
			Str("request_id", requestID).
			Str("event_id", req.EventID).
			Msg("request approved but attendee counter not incremented")
		if domain.IsCode(err, domain.CodeNotFound) {
			return domain.ErrNotFound("event not found")
		}
		return err
	}

	ev, evErr := s.events.GetByID(ctx, req.EventID)
	if evErr == nil && count > ev.Capacity {
		// over-capacity approval is allowed but worth noticing
		log.Warn().
			Str("event_id", ev.ID).
			Int("attendees", count).
			Int("capacity", ev.Capacity).
			Msg("attendee count exceeds capacity")
	}

	// step 3: best-effort notification
	if s.notifier != nil {
		notice := domain.ApprovalNotice{
			RequestID:     req.ID,
			AttendeeName:  req.AttendeeName,
			AttendeeEmail: req.AttendeeEmail,
		}
		if evErr == nil {
			notice.Event = ev.Summary()
		} else {
			notice.Event = domain.EventSummary{EventID: req.EventID, Title: req.EventTitle}
		}
		if err := s.notifier.EnqueueApproval(ctx, notice); err != nil {
			log.Error().Err(err).
				Str("request_id", req.ID).
				Msg("approval notification not enqueued")
		}
	}
	return nil
}

func (s *RequestLifecycle) Get(ctx context.Context, requestID string) (*domain.JoinRequest, error) {
	return s.requests.GetByID(ctx, requestID)
}

func (s *RequestLifecycle) ListForOrganizer(ctx context.Context, organizerID string) ([]*domain.JoinRequest, error) {
	return s.requests.ListByOrganizer(ctx, organizerID)
}

func (s *RequestLifecycle) ListForAttendee(ctx context.Context, attendeeID string) ([]*domain.JoinRequest, error) {
	return s.requests.ListByAttendee(ctx, attendeeID)
}

func (s *RequestLifecycle) ListForEvent(ctx context.Context, eventID, actorID string, role domain.Role) ([]*domain.JoinRequest, error) {
	if !isAdmin(role) {
		ev, err := s.events.GetByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if ev.OrganizerID != actorID {
			return nil, domain.ErrForbidden("only the event organizer can list its requests")
		}
	}
	return s.requests.ListByEvent(ctx, eventID)
}
