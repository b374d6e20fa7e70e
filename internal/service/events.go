package service

import (
	"context"

	"github.com/zenith-events/zenith/internal/domain"
	"github.com/zenith-events/zenith/internal/metrics"
	"github.com/zenith-events/zenith/internal/pkg/logger"
)

// Advice is the output of an advisory event review. It never gates anything:
// the admin decision in SetStatus remains the only authority.
type Advice struct {
	Recommendation domain.EventStatus `json:"recommendation"`
	Reason         string             `json:"reason"`
}

// ApprovalGate classifies a submitted event against content policy and
// returns a non-binding recommendation.
type ApprovalGate interface {
	Review(ctx context.Context, ev *domain.Event) (*Advice, error)
}

type EventService struct {
	events domain.EventRepository
	cache  domain.CacheRepository
	gate   ApprovalGate
	clock  Clock
}

func NewEventService(events domain.EventRepository, cache domain.CacheRepository, gate ApprovalGate, clock Clock) *EventService {
	if clock == nil {
		clock = SystemClock
	}
	return &EventService{events: events, cache: cache, gate: gate, clock: clock}
}

// Create registers a new event in pending status for the acting organizer.
func (s *EventService) Create(ctx context.Context, in domain.NewEventInput, actorID string, role domain.Role) (*domain.Event, error) {
	if !isAdmin(role) && !isOrganizer(role) {
		return nil, domain.ErrForbidden("only organizers can create events")
	}
	ev, err := domain.NewPendingEvent(actorID, in, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *EventService) Get(ctx context.Context, eventID string) (*domain.Event, error) {
	return s.events.GetByID(ctx, eventID)
}

func (s *EventService) ListApproved(ctx context.Context, limit, offset int) ([]*domain.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.events.ListApproved(ctx, limit, offset)
}

func (s *EventService) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	return s.events.ListByOrganizer(ctx, organizerID)
}

func (s *EventService) ListByStatus(ctx context.Context, status domain.EventStatus, role domain.Role) ([]*domain.Event, error) {
	if !isAdmin(role) {
		return nil, domain.ErrForbidden("only admins can list events by status")
	}
	return s.events.ListByStatus(ctx, status)
}

// Update applies a partial edit to an event owned by the actor. Status and
// the attendee counter are not editable through this path.
func (s *EventService) Update(ctx context.Context, eventID string, upd domain.EventUpdate, actorID string, role domain.Role) (*domain.Event, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !isAdmin(role) && ev.OrganizerID != actorID {
		return nil, domain.ErrForbidden("only the owning organizer can edit this event")
	}
	if err := ev.ApplyUpdate(upd, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Delete removes an event record. Join requests referencing it are left in
// place; their snapshots keep them readable.
func (s *EventService) Delete(ctx context.Context, eventID, actorID string, role domain.Role) error {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if !isAdmin(role) && ev.OrganizerID != actorID {
		return domain.ErrForbidden("only the owning organizer can delete this event")
	}
	return s.events.Delete(ctx, eventID)
}

// SetStatus applies the admin verdict on a pending event. The flip is a
// conditional update keyed on the stored status still being pending, so a
// pending event is decided at most once.
func (s *EventService) SetStatus(ctx context.Context, eventID string, status domain.EventStatus, role domain.Role) error {
	if !isAdmin(role) {
		return domain.ErrForbidden("only admins can approve or reject events")
	}
	if status != domain.EventApproved && status != domain.EventRejected {
		return domain.ErrValidation("status must be approved or rejected")
	}
	if err := s.events.SetStatus(ctx, eventID, domain.EventPending, status); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.SetEventStatus(ctx, eventID, status)
	}
	return nil
}

// Review asks the approval gate for a non-binding classification of a
// pending event. A gate failure is reported as advice to review manually,
// not as an error.
func (s *EventService) Review(ctx context.Context, eventID string, role domain.Role) (*Advice, error) {
	if !isAdmin(role) {
		return nil, domain.ErrForbidden("only admins can request an event review")
	}
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if s.gate == nil {
		return nil, domain.ErrExternal("no approval gate configured", nil)
	}
	advice, err := s.gate.Review(ctx, ev)
	if err != nil {
		logger.WithCtx(ctx).Warn().Err(err).
			Str("event_id", eventID).
			Msg("approval gate unavailable")
		return &Advice{
			Recommendation: domain.EventPending,
			Reason:         "automatic review unavailable, review manually",
		}, nil
	}
	metrics.RecordApprovalAdvice(string(advice.Recommendation))
	return advice, nil
}
