package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zenith-events/zenith/internal/domain"
)

type RequestRepo struct {
	pool *pgxpool.Pool
}

func NewRequestRepo(pool *pgxpool.Pool) *RequestRepo {
	return &RequestRepo{pool: pool}
}

const requestColumns = `
	id, event_id, event_title, attendee_id, attendee_name, attendee_email,
	organizer_id, status, requested_at, updated_at`

// Create inserts a pending request. The partial unique index on
// (event_id, attendee_id) over non-rejected rows makes the one-active-
// request rule a storage invariant; ON CONFLICT turns a duplicate into a
// zero-row insert instead of an error.
func (r *RequestRepo) Create(ctx context.Context, req *domain.JoinRequest) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO join_requests (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (event_id, attendee_id) WHERE status IN ('pending', 'approved', 'attended')
		DO NOTHING
	`,
		req.ID, req.EventID, req.EventTitle, req.AttendeeID, req.AttendeeName, req.AttendeeEmail,
		req.OrganizerID, string(req.Status), req.RequestedAt, req.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidState("an active request for this event already exists")
	}
	return nil
}

func (r *RequestRepo) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM join_requests WHERE id = $1`, id)

	var req domain.JoinRequest
	var status string
	err := row.Scan(
		&req.ID, &req.EventID, &req.EventTitle, &req.AttendeeID, &req.AttendeeName, &req.AttendeeEmail,
		&req.OrganizerID, &status, &req.RequestedAt, &req.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("request not found")
	}
	if err != nil {
		return nil, err
	}
	req.Status = domain.RequestStatus(status)
	return &req, nil
}

// SetStatus is the compare-and-set edge of the request state machine.
func (r *RequestRepo) SetStatus(ctx context.Context, id string, expect, next domain.RequestStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE join_requests
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, string(expect), string(next))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM join_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound("request not found")
		}
		return domain.ErrInvalidState("request status changed")
	}
	return nil
}

func (r *RequestRepo) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.JoinRequest, error) {
	return r.list(ctx, `organizer_id = $1`, organizerID)
}

func (r *RequestRepo) ListByAttendee(ctx context.Context, attendeeID string) ([]*domain.JoinRequest, error) {
	return r.list(ctx, `attendee_id = $1`, attendeeID)
}

func (r *RequestRepo) ListByEvent(ctx context.Context, eventID string) ([]*domain.JoinRequest, error) {
	return r.list(ctx, `event_id = $1`, eventID)
}

func (r *RequestRepo) list(ctx context.Context, where string, arg any) ([]*domain.JoinRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM join_requests
		WHERE `+where+`
		ORDER BY requested_at DESC
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.JoinRequest
	for rows.Next() {
		var req domain.JoinRequest
		var status string
		if err := rows.Scan(
			&req.ID, &req.EventID, &req.EventTitle, &req.AttendeeID, &req.AttendeeName, &req.AttendeeEmail,
			&req.OrganizerID, &status, &req.RequestedAt, &req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		req.Status = domain.RequestStatus(status)
		out = append(out, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
