package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zenith-events/zenith/internal/domain"
)

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

const eventColumns = `
	id, organizer_id, title, description, date, start_time, end_time,
	location, category, image_url, capacity, attendees, status,
	is_paid, price, payment_collection_id, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	var status string
	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Date, &e.StartTime, &e.EndTime,
		&e.Location, &e.Category, &e.ImageURL, &e.Capacity, &e.Attendees, &status,
		&e.IsPaid, &e.Price, &e.PaymentCollectionID, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	if err != nil {
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	return &e, nil
}

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	`,
		e.ID, e.OrganizerID, e.Title, e.Description, e.Date, e.StartTime, e.EndTime,
		e.Location, e.Category, e.ImageURL, e.Capacity, e.Attendees, string(e.Status),
		e.IsPaid, e.Price, e.PaymentCollectionID, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

// Update writes organizer-owned fields. Status and attendees stay untouched;
// they are owned by SetStatus and IncrementAttendees.
func (r *EventRepo) Update(ctx context.Context, e *domain.Event) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE events
		SET title = $2, description = $3, date = $4, start_time = $5, end_time = $6,
		    location = $7, category = $8, image_url = $9, capacity = $10,
		    is_paid = $11, price = $12, payment_collection_id = $13, updated_at = $14
		WHERE id = $1
	`,
		e.ID, e.Title, e.Description, e.Date, e.StartTime, e.EndTime,
		e.Location, e.Category, e.ImageURL, e.Capacity,
		e.IsPaid, e.Price, e.PaymentCollectionID, e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("event not found")
	}
	return nil
}

func (r *EventRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("event not found")
	}
	return nil
}

// SetStatus flips the status only when the stored value still equals expect.
// The WHERE clause is the whole concurrency story: losers of a race match
// zero rows and are told the state moved on.
func (r *EventRepo) SetStatus(ctx context.Context, id string, expect, next domain.EventStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE events
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, string(expect), string(next))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound("event not found")
		}
		return domain.ErrInvalidState("event status changed")
	}
	return nil
}

// IncrementAttendees adds delta in a single statement so concurrent
// approvals never lose updates.
func (r *EventRepo) IncrementAttendees(ctx context.Context, id string, delta int) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		UPDATE events
		SET attendees = attendees + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING attendees
	`, id, delta).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound("event not found")
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *EventRepo) ListApproved(ctx context.Context, limit, offset int) ([]*domain.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE status = 'Approved'
		ORDER BY date ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE organizer_id = $1
		ORDER BY created_at DESC
	`, organizerID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func (r *EventRepo) ListByStatus(ctx context.Context, status domain.EventStatus) ([]*domain.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE status = $1
		ORDER BY created_at DESC
	`, string(status))
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	var out []*domain.Event
	for rows.Next() {
		var e domain.Event
		var status string
		if err := rows.Scan(
			&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Date, &e.StartTime, &e.EndTime,
			&e.Location, &e.Category, &e.ImageURL, &e.Capacity, &e.Attendees, &status,
			&e.IsPaid, &e.Price, &e.PaymentCollectionID, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		e.Status = domain.EventStatus(status)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
