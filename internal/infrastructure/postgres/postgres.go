// Package postgres implements the domain repositories over pgx. The store
// is used as a document-with-primitives layer: single-row reads and writes,
// conditional status flips and an atomic counter increment. No write path
// opens a transaction spanning an event and a join request.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	role       TEXT NOT NULL,
	avatar_url TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'Active',
	last_login TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	id                    TEXT PRIMARY KEY,
	organizer_id          TEXT NOT NULL,
	title                 TEXT NOT NULL,
	description           TEXT NOT NULL,
	date                  TIMESTAMPTZ NOT NULL,
	start_time            TEXT NOT NULL DEFAULT '',
	end_time              TEXT NOT NULL DEFAULT '',
	location              TEXT NOT NULL,
	category              TEXT NOT NULL,
	image_url             TEXT NOT NULL DEFAULT '',
	capacity              INT  NOT NULL,
	attendees             INT  NOT NULL DEFAULT 0,
	status                TEXT NOT NULL,
	is_paid               BOOLEAN NOT NULL DEFAULT FALSE,
	price                 DOUBLE PRECISION NOT NULL DEFAULT 0,
	payment_collection_id TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_status ON events(status);
CREATE INDEX IF NOT EXISTS idx_events_organizer ON events(organizer_id);

CREATE TABLE IF NOT EXISTS join_requests (
	id             TEXT PRIMARY KEY,
	event_id       TEXT NOT NULL,
	event_title    TEXT NOT NULL,
	attendee_id    TEXT NOT NULL,
	attendee_name  TEXT NOT NULL,
	attendee_email TEXT NOT NULL,
	organizer_id   TEXT NOT NULL,
	status         TEXT NOT NULL,
	requested_at   TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS uq_join_requests_active
	ON join_requests(event_id, attendee_id)
	WHERE status IN ('pending', 'approved', 'attended');
CREATE INDEX IF NOT EXISTS idx_join_requests_event ON join_requests(event_id);
CREATE INDEX IF NOT EXISTS idx_join_requests_attendee ON join_requests(attendee_id);
CREATE INDEX IF NOT EXISTS idx_join_requests_organizer ON join_requests(organizer_id);

CREATE TABLE IF NOT EXISTS outbox (
	id            BIGSERIAL PRIMARY KEY,
	message_id    TEXT NOT NULL,
	routing_key   TEXT NOT NULL,
	payload       JSONB NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	attempt       INT NOT NULL DEFAULT 0,
	last_error    TEXT,
	occurred_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	next_retry_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(next_retry_at) WHERE status = 'pending';
`

// EnsureSchema creates the tables if they do not exist. Deployments with
// managed migrations can skip this.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
