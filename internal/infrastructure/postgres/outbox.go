package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zenith-events/zenith/internal/domain"
)

// RoutingKeyApproval is the broker routing key for approval notices.
const RoutingKeyApproval = "join_request.approved"

// Outbox is the transactional-outbox Notifier. EnqueueApproval only writes
// a row; the worker owns the broker.
type Outbox struct {
	pool *pgxpool.Pool
}

func NewOutbox(pool *pgxpool.Pool) *Outbox {
	return &Outbox{pool: pool}
}

func (o *Outbox) EnqueueApproval(ctx context.Context, n domain.ApprovalNotice) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = o.pool.Exec(ctx, `
		INSERT INTO outbox (message_id, routing_key, payload, status, occurred_at, next_retry_at)
		VALUES ($1, $2, $3, 'pending', NOW(), NOW())
	`, uuid.NewString(), RoutingKeyApproval, payload)
	return err
}
