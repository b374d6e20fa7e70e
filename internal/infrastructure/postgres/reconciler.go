package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zenith-events/zenith/internal/domain"
	"github.com/zenith-events/zenith/internal/metrics"
	"github.com/zenith-events/zenith/internal/pkg/logger"
)

// Reconciler recomputes event attendee counters from the request rows. It
// repairs the window where a request was approved but the increment failed,
// and any drift from manual intervention.
type Reconciler struct {
	pool     *pgxpool.Pool
	interval time.Duration
}

// attendingStatuses are the request states that occupy a seat. pending and
// rejected requests never count.
var attendingStatuses = []domain.RequestStatus{
	domain.RequestApproved,
	domain.RequestAttended,
}

// reconcileSQL corrects every counter that differs from the recount of
// seat-holding requests for that event.
func reconcileSQL() string {
	quoted := make([]string, len(attendingStatuses))
	for i, s := range attendingStatuses {
		quoted[i] = "'" + string(s) + "'"
	}
	return fmt.Sprintf(`
		UPDATE events e
		SET attendees = sub.actual, updated_at = NOW()
		FROM (
			SELECT e2.id, COALESCE(cnt.actual, 0) AS actual
			FROM events e2
			LEFT JOIN (
				SELECT event_id, COUNT(*) AS actual
				FROM join_requests
				WHERE status IN (%s)
				GROUP BY event_id
			) cnt ON cnt.event_id = e2.id
		) sub
		WHERE e.id = sub.id AND e.attendees <> sub.actual
	`, strings.Join(quoted, ", "))
}

func NewReconciler(pool *pgxpool.Pool, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reconciler{pool: pool, interval: interval}
}

func (r *Reconciler) Start(ctx context.Context) {
	go func() {
		log := logger.Logger.With().Str("component", "reconciler").Logger()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stopped")
				return
			case <-ticker.C:
				n, err := r.RunOnce(ctx)
				if err != nil {
					log.Warn().Err(err).Msg("reconcile pass failed")
					continue
				}
				if n > 0 {
					log.Info().Int64("corrected", n).Msg("attendee counters reconciled")
				}
			}
		}
	}()
}

// RunOnce runs one repair pass and returns how many counters changed.
func (r *Reconciler) RunOnce(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, reconcileSQL())
	if err != nil {
		return 0, err
	}
	n := tag.RowsAffected()
	for i := int64(0); i < n; i++ {
		metrics.RecordReconcilerCorrection()
	}
	return n, nil
}
