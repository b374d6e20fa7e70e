package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	joinRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zenith_join_requests_total",
			Help: "Total number of join requests submitted",
		},
		[]string{"result"},
	)

	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zenith_decisions_total",
			Help: "Total number of organizer decisions applied",
		},
		[]string{"decision"},
	)

	checkInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zenith_check_ins_total",
			Help: "Total number of check-in scans by outcome",
		},
		[]string{"outcome"},
	)

	notificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zenith_notifications_sent_total",
			Help: "Total number of approval notifications delivered",
		},
		[]string{"channel"},
	)

	notificationsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zenith_notifications_failed_total",
			Help: "Total number of failed notification deliveries",
		},
		[]string{"channel", "error_type"},
	)

	notificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zenith_notification_duration_seconds",
			Help:    "Notification delivery duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"channel"},
	)

	outboxPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zenith_outbox_published_total",
			Help: "Total number of outbox rows published to the broker",
		},
	)

	outboxRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zenith_outbox_retries_total",
			Help: "Total number of outbox publish retries",
		},
	)

	idempotencyHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zenith_idempotency_hits_total",
			Help: "Total number of duplicate notification messages skipped",
		},
	)

	approvalAdviceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zenith_approval_advice_total",
			Help: "Total number of advisory event reviews by recommendation",
		},
		[]string{"recommendation"},
	)

	reconcilerCorrectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "zenith_reconciler_corrections_total",
			Help: "Total number of attendee counters corrected by the reconciler",
		},
	)
)

// RecordJoinRequest records a submitted join request by result.
func RecordJoinRequest(result string) {
	joinRequestsTotal.WithLabelValues(result).Inc()
}

// RecordDecision records an applied organizer decision.
func RecordDecision(decision string) {
	decisionsTotal.WithLabelValues(decision).Inc()
}

// RecordCheckIn records a check-in scan outcome.
func RecordCheckIn(outcome string) {
	checkInsTotal.WithLabelValues(outcome).Inc()
}

// RecordNotificationSent records a delivered notification.
func RecordNotificationSent(channel string, duration time.Duration) {
	notificationsSentTotal.WithLabelValues(channel).Inc()
	notificationDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordNotificationFailed records a failed notification delivery.
func RecordNotificationFailed(channel, errorType string) {
	notificationsFailedTotal.WithLabelValues(channel, errorType).Inc()
}

// RecordOutboxPublished records a row handed to the broker.
func RecordOutboxPublished() {
	outboxPublishedTotal.Inc()
}

// RecordOutboxRetry records a publish retry.
func RecordOutboxRetry() {
	outboxRetriesTotal.Inc()
}

// RecordIdempotencyHit records a duplicate message skipped by the consumer.
func RecordIdempotencyHit() {
	idempotencyHitsTotal.Inc()
}

// RecordApprovalAdvice records an advisory review recommendation.
func RecordApprovalAdvice(recommendation string) {
	approvalAdviceTotal.WithLabelValues(recommendation).Inc()
}

// RecordReconcilerCorrection records a corrected attendee counter.
func RecordReconcilerCorrection() {
	reconcilerCorrectionsTotal.Inc()
}

// Handler returns the Prometheus metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
