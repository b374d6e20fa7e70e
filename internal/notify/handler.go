package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/zenith-events/zenith/internal/domain"
	"github.com/zenith-events/zenith/internal/metrics"
)

// Handler processes one approval notice end to end: dedupe, wallet link,
// email. It is the unit the broker consumer hands messages to.
type Handler struct {
	sender Sender
	passes PassIssuer   // optional
	dedupe Deduplicator // optional
	lg     zerolog.Logger
	now    func() time.Time
}

func NewHandler(sender Sender, passes PassIssuer, dedupe Deduplicator, lg zerolog.Logger) *Handler {
	return &Handler{
		sender: sender,
		passes: passes,
		dedupe: dedupe,
		lg:     lg.With().Str("component", "approval_handler").Logger(),
		now:    time.Now,
	}
}

// Handle delivers a single notice. messageID identifies the broker message
// for deduplication; redeliveries of a processed id are dropped silently.
// A send failure is returned so the consumer can nack for retry.
func (h *Handler) Handle(ctx context.Context, messageID string, n domain.ApprovalNotice) error {
	if h.dedupe != nil && messageID != "" {
		dup, err := h.dedupe.CheckAndMark(ctx, messageID)
		if err != nil {
			// dedupe store down: deliver anyway, duplicates beat silence
			h.lg.Warn().Err(err).Str("message_id", messageID).Msg("dedupe check failed")
		} else if dup {
			metrics.RecordIdempotencyHit()
			h.lg.Debug().Str("message_id", messageID).Msg("duplicate notice dropped")
			return nil
		}
	}

	walletURL := ""
	if h.passes != nil {
		url, err := h.passes.SaveURL(n, h.now())
		if err != nil {
			// pass issuance is an extra, the email still goes out
			h.lg.Warn().Err(err).Str("request_id", n.RequestID).Msg("wallet pass not issued")
		} else {
			walletURL = url
		}
	}

	start := h.now()
	if err := h.sender.SendApproval(ctx, n, walletURL); err != nil {
		metrics.RecordNotificationFailed("email", "send")
		return err
	}
	metrics.RecordNotificationSent("email", h.now().Sub(start))
	return nil
}
