// Package notify delivers approval notifications to attendees. Messages
// arrive from the broker consumer, get deduplicated, enriched with a wallet
// save link and sent out over SMTP.
package notify

import (
	"context"
	"time"

	"github.com/zenith-events/zenith/internal/domain"
)

// Sender delivers a single approval email. Implementations decide transport;
// SMTPSender is the production one, FakeSender backs tests and dev mode.
type Sender interface {
	SendApproval(ctx context.Context, n domain.ApprovalNotice, walletURL string) error
}

// PassIssuer turns an approval into a wallet save link. Optional: a handler
// without one sends plain emails.
type PassIssuer interface {
	SaveURL(n domain.ApprovalNotice, now time.Time) (string, error)
}

// Deduplicator guards against broker redeliveries. CheckAndMark reports
// whether the message id was already processed and atomically marks it.
type Deduplicator interface {
	CheckAndMark(ctx context.Context, messageID string) (bool, error)
}
