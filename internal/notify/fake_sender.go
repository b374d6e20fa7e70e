package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zenith-events/zenith/internal/domain"
)

// FakeSender logs instead of sending. Used in dev mode and tests.
type FakeSender struct {
	lg zerolog.Logger

	mu   sync.Mutex
	sent []SentMail
}

type SentMail struct {
	Notice    domain.ApprovalNotice
	WalletURL string
}

func NewFakeSender(lg zerolog.Logger) *FakeSender {
	return &FakeSender{lg: lg.With().Str("component", "fake_sender").Logger()}
}

func (f *FakeSender) SendApproval(ctx context.Context, n domain.ApprovalNotice, walletURL string) error {
	f.mu.Lock()
	f.sent = append(f.sent, SentMail{Notice: n, WalletURL: walletURL})
	f.mu.Unlock()

	f.lg.Info().
		Str("to", n.AttendeeEmail).
		Str("event_id", n.Event.EventID).
		Str("request_id", n.RequestID).
		Msg("approval email suppressed (fake sender)")
	return nil
}

// Sent returns a copy of everything delivered so far.
func (f *FakeSender) Sent() []SentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMail(nil), f.sent...)
}
