package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenith-events/zenith/internal/domain"
)

type memDedupe struct {
	seen map[string]bool
	err  error
}

func (m *memDedupe) CheckAndMark(ctx context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[id] {
		return true, nil
	}
	m.seen[id] = true
	return false, nil
}

type stubIssuer struct {
	url string
	err error
}

func (s stubIssuer) SaveURL(n domain.ApprovalNotice, now time.Time) (string, error) {
	return s.url, s.err
}

type failSender struct{ err error }

func (f failSender) SendApproval(ctx context.Context, n domain.ApprovalNotice, walletURL string) error {
	return f.err
}

func notice() domain.ApprovalNotice {
	return domain.ApprovalNotice{
		RequestID:     "req-1",
		AttendeeName:  "Ada",
		AttendeeEmail: "ada@example.com",
		Event:         domain.EventSummary{EventID: "ev-1", Title: "Go Meetup"},
	}
}

func TestHandle_SendsWithWalletLink(t *testing.T) {
	sender := NewFakeSender(zerolog.Nop())
	h := NewHandler(sender, stubIssuer{url: "https://pay.google.com/gp/v/save/abc"}, &memDedupe{}, zerolog.Nop())

	require.NoError(t, h.Handle(context.Background(), "m-1", notice()))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].Notice.AttendeeEmail)
	assert.Equal(t, "https://pay.google.com/gp/v/save/abc", sent[0].WalletURL)
}

func TestHandle_DropsDuplicateMessage(t *testing.T) {
	sender := NewFakeSender(zerolog.Nop())
	h := NewHandler(sender, nil, &memDedupe{}, zerolog.Nop())

	require.NoError(t, h.Handle(context.Background(), "m-1", notice()))
	require.NoError(t, h.Handle(context.Background(), "m-1", notice()))

	assert.Len(t, sender.Sent(), 1)
}

func TestHandle_DedupeFailureStillDelivers(t *testing.T) {
	sender := NewFakeSender(zerolog.Nop())
	h := NewHandler(sender, nil, &memDedupe{err: errors.New("redis down")}, zerolog.Nop())

	require.NoError(t, h.Handle(context.Background(), "m-1", notice()))
	assert.Len(t, sender.Sent(), 1)
}

func TestHandle_WalletFailureStillDelivers(t *testing.T) {
	sender := NewFakeSender(zerolog.Nop())
	h := NewHandler(sender, stubIssuer{err: errors.New("bad key")}, nil, zerolog.Nop())

	require.NoError(t, h.Handle(context.Background(), "m-1", notice()))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].WalletURL)
}

func TestHandle_SendFailurePropagates(t *testing.T) {
	h := NewHandler(failSender{err: errors.New("smtp down")}, nil, &memDedupe{}, zerolog.Nop())
	assert.Error(t, h.Handle(context.Background(), "m-1", notice()))
}

func TestApprovalText_IncludesTicketAndWallet(t *testing.T) {
	n := notice()
	n.Event.Location = "Community Hall"
	body := approvalText(n, "https://example.com/save")
	assert.Contains(t, body, "req-1")
	assert.Contains(t, body, "Community Hall")
	assert.Contains(t, body, "https://example.com/save")
}
