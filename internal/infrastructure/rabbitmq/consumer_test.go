package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenith-events/zenith/internal/domain"
	"github.com/zenith-events/zenith/internal/notify"
)

func delivery(t *testing.T, n domain.ApprovalNotice, msgID string) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(n)
	require.NoError(t, err)
	return amqp.Delivery{RoutingKey: rkApproval, Body: body, MessageId: msgID}
}

func testConsumer(sender *notify.FakeSender) *Consumer {
	h := notify.NewHandler(sender, nil, nil, zerolog.Nop())
	return NewConsumer("amqp://unused", "zenith.events", "", h)
}

func TestHandleDelivery_DeliversNotice(t *testing.T) {
	sender := notify.NewFakeSender(zerolog.Nop())
	c := testConsumer(sender)

	n := domain.ApprovalNotice{
		RequestID:     "req-1",
		AttendeeName:  "Ada",
		AttendeeEmail: "ada@example.com",
		Event:         domain.EventSummary{EventID: "ev-1", Title: "Go Meetup"},
	}
	require.NoError(t, c.handleDelivery(context.Background(), delivery(t, n, "m-1")))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "req-1", sent[0].Notice.RequestID)
}

func TestHandleDelivery_DropsPoisonMessage(t *testing.T) {
	sender := notify.NewFakeSender(zerolog.Nop())
	c := testConsumer(sender)

	d := amqp.Delivery{RoutingKey: rkApproval, Body: []byte("not json")}
	assert.NoError(t, c.handleDelivery(context.Background(), d))
	assert.Empty(t, sender.Sent())
}

func TestHandleDelivery_DropsIncompleteNotice(t *testing.T) {
	sender := notify.NewFakeSender(zerolog.Nop())
	c := testConsumer(sender)

	n := domain.ApprovalNotice{RequestID: "req-1"} // no email
	assert.NoError(t, c.handleDelivery(context.Background(), delivery(t, n, "m-1")))
	assert.Empty(t, sender.Sent())
}

func TestMessageID_FallsBackToBodyHash(t *testing.T) {
	d := amqp.Delivery{RoutingKey: rkApproval, Body: []byte(`{"a":1}`)}
	id1 := messageID(d)
	id2 := messageID(d)
	assert.Equal(t, id1, id2)
	assert.Contains(t, id1, "hash:")

	d.MessageId = "m-1"
	assert.Equal(t, "m-1", messageID(d))
}
