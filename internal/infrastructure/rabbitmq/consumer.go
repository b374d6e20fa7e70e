// Package rabbitmq consumes approval notices published by the outbox worker
// and hands them to the notification handler.
package rabbitmq

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/zenith-events/zenith/internal/domain"
	"github.com/zenith-events/zenith/internal/metrics"
	"github.com/zenith-events/zenith/internal/notify"
	"github.com/zenith-events/zenith/internal/pkg/logger"
)

const rkApproval = "join_request.approved"

type Consumer struct {
	rabbitURL string
	exchange  string
	queue     string
	handler   *notify.Handler
}

func NewConsumer(rabbitURL, exchange, queue string, handler *notify.Handler) *Consumer {
	if queue == "" {
		queue = "zenith.approval-notices"
	}
	return &Consumer{
		rabbitURL: strings.TrimSpace(rabbitURL),
		exchange:  strings.TrimSpace(exchange),
		queue:     queue,
		handler:   handler,
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	log := logger.Logger.With().Str("component", "rabbitmq_consumer").Logger()

	conn, err := amqp.Dial(c.rabbitURL)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	q, err := ch.QueueDeclare(c.queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	if err := ch.QueueBind(q.Name, rkApproval, c.exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}
	if err := ch.Qos(10, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	deliveries, err := ch.Consume(q.Name, "zenith", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	go func() {
		defer func() {
			_ = ch.Close()
			_ = conn.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := c.handleDelivery(ctx, d); err != nil {
					_ = d.Nack(false, true) // transient => requeue
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	log.Info().Str("queue", q.Name).Msg("consumer started")
	return nil
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) error {
	log := logger.Logger.With().
		Str("component", "rabbitmq_consumer").
		Str("routing_key", d.RoutingKey).
		Logger()

	var n domain.ApprovalNotice
	if err := json.Unmarshal(d.Body, &n); err != nil {
		log.Warn().Err(err).Msg("invalid payload json; dropping")
		return nil // poison => drop
	}
	if n.RequestID == "" || n.AttendeeEmail == "" {
		log.Warn().Msg("incomplete approval notice; dropping")
		return nil
	}

	msgID := messageID(d)
	metrics.RecordJoinRequest("notice_consumed")

	if err := c.handler.Handle(ctx, msgID, n); err != nil {
		log.Error().Err(err).Str("message_id", msgID).Msg("delivery failed (requeue)")
		return err
	}
	return nil
}

// messageID prefers the AMQP message id, with a body-hash fallback so
// dedupe still works for messages published without one.
func messageID(d amqp.Delivery) string {
	if id := strings.TrimSpace(d.MessageId); id != "" {
		return id
	}
	h := sha256.Sum256(append([]byte(d.RoutingKey+"\n"), d.Body...))
	return "hash:" + hex.EncodeToString(h[:])
}
