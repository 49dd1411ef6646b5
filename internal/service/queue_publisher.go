// Package queue_publisher pushes rule-change events onto the broker for
// the audit consumer and other storefront instances. Errors are logged
// and returned so callers can ignore failures without interrupting the
// admin request that triggered the event.
package queue_publisher

import (
	"context"
	"encoding/json"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	q "github.com/matchdayhq/ticket-pricing/internal/queue"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// PublishRuleSetChanged sends one RuleSetChangedEvent to the
// pricing.rules.changed queue. Admin mutations are rare, so the publisher
// dials per call instead of holding a connection; messages are marked
// persistent so a broker restart does not lose audit entries.
func PublishRuleSetChanged(ctx context.Context, url string, event q.RuleSetChangedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		logger.Warn().Err(err).Msg("rabbitmq: marshal event failed")
		return err
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		logger.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Both the publisher and the consumer declare the queue, so either
	// side can start first.
	if _, err := ch.QueueDeclare(q.RuleSetChangedQueue, true, false, false, false, nil); err != nil {
		logger.Warn().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	msg := amqp.Publishing{
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.RuleSetChangedQueue, false, false, msg); err != nil {
		logger.Warn().Err(err).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
