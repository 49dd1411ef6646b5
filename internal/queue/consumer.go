// Package queue implements the broker side of rule-change auditing: an
// event payload published after every admin mutation, and a consumer
// that drains those events into logs/pricing-audit.log.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RuleSetChangedQueue is the broker queue every rule mutation lands on.
const RuleSetChangedQueue = "pricing.rules.changed"

const (
	auditDir  = "logs"
	auditFile = "pricing-audit.log"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// StartAuditConsumer keeps a consumer attached to the rules-changed queue,
// reconnecting with exponential backoff when the broker goes away. Each
// event is appended to the audit log as a single line; together with the
// soft-deactivated rule rows this forms the audit trail for rule changes.
// The function never returns in normal operation.
func StartAuditConsumer(url string) error {
	backoff := time.Second
	for {
		served, err := consume(url)
		if served {
			backoff = time.Second
		}
		logger.Warn().Err(err).Dur("retry_in", backoff).Msg("audit consumer: restarting")
		time.Sleep(backoff)
		backoff = min(2*backoff, 30*time.Second)
	}
}

// consume dials the broker and drains deliveries until the stream dies.
// served reports whether a consume stream was established at all, which
// resets the caller's backoff.
func consume(url string) (served bool, err error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return false, fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(RuleSetChangedQueue, true, false, false, false, nil); err != nil {
		return false, fmt.Errorf("declare %s: %w", RuleSetChangedQueue, err)
	}
	if err := ch.Qos(64, 0, false); err != nil {
		logger.Warn().Err(err).Msg("audit consumer: QoS not applied")
	}

	deliveries, err := ch.Consume(RuleSetChangedQueue, "pricing-audit", false, false, false, false, nil)
	if err != nil {
		return false, fmt.Errorf("consume: %w", err)
	}

	for d := range deliveries {
		if err := appendAuditLine(d.Body); err != nil {
			logger.Error().Err(err).Msg("audit consumer: drop message")
			_ = d.Nack(false, false) // no requeue, avoids a poison-message loop
			continue
		}
		_ = d.Ack(false)
	}
	return true, errors.New("delivery stream closed")
}

// appendAuditLine decodes one event and appends it to the audit log.
func appendAuditLine(body []byte) error {
	var ev RuleSetChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	if err := os.MkdirAll(auditDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", auditDir, err)
	}
	f, err := os.OpenFile(filepath.Join(auditDir, auditFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	scope := "-"
	if ev.Scope != nil {
		if b, err := json.Marshal(ev.Scope); err == nil {
			scope = string(b)
		}
	}

	_, err = fmt.Fprintf(f, "[%s] Rule set changed | kind=%s | op=%s | level=%s | scope=%s | rule_id=%d | ticket_id=%d | deleted=%d | inserted=%d | updated=%d | actor=%q\n",
		ev.OccurredAt, ev.Kind, ev.Op, ev.Level, scope, ev.RuleID, ev.TicketID, ev.Deleted, ev.Inserted, ev.Updated, ev.Actor)
	if err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
