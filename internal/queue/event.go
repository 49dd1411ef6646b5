// Package queue carries the rule-change events crossing the broker.
package queue

import "github.com/matchdayhq/ticket-pricing/internal/model"

// RuleSetChangedEvent is published after every successful admin mutation
// of markup rules, hospitality assignments, the hospitality catalog or
// the legacy override tables. It carries enough information for
// downstream storefront instances to drop cached quotes for the affected
// scope and for the audit consumer to write a trail line without
// querying the primary database.
//
// Kind is one of markup_rule, hospitality_assignment, hospitality,
// legacy_override. Op is one of upsert, update, deactivate, replace,
// batch, clear, retire.
type RuleSetChangedEvent struct {
	Kind       string       `json:"kind"`
	Op         string       `json:"op"`
	Level      model.Level  `json:"level,omitempty"`
	Scope      *model.Scope `json:"scope,omitempty"`
	RuleID     uint64       `json:"rule_id,omitempty"`
	TicketID   uint64       `json:"ticket_id,omitempty"`
	Deleted    int64        `json:"deleted,omitempty"`
	Inserted   int64        `json:"inserted,omitempty"`
	Updated    int64        `json:"updated,omitempty"`
	Actor      string       `json:"actor,omitempty"`
	OccurredAt string       `json:"occurred_at"`
}
