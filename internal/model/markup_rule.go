package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarkupType distinguishes how a markup amount is applied to a base
// price. Fixed amounts are stored in the reference currency and
// converted before being added; percentages apply to the converted
// base price directly.
type MarkupType string

const (
	MarkupFixed      MarkupType = "fixed"
	MarkupPercentage MarkupType = "percentage"
)

// Valid reports whether t is a known markup type.
func (t MarkupType) Valid() bool {
	return t == MarkupFixed || t == MarkupPercentage
}

// MarkupRule attaches a markup to exactly one scope in the hierarchy.
// At most one active rule may exist per exact scope; resolution picks
// the rule at the most specific addressable level and ignores all
// others. Superseded rules are kept with is_active=0 for auditing.
//
// Fields:
//  ID           – primary key identifier.
//  Level        – hierarchy level the rule is stored at.
//  SportType    – sport the rule belongs to (always set).
//  TournamentID – tournament key (nil above tournament level).
//  TeamID       – team key (nil above team level).
//  EventID      – event key (nil above event level).
//  TicketID     – ticket key (nil above ticket level).
//  MarkupType   – fixed or percentage.
//  MarkupAmount – surcharge amount; percentage ratio for percentage
//                 rules, reference-currency amount for fixed rules.
//  IsActive     – whether the rule participates in resolution.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type MarkupRule struct {
	ID           uint64          `json:"id"`
	Level        Level           `json:"level"`
	SportType    string          `json:"sport_type"`
	TournamentID *uint64         `json:"tournament_id,omitempty"`
	TeamID       *uint64         `json:"team_id,omitempty"`
	EventID      *uint64         `json:"event_id,omitempty"`
	TicketID     *uint64         `json:"ticket_id,omitempty"`
	MarkupType   MarkupType      `json:"markup_type"`
	MarkupAmount decimal.Decimal `json:"markup_amount"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Scope returns the rule's position in the hierarchy as a Scope value.
func (r *MarkupRule) Scope() Scope {
	return Scope{
		SportType:    r.SportType,
		TournamentID: r.TournamentID,
		TeamID:       r.TeamID,
		EventID:      r.EventID,
		TicketID:     r.TicketID,
	}
}
