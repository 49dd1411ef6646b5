package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegacyTicketMarkup is a row from the flat per-ticket markup table
// that predates the hierarchy. It knows only the ticket and the
// surcharge; while active it overrides the entire hierarchy for that
// ticket. New writes to this table are not accepted, rows are only
// read and retired (is_active=0).
type LegacyTicketMarkup struct {
	TicketID     uint64          `json:"ticket_id"`
	MarkupType   MarkupType      `json:"markup_type"`
	MarkupAmount decimal.Decimal `json:"markup_amount"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// LegacyTicketHospitality grants a hospitality directly to a ticket in
// the pre-hierarchy flat table. Active grants merge into the resolved
// union alongside hierarchy grants.
type LegacyTicketHospitality struct {
	ID            uint64    `json:"id"`
	TicketID      uint64    `json:"ticket_id"`
	HospitalityID uint64    `json:"hospitality_id"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}
