package model

import "time"

// Hospitality is a catalog entry for a perk that can be granted with a
// ticket, such as lounge access, a parking slot or a merchandise
// voucher. The catalog is managed separately from the assignments that
// grant perks at hierarchy scopes.
//
// Fields:
//  ID          – row id assigned by MySQL.
//  Name        – display name shown to buyers.
//  Description – optional longer description.
//  SortOrder   – storefront display ordering hint.
//  IsActive    – whether the perk may appear in new assignments.
//  CreatedAt   – insertion time.
//  UpdatedAt   – time of the last modification.
type Hospitality struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	SortOrder   uint32    `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HospitalityAssignment grants one hospitality at one scope of the
// hierarchy. Unlike markups, assignments accumulate: a ticket receives
// the union of every assignment whose scope is addressable from it,
// deduplicated per hospitality.
//
// Fields:
//  ID            – row id assigned by MySQL.
//  HospitalityID – catalog entry being granted.
//  Level         – hierarchy level the grant is stored at.
//  SportType     – sport the grant belongs to (always set).
//  TournamentID  – tournament key (nil above tournament level).
//  TeamID        – team key (nil above team level).
//  EventID       – event key (nil above event level).
//  TicketID      – ticket key (nil above ticket level).
//  IsActive      – whether the grant participates in resolution.
//  CreatedAt     – insertion time.
//  UpdatedAt     – time of the last modification.
type HospitalityAssignment struct {
	ID            uint64    `json:"id"`
	HospitalityID uint64    `json:"hospitality_id"`
	Level         Level     `json:"level"`
	SportType     string    `json:"sport_type"`
	TournamentID  *uint64   `json:"tournament_id,omitempty"`
	TeamID        *uint64   `json:"team_id,omitempty"`
	EventID       *uint64   `json:"event_id,omitempty"`
	TicketID      *uint64   `json:"ticket_id,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Scope returns the assignment's position in the hierarchy.
func (a *HospitalityAssignment) Scope() Scope {
	return Scope{
		SportType:    a.SportType,
		TournamentID: a.TournamentID,
		TeamID:       a.TeamID,
		EventID:      a.EventID,
		TicketID:     a.TicketID,
	}
}
