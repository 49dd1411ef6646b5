package repository

import (
	"database/sql"
	"strings"

	"github.com/matchdayhq/ticket-pricing/internal/model"
)

// scopeWhere identifies rows stored at exactly one (level, scope tuple).
// The optional id columns are NULL above the row's level, so the
// comparison uses MySQL's NULL-safe <=> operator; a plain = would make
// NULL columns unmatchable and every sport/tournament rule invisible.
const scopeWhere = "level = ? AND sport_type = ? AND tournament_id <=> ? AND team_id <=> ? AND event_id <=> ? AND ticket_id <=> ?"

// scopeArgs projects s onto the given level and returns the argument
// list matching scopeWhere. Keys implied by the level are taken from s;
// deeper keys are sent as nil so they match the NULL columns.
func scopeArgs(level model.Level, s model.Scope) []any {
	tournament, team, event, ticket := s.TournamentID, s.TeamID, s.EventID, s.TicketID
	rank := level.Rank()
	if rank < model.LevelTournament.Rank() {
		tournament = nil
	}
	if rank < model.LevelTeam.Rank() {
		team = nil
	}
	if rank < model.LevelEvent.Rank() {
		event = nil
	}
	if rank < model.LevelTicket.Rank() {
		ticket = nil
	}
	return []any{string(level), s.SportType, tournament, team, event, ticket}
}

// candidateWhere builds an OR of exact per-level predicates covering
// every level the scope can address, so one SELECT fetches all rules a
// resolution could consider. Returns "" when the scope addresses no
// level at all.
func candidateWhere(s model.Scope) (string, []any) {
	levels := s.AddressableLevels()
	if len(levels) == 0 {
		return "", nil
	}
	preds := make([]string, 0, len(levels))
	args := make([]any, 0, len(levels)*6)
	for _, l := range levels {
		preds = append(preds, "("+scopeWhere+")")
		args = append(args, scopeArgs(l, s)...)
	}
	return strings.Join(preds, " OR "), args
}

// nullableID converts a scanned nullable id column into the pointer
// form the models use.
func nullableID(v sql.NullInt64) *uint64 {
	if !v.Valid {
		return nil
	}
	u := uint64(v.Int64)
	return &u
}
