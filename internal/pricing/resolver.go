// Package pricing implements rule resolution and price composition over
// the five-level hierarchy (ticket > event > team > tournament > sport).
// The two resolution strategies stay deliberately separate: markups pick a
// single winner, hospitalities accumulate a union. Both are pure functions
// over in-memory slices so every surface shares one algorithm and tests
// run without a database.
package pricing

import (
	"sort"

	"github.com/matchdayhq/ticket-pricing/internal/model"
)

// scopeMatches reports whether a rule stored at the given level matches
// the request scope exactly at that level. Only the keys the level
// implies are compared; a stored row carries NULL below its level.
func scopeMatches(level model.Level, req, rule model.Scope) bool {
	if req.SportType != rule.SportType {
		return false
	}
	rank := level.Rank()
	if rank >= model.LevelTournament.Rank() && !idEqual(req.TournamentID, rule.TournamentID) {
		return false
	}
	if rank >= model.LevelTeam.Rank() && !idEqual(req.TeamID, rule.TeamID) {
		return false
	}
	if rank >= model.LevelEvent.Rank() && !idEqual(req.EventID, rule.EventID) {
		return false
	}
	if rank >= model.LevelTicket.Rank() && !idEqual(req.TicketID, rule.TicketID) {
		return false
	}
	return true
}

func idEqual(a, b *uint64) bool {
	return a != nil && b != nil && *a == *b
}

// ResolveMarkup picks the single markup that applies to a scope. An
// active legacy override wins over the whole hierarchy; otherwise levels
// are walked most specific first and the first active exact match wins.
// Returns nil when nothing applies.
//
// The uniqueness invariant means at most one rule can match per level, so
// ties cannot occur; should the store ever hand over duplicates anyway,
// the lowest id wins to keep the outcome deterministic.
func ResolveMarkup(scope model.Scope, rules []model.MarkupRule, legacy *model.LegacyTicketMarkup) *model.ResolvedMarkup {
	if legacy != nil && legacy.IsActive {
		return &model.ResolvedMarkup{
			Source:       model.SourceLegacy,
			MarkupType:   legacy.MarkupType,
			MarkupAmount: legacy.MarkupAmount,
		}
	}
	for _, level := range model.LevelsBySpecificity {
		if !scope.Addressable(level) {
			continue
		}
		var winner *model.MarkupRule
		for i := range rules {
			r := &rules[i]
			if !r.IsActive || r.Level != level || !scopeMatches(level, scope, r.Scope()) {
				continue
			}
			if winner == nil || r.ID < winner.ID {
				winner = r
			}
		}
		if winner != nil {
			return &model.ResolvedMarkup{
				Source:       model.SourceHierarchy,
				Level:        winner.Level,
				RuleID:       winner.ID,
				MarkupType:   winner.MarkupType,
				MarkupAmount: winner.MarkupAmount,
			}
		}
	}
	return nil
}

// ResolveHospitalities unions every active grant whose level the scope
// can address, deduplicated per hospitality: when the same perk is
// granted at several levels, the most specific grant provides the level
// tag. Active legacy grants rank above the hierarchy and claim the tag
// for their perk. Output is ordered by hospitality id so every surface
// renders the same list.
func ResolveHospitalities(scope model.Scope, asgs []model.HospitalityAssignment, legacy []model.LegacyTicketHospitality) []model.ResolvedHospitality {
	byID := make(map[uint64]model.ResolvedHospitality)
	for _, level := range model.LevelsBySpecificity {
		if !scope.Addressable(level) {
			continue
		}
		for i := range asgs {
			a := &asgs[i]
			if !a.IsActive || a.Level != level || !scopeMatches(level, scope, a.Scope()) {
				continue
			}
			if _, claimed := byID[a.HospitalityID]; claimed {
				continue // a more specific grant already carries this perk
			}
			byID[a.HospitalityID] = model.ResolvedHospitality{
				HospitalityID: a.HospitalityID,
				Source:        model.SourceHierarchy,
				Level:         a.Level,
				AssignmentID:  a.ID,
			}
		}
	}
	for _, lh := range legacy {
		if !lh.IsActive {
			continue
		}
		byID[lh.HospitalityID] = model.ResolvedHospitality{
			HospitalityID: lh.HospitalityID,
			Source:        model.SourceLegacy,
			AssignmentID:  lh.ID,
		}
	}
	if len(byID) == 0 {
		return nil
	}
	out := make([]model.ResolvedHospitality, 0, len(byID))
	for _, rh := range byID {
		out = append(out, rh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HospitalityID < out[j].HospitalityID })
	return out
}
