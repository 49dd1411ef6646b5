package model

// Level identifies one tier of the pricing hierarchy, ordered from the
// most generic (sport) to the most specific (ticket). Rules and
// hospitality assignments are attached at exactly one level.
type Level string

const (
	LevelSport      Level = "sport"
	LevelTournament Level = "tournament"
	LevelTeam       Level = "team"
	LevelEvent      Level = "event"
	LevelTicket     Level = "ticket"
)

// LevelsBySpecificity lists the hierarchy levels from most specific to
// most generic. Resolution walks this order when picking a winner.
var LevelsBySpecificity = []Level{LevelTicket, LevelEvent, LevelTeam, LevelTournament, LevelSport}

// Rank returns the specificity rank of a level; higher means more
// specific. Unknown levels rank zero and can never win a resolution.
func (l Level) Rank() int {
	switch l {
	case LevelTicket:
		return 5
	case LevelEvent:
		return 4
	case LevelTeam:
		return 3
	case LevelTournament:
		return 2
	case LevelSport:
		return 1
	}
	return 0
}

// Valid reports whether l names one of the five hierarchy levels.
func (l Level) Valid() bool {
	return l.Rank() > 0
}

// Scope pins a pricing request or a rule to a position in the hierarchy.
// SportType is always required; the id fields are optional and unlock the
// deeper levels. A scope with only sport_type set can still be priced, it
// just cannot match tournament/team/event/ticket rules.
type Scope struct {
	SportType    string  `json:"sport_type"`
	TournamentID *uint64 `json:"tournament_id,omitempty"`
	TeamID       *uint64 `json:"team_id,omitempty"`
	EventID      *uint64 `json:"event_id,omitempty"`
	TicketID     *uint64 `json:"ticket_id,omitempty"`
}

// Addressable reports whether the scope carries every identifier needed
// to match rules stored at the given level. A level is addressable only
// when the whole chain above it is present: an event scope without a
// team_id cannot address the event level even if event_id is set.
func (s Scope) Addressable(l Level) bool {
	switch l {
	case LevelSport:
		return s.SportType != ""
	case LevelTournament:
		return s.SportType != "" && s.TournamentID != nil
	case LevelTeam:
		return s.SportType != "" && s.TournamentID != nil && s.TeamID != nil
	case LevelEvent:
		return s.SportType != "" && s.TournamentID != nil && s.TeamID != nil && s.EventID != nil
	case LevelTicket:
		return s.SportType != "" && s.TournamentID != nil && s.TeamID != nil && s.EventID != nil && s.TicketID != nil
	}
	return false
}

// AddressableLevels returns the levels this scope can match, most
// specific first.
func (s Scope) AddressableLevels() []Level {
	out := make([]Level, 0, len(LevelsBySpecificity))
	for _, l := range LevelsBySpecificity {
		if s.Addressable(l) {
			out = append(out, l)
		}
	}
	return out
}
