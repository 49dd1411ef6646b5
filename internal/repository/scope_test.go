package repository

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/matchdayhq/ticket-pricing/internal/model"
)

func uptr(n uint64) *uint64 { return &n }

func fullScope() model.Scope {
	return model.Scope{
		SportType:    "football",
		TournamentID: uptr(10),
		TeamID:       uptr(20),
		EventID:      uptr(30),
		TicketID:     uptr(40),
	}
}

func TestScopeArgsProjectsDeeperKeysToNull(t *testing.T) {
	args := scopeArgs(model.LevelTeam, fullScope())
	if len(args) != 6 {
		t.Fatalf("len=%d want=6", len(args))
	}
	if args[0] != string(model.LevelTeam) || args[1] != "football" {
		t.Fatalf("level/sport=%v/%v want=team/football", args[0], args[1])
	}
	if p := args[2].(*uint64); p == nil || *p != 10 {
		t.Fatalf("tournament arg=%v want=10", p)
	}
	if p := args[3].(*uint64); p == nil || *p != 20 {
		t.Fatalf("team arg=%v want=20", p)
	}
	if p := args[4].(*uint64); p != nil {
		t.Fatalf("event arg=%d want=nil", *p)
	}
	if p := args[5].(*uint64); p != nil {
		t.Fatalf("ticket arg=%d want=nil", *p)
	}
}

func TestScopeArgsSportLevelNullsEverything(t *testing.T) {
	args := scopeArgs(model.LevelSport, fullScope())
	for i := 2; i < 6; i++ {
		if p := args[i].(*uint64); p != nil {
			t.Fatalf("args[%d]=%d want=nil at sport level", i, *p)
		}
	}
}

func TestCandidateWhereCoversEveryAddressableLevel(t *testing.T) {
	where, args := candidateWhere(fullScope())
	if got := strings.Count(where, " OR "); got != 4 {
		t.Fatalf("OR count=%d want=4 for a fully pinned scope", got)
	}
	if len(args) != 30 {
		t.Fatalf("args=%d want=30 (5 levels x 6)", len(args))
	}
}

func TestCandidateWhereSkipsOrphanedLevels(t *testing.T) {
	// an event id without its team and tournament cannot be addressed
	s := model.Scope{SportType: "football", EventID: uptr(30)}
	where, args := candidateWhere(s)
	if strings.Contains(where, " OR ") {
		t.Fatalf("where=%q want a single sport predicate", where)
	}
	if len(args) != 6 || args[0] != string(model.LevelSport) {
		t.Fatalf("args=%v want sport-level args", args)
	}
	if p := args[4].(*uint64); p != nil {
		t.Fatalf("event arg=%d want=nil; orphaned id must not leak", *p)
	}
}

func TestCandidateWhereEmptyScope(t *testing.T) {
	where, args := candidateWhere(model.Scope{})
	if where != "" || args != nil {
		t.Fatalf("where=%q args=%v want empty", where, args)
	}
}

func TestNullableID(t *testing.T) {
	if got := nullableID(sql.NullInt64{}); got != nil {
		t.Fatalf("got=%v want=nil", got)
	}
	got := nullableID(sql.NullInt64{Int64: 7, Valid: true})
	if got == nil || *got != 7 {
		t.Fatalf("got=%v want=7", got)
	}
}
