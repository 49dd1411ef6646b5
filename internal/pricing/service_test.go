package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/matchdayhq/ticket-pricing/internal/model"
	"github.com/matchdayhq/ticket-pricing/internal/repository"
)

type stubRuleStore struct {
	rules []model.MarkupRule
	err   error
}

func (s *stubRuleStore) FindCandidates(context.Context, model.Scope) ([]model.MarkupRule, error) {
	return s.rules, s.err
}

type stubAssignmentStore struct {
	asgs  []model.HospitalityAssignment
	calls int
}

func (s *stubAssignmentStore) FindCandidates(context.Context, model.Scope) ([]model.HospitalityAssignment, error) {
	s.calls++
	return s.asgs, nil
}

type stubLegacyStore struct {
	markup     *model.LegacyTicketMarkup
	markupErr  error
	hosps      []model.LegacyTicketHospitality
	hospErr    error
	markupGets int
	hospLists  int
}

func (s *stubLegacyStore) GetMarkupByTicket(context.Context, uint64) (*model.LegacyTicketMarkup, error) {
	s.markupGets++
	return s.markup, s.markupErr
}

func (s *stubLegacyStore) ListHospitalitiesByTicket(context.Context, uint64) ([]model.LegacyTicketHospitality, error) {
	s.hospLists++
	return s.hosps, s.hospErr
}

func newTestService(t *testing.T, rules *stubRuleStore, asgs *stubAssignmentStore, legacy *stubLegacyStore) *Service {
	t.Helper()
	composer := &Composer{
		Rates:             &fakeRates{pairs: map[string]string{"EUR->USD": "1.10"}},
		ReferenceCurrency: "USD",
	}
	return NewService(rules, asgs, legacy, composer)
}

func TestValidateScopeTrimsSportType(t *testing.T) {
	s := model.Scope{SportType: "  football  "}
	if err := ValidateScope(&s); err != nil {
		t.Fatalf("err=%v want=nil", err)
	}
	if s.SportType != "football" {
		t.Fatalf("sport_type=%q want=football", s.SportType)
	}
}

func TestValidateScopeRejectsBlankSport(t *testing.T) {
	s := model.Scope{SportType: "   "}
	if err := ValidateScope(&s); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("err=%v want=ErrInvalidScope", err)
	}
}

func TestResolveSkipsLegacyWithoutTicket(t *testing.T) {
	legacy := &stubLegacyStore{}
	svc := newTestService(t, &stubRuleStore{}, &stubAssignmentStore{}, legacy)
	scope := ticketScope()
	scope.TicketID = nil
	if _, _, err := svc.Resolve(context.Background(), scope); err != nil {
		t.Fatalf("err=%v", err)
	}
	if legacy.markupGets != 0 || legacy.hospLists != 0 {
		t.Fatalf("legacy reads=%d/%d want=0/0 without a ticket id", legacy.markupGets, legacy.hospLists)
	}
}

func TestResolveToleratesMissingLegacyMarkup(t *testing.T) {
	scope := ticketScope()
	legacy := &stubLegacyStore{
		markupErr: repository.ErrLegacyOverrideNotFound,
		hosps:     []model.LegacyTicketHospitality{{ID: 9, TicketID: 40, HospitalityID: 3, IsActive: true}},
	}
	rules := &stubRuleStore{rules: []model.MarkupRule{ruleAt(1, model.LevelSport, scope, "5")}}
	svc := newTestService(t, rules, &stubAssignmentStore{}, legacy)

	markup, hosps, err := svc.Resolve(context.Background(), scope)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if markup == nil || markup.Source != model.SourceHierarchy {
		t.Fatalf("markup=%+v want hierarchy winner", markup)
	}
	if len(hosps) != 1 || hosps[0].HospitalityID != 3 || hosps[0].Source != model.SourceLegacy {
		t.Fatalf("hosps=%+v want one legacy perk", hosps)
	}
}

func TestResolvePropagatesLegacyHospitalityError(t *testing.T) {
	legacy := &stubLegacyStore{hospErr: errors.New("table gone")}
	svc := newTestService(t, &stubRuleStore{}, &stubAssignmentStore{}, legacy)
	if _, _, err := svc.Resolve(context.Background(), ticketScope()); err == nil {
		t.Fatal("err=nil want failure")
	}
}

func TestResolveRejectsInvalidScope(t *testing.T) {
	svc := newTestService(t, &stubRuleStore{}, &stubAssignmentStore{}, &stubLegacyStore{})
	if _, _, err := svc.Resolve(context.Background(), model.Scope{}); !errors.Is(err, ErrInvalidScope) {
		t.Fatalf("err=%v want=ErrInvalidScope", err)
	}
}

func TestQuoteNeverReadsAssignments(t *testing.T) {
	scope := ticketScope()
	scope.TicketID = nil
	asgs := &stubAssignmentStore{}
	rules := &stubRuleStore{rules: []model.MarkupRule{ruleAt(1, model.LevelEvent, scope, "10")}}
	svc := newTestService(t, rules, asgs, &stubLegacyStore{})

	q, err := svc.Quote(context.Background(), QuoteRequest{
		Scope:           scope,
		FaceValue:       decimal.RequireFromString("100"),
		TicketCurrency:  "EUR",
		DisplayCurrency: "USD",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if asgs.calls != 0 {
		t.Fatalf("assignment reads=%d want=0 for a quote", asgs.calls)
	}
	if !q.FinalPrice.Equal(decimal.RequireFromString("121")) {
		t.Fatalf("final=%s want=121", q.FinalPrice)
	}
	if q.Markup == nil || q.Markup.RuleID != 1 {
		t.Fatalf("markup=%+v want rule 1", q.Markup)
	}
}

func TestQuoteAppliesLegacyOverride(t *testing.T) {
	scope := ticketScope()
	legacy := &stubLegacyStore{markup: &model.LegacyTicketMarkup{
		TicketID:     40,
		MarkupType:   model.MarkupPercentage,
		MarkupAmount: decimal.RequireFromString("20"),
		IsActive:     true,
	}}
	rules := &stubRuleStore{rules: []model.MarkupRule{ruleAt(1, model.LevelEvent, scope, "10")}}
	svc := newTestService(t, rules, &stubAssignmentStore{}, legacy)

	q, err := svc.Quote(context.Background(), QuoteRequest{
		Scope:           scope,
		FaceValue:       decimal.RequireFromString("100"),
		TicketCurrency:  "USD",
		DisplayCurrency: "USD",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if q.Markup == nil || q.Markup.Source != model.SourceLegacy {
		t.Fatalf("markup=%+v want legacy source", q.Markup)
	}
	if !q.FinalPrice.Equal(decimal.RequireFromString("120")) {
		t.Fatalf("final=%s want=120", q.FinalPrice)
	}
}
