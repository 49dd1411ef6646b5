package pricing

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/matchdayhq/ticket-pricing/internal/model"
	"github.com/matchdayhq/ticket-pricing/internal/repository"
)

// MarkupRuleStore is the slice of the rule store markup resolution needs.
type MarkupRuleStore interface {
	FindCandidates(ctx context.Context, s model.Scope) ([]model.MarkupRule, error)
}

// AssignmentStore is the slice of the rule store hospitality resolution
// needs.
type AssignmentStore interface {
	FindCandidates(ctx context.Context, s model.Scope) ([]model.HospitalityAssignment, error)
}

// LegacyStore reads the flat pre-hierarchy override tables.
type LegacyStore interface {
	GetMarkupByTicket(ctx context.Context, ticketID uint64) (*model.LegacyTicketMarkup, error)
	ListHospitalitiesByTicket(ctx context.Context, ticketID uint64) ([]model.LegacyTicketHospitality, error)
}

// Service is the pricing facade handlers talk to. It validates scopes,
// loads rule candidates, resolves winners and composes quotes. Stores are
// injected as narrow interfaces so tests substitute in-memory fakes.
type Service struct {
	Markups     MarkupRuleStore
	Assignments AssignmentStore
	Legacy      LegacyStore
	Composer    *Composer
}

// NewService wires a Service from its stores and composer.
func NewService(markups MarkupRuleStore, assignments AssignmentStore, legacy LegacyStore, composer *Composer) *Service {
	return &Service{Markups: markups, Assignments: assignments, Legacy: legacy, Composer: composer}
}

// ValidateScope normalizes the scope in place and checks it is usable.
// sport_type is mandatory; a child id without its ancestors is not an
// error, the orphaned level is simply never addressed.
func ValidateScope(s *model.Scope) error {
	s.SportType = strings.TrimSpace(s.SportType)
	if s.SportType == "" {
		return ErrInvalidScope
	}
	return nil
}

// Resolve returns the winning markup (nil when no rule applies) and the
// hospitality union for a scope. Legacy tables are consulted only when
// the scope pins a concrete ticket.
func (s *Service) Resolve(ctx context.Context, scope model.Scope) (*model.ResolvedMarkup, []model.ResolvedHospitality, error) {
	if err := ValidateScope(&scope); err != nil {
		return nil, nil, err
	}
	rules, err := s.Markups.FindCandidates(ctx, scope)
	if err != nil {
		return nil, nil, err
	}
	assignments, err := s.Assignments.FindCandidates(ctx, scope)
	if err != nil {
		return nil, nil, err
	}

	var (
		legacyMarkup *model.LegacyTicketMarkup
		legacyHosp   []model.LegacyTicketHospitality
	)
	if scope.TicketID != nil {
		legacyMarkup, err = s.Legacy.GetMarkupByTicket(ctx, *scope.TicketID)
		if err != nil && !errors.Is(err, repository.ErrLegacyOverrideNotFound) {
			return nil, nil, err
		}
		legacyHosp, err = s.Legacy.ListHospitalitiesByTicket(ctx, *scope.TicketID)
		if err != nil {
			return nil, nil, err
		}
	}

	markup := ResolveMarkup(scope, rules, legacyMarkup)
	hosps := ResolveHospitalities(scope, assignments, legacyHosp)
	return markup, hosps, nil
}

// QuoteRequest carries the inputs of one price composition.
type QuoteRequest struct {
	Scope           model.Scope
	FaceValue       decimal.Decimal
	TicketCurrency  string
	DisplayCurrency string
}

// Quote resolves the scope's markup and composes the final price in the
// requested display currency.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if err := ValidateScope(&req.Scope); err != nil {
		return nil, err
	}
	rules, err := s.Markups.FindCandidates(ctx, req.Scope)
	if err != nil {
		return nil, err
	}
	var legacyMarkup *model.LegacyTicketMarkup
	if req.Scope.TicketID != nil {
		legacyMarkup, err = s.Legacy.GetMarkupByTicket(ctx, *req.Scope.TicketID)
		if err != nil && !errors.Is(err, repository.ErrLegacyOverrideNotFound) {
			return nil, err
		}
	}
	rm := ResolveMarkup(req.Scope, rules, legacyMarkup)
	q := s.Composer.Compose(ctx, req.FaceValue, req.TicketCurrency, req.DisplayCurrency, rm)
	return &q, nil
}
