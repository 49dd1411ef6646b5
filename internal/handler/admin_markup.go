package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/matchdayhq/ticket-pricing/internal/model"
	"github.com/matchdayhq/ticket-pricing/internal/queue"
	"github.com/matchdayhq/ticket-pricing/internal/repository"
)

// MarkupStore is the slice of the markup rule repository the admin handler
// needs.
type MarkupStore interface {
	Upsert(ctx context.Context, rule *model.MarkupRule) (bool, error)
	UpsertBatch(ctx context.Context, rules []model.MarkupRule) (inserted, updated int64, err error)
	List(ctx context.Context, f repository.RuleFilter) ([]model.MarkupRule, int64, error)
	UpdateByID(ctx context.Context, id uint64, markupType model.MarkupType, amount decimal.Decimal, isActive bool) (*model.MarkupRule, error)
	DeactivateByID(ctx context.Context, id uint64) error
	ReplaceAtScope(ctx context.Context, level model.Level, scope model.Scope, rules []model.MarkupRule) (deleted, inserted int64, err error)
	DeleteAtScope(ctx context.Context, level model.Level, scope model.Scope) (int64, error)
}

// AdminMarkupHandler manages markup rules. All routes sit behind JWT auth
// with the ADMIN role.
type AdminMarkupHandler struct {
	Rules   MarkupStore
	Publish PublishFunc
}

func NewAdminMarkupHandler(rules MarkupStore, publish PublishFunc) *AdminMarkupHandler {
	return &AdminMarkupHandler{Rules: rules, Publish: publish}
}

// markupRuleRequest is the write payload for a markup rule. is_active
// defaults to true when omitted.
type markupRuleRequest struct {
	Level        model.Level      `json:"level"`
	SportType    string           `json:"sport_type"`
	TournamentID *uint64          `json:"tournament_id"`
	TeamID       *uint64          `json:"team_id"`
	EventID      *uint64          `json:"event_id"`
	TicketID     *uint64          `json:"ticket_id"`
	MarkupType   model.MarkupType `json:"markup_type"`
	MarkupAmount decimal.Decimal  `json:"markup_amount"`
	IsActive     *bool            `json:"is_active"`
}

// toRule validates the payload and converts it into a model. The second
// return value is a client-facing error message, empty on success.
func (b *markupRuleRequest) toRule() (*model.MarkupRule, string) {
	scope := model.Scope{
		SportType:    b.SportType,
		TournamentID: b.TournamentID,
		TeamID:       b.TeamID,
		EventID:      b.EventID,
		TicketID:     b.TicketID,
	}
	if msg := scopeError(b.Level, &scope); msg != "" {
		return nil, msg
	}
	if !b.MarkupType.Valid() {
		return nil, "invalid markup_type"
	}
	active := true
	if b.IsActive != nil {
		active = *b.IsActive
	}
	return &model.MarkupRule{
		Level:        b.Level,
		SportType:    scope.SportType,
		TournamentID: scope.TournamentID,
		TeamID:       scope.TeamID,
		EventID:      scope.EventID,
		TicketID:     scope.TicketID,
		MarkupType:   b.MarkupType,
		MarkupAmount: b.MarkupAmount,
		IsActive:     active,
	}, ""
}

// Create handles POST /v1/admin/markup-rules. The write is an upsert on the
// exact scope: a scope holds at most one active rule, so posting to an
// occupied scope rewrites its payload instead of failing.
func (h *AdminMarkupHandler) Create(c echo.Context) error {
	var body markupRuleRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	rule, msg := body.toRule()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	created, err := h.Rules.Upsert(c.Request().Context(), rule)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not save rule"})
	}
	scope := rule.Scope()
	notify(c, h.Publish, queue.RuleSetChangedEvent{
		Kind: "markup_rule", Op: "upsert", Level: rule.Level, Scope: &scope, RuleID: rule.ID,
	})
	if created {
		return c.JSON(http.StatusCreated, rule)
	}
	return c.JSON(http.StatusOK, rule)
}

// List handles GET /v1/admin/markup-rules with optional level, sport_type,
// include_inactive, page and page_size filters.
func (h *AdminMarkupHandler) List(c echo.Context) error {
	f := repository.RuleFilter{
		SportType:       strings.TrimSpace(c.QueryParam("sport_type")),
		IncludeInactive: c.QueryParam("include_inactive") == "true",
		Page:            queryInt(c, "page", 1),
		PageSize:        queryInt(c, "page_size", 0),
	}
	if raw := c.QueryParam("level"); raw != "" {
		lv := model.Level(raw)
		if !lv.Valid() {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid level"})
		}
		f.Level = lv
	}
	items, total, err := h.Rules.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items, "total": total})
}

// Update handles PUT /v1/admin/markup-rules/:id and rewrites the rule's
// payload. Scope keys are immutable; moving a rule is a delete plus a
// create.
func (h *AdminMarkupHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body struct {
		MarkupType   model.MarkupType `json:"markup_type"`
		MarkupAmount decimal.Decimal  `json:"markup_amount"`
		IsActive     *bool            `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	if !body.MarkupType.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid markup_type"})
	}
	active := true
	if body.IsActive != nil {
		active = *body.IsActive
	}
	rule, err := h.Rules.UpdateByID(c.Request().Context(), id, body.MarkupType, body.MarkupAmount, active)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMarkupRuleNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "rule not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, map[string]string{"error": "scope already has an active rule"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "update failed"})
	}
	scope := rule.Scope()
	notify(c, h.Publish, queue.RuleSetChangedEvent{
		Kind: "markup_rule", Op: "update", Level: rule.Level, Scope: &scope, RuleID: rule.ID,
	})
	return c.JSON(http.StatusOK, rule)
}

// Delete handles DELETE /v1/admin/markup-rules/:id. Rules are deactivated,
// never removed, so resolved prices stay explainable after the fact.
func (h *AdminMarkupHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.Rules.DeactivateByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrMarkupRuleNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "rule not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "delete failed"})
	}
	notify(c, h.Publish, queue.RuleSetChangedEvent{Kind: "markup_rule", Op: "deactivate", RuleID: id})
	return c.NoContent(http.StatusNoContent)
}

// ReplaceScope handles PUT /v1/admin/markup-rules/scope: everything active
// at the exact scope is deactivated and the submitted rules take its place,
// in one transaction. An empty rules array clears the scope.
func (h *AdminMarkupHandler) ReplaceScope(c echo.Context) error {
	var body struct {
		Level        model.Level `json:"level"`
		SportType    string      `json:"sport_type"`
		TournamentID *uint64     `json:"tournament_id"`
		TeamID       *uint64     `json:"team_id"`
		EventID      *uint64     `json:"event_id"`
		TicketID     *uint64     `json:"ticket_id"`
		Rules        []struct {
			MarkupType   model.MarkupType `json:"markup_type"`
			MarkupAmount decimal.Decimal  `json:"markup_amount"`
		} `json:"rules"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	scope := model.Scope{
		SportType:    body.SportType,
		TournamentID: body.TournamentID,
		TeamID:       body.TeamID,
		EventID:      body.EventID,
		TicketID:     body.TicketID,
	}
	if msg := scopeError(body.Level, &scope); msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	if len(body.Rules) > 1 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "a scope holds at most one active rule"})
	}
	rules := make([]model.MarkupRule, 0, len(body.Rules))
	for _, r := range body.Rules {
		if !r.MarkupType.Valid() {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid markup_type"})
		}
		rules = append(rules, model.MarkupRule{
			Level:        body.Level,
			SportType:    scope.SportType,
			TournamentID: scope.TournamentID,
			TeamID:       scope.TeamID,
			EventID:      scope.EventID,
			TicketID:     scope.TicketID,
			MarkupType:   r.MarkupType,
			MarkupAmount: r.MarkupAmount,
			IsActive:     true,
		})
	}
	deleted, inserted, err := h.Rules.ReplaceAtScope(c.Request().Context(), body.Level, scope, rules)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "a scope holds at most one active rule"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "replace failed"})
	}
	notify(c, h.Publish, queue.RuleSetChangedEvent{
		Kind: "markup_rule", Op: "replace", Level: body.Level, Scope: &scope,
		Deleted: deleted, Inserted: inserted,
	})
	return c.JSON(http.StatusOK, map[string]any{"deleted": deleted, "inserted": inserted})
}

// Batch handles POST /v1/admin/markup-rules/batch: each entry upserts at its
// own scope, all inside one transaction. Any invalid entry rejects the whole
// batch before it touches the database.
func (h *AdminMarkupHandler) Batch(c echo.Context) error {
	var body struct {
		Rules []markupRuleRequest `json:"rules"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	if len(body.Rules) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "rules is required"})
	}
	rules := make([]model.MarkupRule, 0, len(body.Rules))
	for i := range body.Rules {
		rule, msg := body.Rules[i].toRule()
		if msg != "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
		}
		rules = append(rules, *rule)
	}
	inserted, updated, err := h.Rules.UpsertBatch(c.Request().Context(), rules)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "batch failed"})
	}
	notify(c, h.Publish, queue.RuleSetChangedEvent{
		Kind: "markup_rule", Op: "batch", Inserted: inserted, Updated: updated,
	})
	return c.JSON(http.StatusOK, map[string]any{"inserted": inserted, "updated": updated})
}

// ClearScope handles DELETE /v1/admin/markup-rules/scope. The scope rides in
// the query string; only the exact scope is touched, never descendants.
func (h *AdminMarkupHandler) ClearScope(c echo.Context) error {
	scope, err := scopeFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	level := model.Level(c.QueryParam("level"))
	if msg := scopeError(level, &scope); msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	deleted, err := h.Rules.DeleteAtScope(c.Request().Context(), level, scope)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "clear failed"})
	}
	notify(c, h.Publish, queue.RuleSetChangedEvent{
		Kind: "markup_rule", Op: "clear", Level: level, Scope: &scope, Deleted: deleted,
	})
	return c.JSON(http.StatusOK, map[string]any{"deleted": deleted})
}
