package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/matchdayhq/ticket-pricing/internal/model"
	"github.com/matchdayhq/ticket-pricing/internal/queue"
	"github.com/matchdayhq/ticket-pricing/internal/repository"
)

type stubMarkupStore struct {
	lastUpsert    *model.MarkupRule
	upsertCreated bool

	listItems []model.MarkupRule

	updateResult *model.MarkupRule
	updateErr    error

	deactivateErr error

	replaceCalls           int
	replaceDel, replaceIns int64
	replaceErr             error

	batchCalls         int
	batchIns, batchUpd int64

	clearDeleted int64
}

func (s *stubMarkupStore) Upsert(_ context.Context, r *model.MarkupRule) (bool, error) {
	r.ID = 101
	s.lastUpsert = r
	return s.upsertCreated, nil
}

func (s *stubMarkupStore) UpsertBatch(context.Context, []model.MarkupRule) (int64, int64, error) {
	s.batchCalls++
	return s.batchIns, s.batchUpd, nil
}

func (s *stubMarkupStore) List(context.Context, repository.RuleFilter) ([]model.MarkupRule, int64, error) {
	return s.listItems, int64(len(s.listItems)), nil
}

func (s *stubMarkupStore) UpdateByID(context.Context, uint64, model.MarkupType, decimal.Decimal, bool) (*model.MarkupRule, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.updateResult, nil
}

func (s *stubMarkupStore) DeactivateByID(context.Context, uint64) error {
	return s.deactivateErr
}

func (s *stubMarkupStore) ReplaceAtScope(context.Context, model.Level, model.Scope, []model.MarkupRule) (int64, int64, error) {
	s.replaceCalls++
	if s.replaceErr != nil {
		return 0, 0, s.replaceErr
	}
	return s.replaceDel, s.replaceIns, nil
}

func (s *stubMarkupStore) DeleteAtScope(context.Context, model.Level, model.Scope) (int64, error) {
	return s.clearDeleted, nil
}

func capturePublish(events *[]queue.RuleSetChangedEvent) PublishFunc {
	return func(_ context.Context, ev queue.RuleSetChangedEvent) {
		*events = append(*events, ev)
	}
}

func TestMarkupCreateUpsertsAndNotifies(t *testing.T) {
	store := &stubMarkupStore{upsertCreated: true}
	var events []queue.RuleSetChangedEvent
	h := NewAdminMarkupHandler(store, capturePublish(&events))

	c, rec := newContext(t, http.MethodPost, "/v1/admin/markup-rules",
		`{"level":"team","sport_type":"football","tournament_id":10,"team_id":20,"markup_type":"percentage","markup_amount":12.5}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler err=%v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if store.lastUpsert == nil || store.lastUpsert.Level != model.LevelTeam || !store.lastUpsert.IsActive {
		t.Fatalf("stored=%+v", store.lastUpsert)
	}
	if !store.lastUpsert.MarkupAmount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("amount=%s want=12.5", store.lastUpsert.MarkupAmount)
	}
	if len(events) != 1 || events[0].Kind != "markup_rule" || events[0].Op != "upsert" || events[0].RuleID != 101 {
		t.Fatalf("events=%+v", events)
	}
	if events[0].OccurredAt == "" {
		t.Fatal("event missing occurred_at")
	}
}

func TestMarkupCreateRewriteReturns200(t *testing.T) {
	h := NewAdminMarkupHandler(&stubMarkupStore{upsertCreated: false}, nil)
	c, rec := newContext(t, http.MethodPost, "/v1/admin/markup-rules",
		`{"level":"sport","sport_type":"football","markup_type":"fixed","markup_amount":5}`)
	_ = h.Create(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want=200 for rewrite", rec.Code)
	}
}

func TestMarkupCreateRejectsBrokenChain(t *testing.T) {
	store := &stubMarkupStore{}
	h := NewAdminMarkupHandler(store, nil)
	c, rec := newContext(t, http.MethodPost, "/v1/admin/markup-rules",
		`{"level":"team","sport_type":"football","team_id":20,"markup_type":"percentage","markup_amount":5}`)
	_ = h.Create(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rec.Code)
	}
	if got := errorMessage(t, rec); got != "scope does not address level team" {
		t.Fatalf("error=%q", got)
	}
	if store.lastUpsert != nil {
		t.Fatal("store touched by invalid request")
	}
}

func TestMarkupCreateRejectsUnknownType(t *testing.T) {
	h := NewAdminMarkupHandler(&stubMarkupStore{}, nil)
	c, rec := newContext(t, http.MethodPost, "/v1/admin/markup-rules",
		`{"level":"sport","sport_type":"football","markup_type":"flat","markup_amount":5}`)
	_ = h.Create(c)
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "invalid markup_type" {
		t.Fatalf("status=%d error=%q", rec.Code, errorMessage(t, rec))
	}
}

func TestMarkupListRejectsUnknownLevel(t *testing.T) {
	h := NewAdminMarkupHandler(&stubMarkupStore{}, nil)
	c, rec := newContext(t, http.MethodGet, "/v1/admin/markup-rules?level=venue", "")
	_ = h.List(c)
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "invalid level" {
		t.Fatalf("status=%d error=%q", rec.Code, errorMessage(t, rec))
	}
}

func TestMarkupUpdateStatuses(t *testing.T) {
	h := NewAdminMarkupHandler(&stubMarkupStore{updateErr: repository.ErrMarkupRuleNotFound}, nil)
	c, rec := newContext(t, http.MethodPut, "/v1/admin/markup-rules/7",
		`{"markup_type":"fixed","markup_amount":5}`)
	c.SetParamNames("id")
	c.SetParamValues("7")
	_ = h.Update(c)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=404", rec.Code)
	}

	h = NewAdminMarkupHandler(&stubMarkupStore{updateErr: repository.ErrConflict}, nil)
	c, rec = newContext(t, http.MethodPut, "/v1/admin/markup-rules/7",
		`{"markup_type":"fixed","markup_amount":5,"is_active":true}`)
	c.SetParamNames("id")
	c.SetParamValues("7")
	_ = h.Update(c)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d want=409", rec.Code)
	}
}

func TestMarkupUpdateEchoesStoredRule(t *testing.T) {
	stored := eventRule(7, "9")
	var events []queue.RuleSetChangedEvent
	h := NewAdminMarkupHandler(&stubMarkupStore{updateResult: &stored}, capturePublish(&events))
	c, rec := newContext(t, http.MethodPut, "/v1/admin/markup-rules/7",
		`{"markup_type":"percentage","markup_amount":9}`)
	c.SetParamNames("id")
	c.SetParamValues("7")
	if err := h.Update(c); err != nil {
		t.Fatalf("handler err=%v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var got model.MarkupRule
	decodeBody(t, rec, &got)
	if got.ID != 7 || got.Level != model.LevelEvent {
		t.Fatalf("got=%+v", got)
	}
	if len(events) != 1 || events[0].Op != "update" || events[0].RuleID != 7 {
		t.Fatalf("events=%+v", events)
	}
}

func TestMarkupDeleteRejectsBadID(t *testing.T) {
	h := NewAdminMarkupHandler(&stubMarkupStore{}, nil)
	c, rec := newContext(t, http.MethodDelete, "/v1/admin/markup-rules/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	_ = h.Delete(c)
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "invalid id" {
		t.Fatalf("status=%d error=%q", rec.Code, errorMessage(t, rec))
	}
}

func TestMarkupDeleteDeactivates(t *testing.T) {
	var events []queue.RuleSetChangedEvent
	h := NewAdminMarkupHandler(&stubMarkupStore{}, capturePublish(&events))
	c, rec := newContext(t, http.MethodDelete, "/v1/admin/markup-rules/9", "")
	c.SetParamNames("id")
	c.SetParamValues("9")
	_ = h.Delete(c)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d want=204", rec.Code)
	}
	if len(events) != 1 || events[0].Op != "deactivate" || events[0].RuleID != 9 {
		t.Fatalf("events=%+v", events)
	}
}

func TestMarkupReplaceScopeRejectsMultipleRules(t *testing.T) {
	store := &stubMarkupStore{}
	h := NewAdminMarkupHandler(store, nil)
	c, rec := newContext(t, http.MethodPut, "/v1/admin/markup-rules/scope",
		`{"level":"sport","sport_type":"football","rules":[{"markup_type":"fixed","markup_amount":1},{"markup_type":"fixed","markup_amount":2}]}`)
	_ = h.ReplaceScope(c)
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "a scope holds at most one active rule" {
		t.Fatalf("status=%d error=%q", rec.Code, errorMessage(t, rec))
	}
	if store.replaceCalls != 0 {
		t.Fatalf("replace calls=%d want=0", store.replaceCalls)
	}
}

func TestMarkupReplaceScopeEmptyRulesClears(t *testing.T) {
	store := &stubMarkupStore{replaceDel: 1}
	var events []queue.RuleSetChangedEvent
	h := NewAdminMarkupHandler(store, capturePublish(&events))
	c, rec := newContext(t, http.MethodPut, "/v1/admin/markup-rules/scope",
		`{"level":"sport","sport_type":"football","rules":[]}`)
	if err := h.ReplaceScope(c); err != nil {
		t.Fatalf("handler err=%v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Deleted  int64 `json:"deleted"`
		Inserted int64 `json:"inserted"`
	}
	decodeBody(t, rec, &body)
	if body.Deleted != 1 || body.Inserted != 0 {
		t.Fatalf("body=%+v", body)
	}
	if len(events) != 1 || events[0].Op != "replace" || events[0].Deleted != 1 {
		t.Fatalf("events=%+v", events)
	}
}

func TestMarkupBatchRejectsInvalidEntryBeforeStore(t *testing.T) {
	store := &stubMarkupStore{}
	h := NewAdminMarkupHandler(store, nil)
	c, rec := newContext(t, http.MethodPost, "/v1/admin/markup-rules/batch",
		`{"rules":[
			{"level":"sport","sport_type":"football","markup_type":"fixed","markup_amount":1},
			{"level":"event","sport_type":"football","event_id":30,"markup_type":"fixed","markup_amount":2}
		]}`)
	_ = h.Batch(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want=400", rec.Code)
	}
	if store.batchCalls != 0 {
		t.Fatalf("batch calls=%d want=0", store.batchCalls)
	}
}

func TestMarkupBatchEmptyRejected(t *testing.T) {
	h := NewAdminMarkupHandler(&stubMarkupStore{}, nil)
	c, rec := newContext(t, http.MethodPost, "/v1/admin/markup-rules/batch", `{"rules":[]}`)
	_ = h.Batch(c)
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "rules is required" {
		t.Fatalf("status=%d error=%q", rec.Code, errorMessage(t, rec))
	}
}

func TestMarkupClearScope(t *testing.T) {
	store := &stubMarkupStore{clearDeleted: 2}
	var events []queue.RuleSetChangedEvent
	h := NewAdminMarkupHandler(store, capturePublish(&events))
	c, rec := newContext(t, http.MethodDelete,
		"/v1/admin/markup-rules/scope?level=event&sport_type=football&tournament_id=10&team_id=20&event_id=30", "")
	if err := h.ClearScope(c); err != nil {
		t.Fatalf("handler err=%v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Deleted int64 `json:"deleted"`
	}
	decodeBody(t, rec, &body)
	if body.Deleted != 2 {
		t.Fatalf("deleted=%d want=2", body.Deleted)
	}
	if len(events) != 1 || events[0].Op != "clear" || events[0].Level != model.LevelEvent {
		t.Fatalf("events=%+v", events)
	}
	if events[0].Scope == nil || events[0].Scope.EventID == nil || *events[0].Scope.EventID != 30 {
		t.Fatalf("event scope=%+v", events[0].Scope)
	}
}

func TestMarkupClearScopeRequiresAddressableLevel(t *testing.T) {
	h := NewAdminMarkupHandler(&stubMarkupStore{}, nil)
	c, rec := newContext(t, http.MethodDelete,
		"/v1/admin/markup-rules/scope?level=event&sport_type=football", "")
	_ = h.ClearScope(c)
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "scope does not address level event" {
		t.Fatalf("status=%d error=%q", rec.Code, errorMessage(t, rec))
	}
}
