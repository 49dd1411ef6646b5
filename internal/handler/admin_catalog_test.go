package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/matchdayhq/ticket-pricing/internal/model"
	"github.com/matchdayhq/ticket-pricing/internal/queue"
	"github.com/matchdayhq/ticket-pricing/internal/repository"
)

type stubCatalogStore struct {
	createErr error

	getResult *model.Hospitality
	getErr    error

	allItems    []model.Hospitality
	activeItems []model.Hospitality
	allCalls    int
	activeCalls int

	updateResult *model.Hospitality
	updateErr    error

	deactivateErr error
}

func (s *stubCatalogStore) Create(_ context.Context, h *model.Hospitality) error {
	if s.createErr != nil {
		return s.createErr
	}
	h.ID = 11
	return nil
}

func (s *stubCatalogStore) GetByID(context.Context, uint64) (*model.Hospitality, error) {
	return s.getResult, s.getErr
}

func (s *stubCatalogStore) ListAll(context.Context) ([]model.Hospitality, error) {
	s.allCalls++
	return s.allItems, nil
}

func (s *stubCatalogStore) ListActive(context.Context) ([]model.Hospitality, error) {
	s.activeCalls++
	return s.activeItems, nil
}

func (s *stubCatalogStore) Update(context.Context, uint64, string, *string, uint32, bool) (*model.Hospitality, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.updateResult, nil
}

func (s *stubCatalogStore) Deactivate(context.Context, uint64) error {
	return s.deactivateErr
}

func TestCatalogCreateAssignsID(t *testing.T) {
	var events []queue.RuleSetChangedEvent
	h := NewAdminCatalogHandler(&stubCatalogStore{}, capturePublish(&events))
	c, rec := newContext(t, http.MethodPost, "/v1/admin/hospitalities",
		`{"name":"Lounge access","sort_order":3}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler err=%v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	var got model.Hospitality
	decodeBody(t, rec, &got)
	if got.ID != 11 || got.Name != "Lounge access" || !got.IsActive {
		t.Fatalf("got=%+v", got)
	}
	if len(events) != 1 || events[0].Kind != "hospitality" || events[0].RuleID != 11 {
		t.Fatalf("events=%+v", events)
	}
}

func TestCatalogCreateRequiresName(t *testing.T) {
	h := NewAdminCatalogHandler(&stubCatalogStore{}, nil)
	c, rec := newContext(t, http.MethodPost, "/v1/admin/hospitalities", `{"name":"   "}`)
	_ = h.Create(c)
	if rec.Code != http.StatusBadRequest || errorMessage(t, rec) != "name is required" {
		t.Fatalf("status=%d error=%q", rec.Code, errorMessage(t, rec))
	}
}

func TestCatalogCreateDuplicateName(t *testing.T) {
	store := &stubCatalogStore{
		createErr: errors.New("Error 1062 (23000): Duplicate entry 'Lounge access' for key 'uq_hospitality_name'"),
	}
	h := NewAdminCatalogHandler(store, nil)
	c, rec := newContext(t, http.MethodPost, "/v1/admin/hospitalities", `{"name":"Lounge access"}`)
	_ = h.Create(c)
	if rec.Code != http.StatusConflict || errorMessage(t, rec) != "hospitality name already exists" {
		t.Fatalf("status=%d error=%q", rec.Code, errorMessage(t, rec))
	}
}

func TestCatalogListTogglesInactive(t *testing.T) {
	store := &stubCatalogStore{}
	h := NewAdminCatalogHandler(store, nil)

	c, _ := newContext(t, http.MethodGet, "/v1/admin/hospitalities", "")
	_ = h.List(c)
	if store.activeCalls != 1 || store.allCalls != 0 {
		t.Fatalf("active=%d all=%d want=1/0", store.activeCalls, store.allCalls)
	}

	c, _ = newContext(t, http.MethodGet, "/v1/admin/hospitalities?include_inactive=true", "")
	_ = h.List(c)
	if store.allCalls != 1 {
		t.Fatalf("all=%d want=1", store.allCalls)
	}
}

func TestCatalogGetNotFound(t *testing.T) {
	h := NewAdminCatalogHandler(&stubCatalogStore{getErr: repository.ErrHospitalityNotFound}, nil)
	c, rec := newContext(t, http.MethodGet, "/v1/admin/hospitalities/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	_ = h.Get(c)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d want=404", rec.Code)
	}
}

func TestCatalogDeleteRetires(t *testing.T) {
	var events []queue.RuleSetChangedEvent
	h := NewAdminCatalogHandler(&stubCatalogStore{}, capturePublish(&events))
	c, rec := newContext(t, http.MethodDelete, "/v1/admin/hospitalities/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	_ = h.Delete(c)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d want=204", rec.Code)
	}
	if len(events) != 1 || events[0].Op != "deactivate" || events[0].RuleID != 7 {
		t.Fatalf("events=%+v", events)
	}
}
