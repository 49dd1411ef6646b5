package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/matchdayhq/ticket-pricing/internal/model"
	"github.com/matchdayhq/ticket-pricing/internal/queue"
	"github.com/matchdayhq/ticket-pricing/internal/repository"
)

// AssignmentStore is the slice of the assignment repository the admin
// handler needs.
type AssignmentStore interface {
	Upsert(ctx context.Context, a *model.HospitalityAssignment) (bool, error)
	UpsertBatch(ctx context.Context, as []model.HospitalityAssignment) (inserted, existing int64, err error)
	List(ctx context.Context, f repository.RuleFilter) ([]model.HospitalityAssignment, int64, error)
	UpdateByID(ctx context.Context, id, hospitalityID uint64, isActive bool) (*model.HospitalityAssignment, error)
	DeactivateByID(ctx context.Context, id uint64) error
	ReplaceAtScope(ctx context.Context, level model.Level, scope model.Scope, hospitalityIDs []uint64) (deleted, inserted int64, err error)
	DeleteAtScope(ctx context.Context, level model.Level, scope model.Scope) (int64, error)
}

// HospitalityChecker verifies that a referenced perk exists and is active.
type HospitalityChecker interface {
	ExistsActive(ctx context.Context, id uint64) (bool, error)
}

// AdminAssignmentHandler manages hospitality grants on scopes.
type AdminAssignmentHandler struct {
	Assignments   AssignmentStore
	Hospitalities HospitalityChecker
	Publish       PublishFunc
}

func NewAdminAssignmentHandler(as AssignmentStore, hs HospitalityChecker, publish PublishFunc) *AdminAssignmentHandler {
	return &AdminAssignmentHandler{Assignments: as, Hospitalities: hs, Publish: publish}
}

type assignmentRequest struct {
	Level         model.Level `json:"level"`
	SportType     string      `json:"sport_type"`
	TournamentID  *uint64     `json:"tournament_id"`
	TeamID        *uint64     `json:"team_id"`
	EventID       *uint64     `json:"event_id"`
	TicketID      *uint64     `json:"ticket_id"`
	HospitalityID uint64      `json:"hospitality_id"`
	IsActive      *bool       `json:"is_active"`
}

func (b *assignmentRequest) toAssignment() (*model.HospitalityAssignment, string) {
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
	if b.HospitalityID == 0 {
		return nil, "hospitality_id is required"
	}
	active := true
	if b.IsActive != nil {
		active = *b.IsActive
	}
	return &model.HospitalityAssignment{
		Level:         b.Level,
		SportType:     scope.SportType,
		TournamentID:  scope.TournamentID,
		TeamID:        scope.TeamID,
		EventID:       scope.EventID,
		TicketID:      scope.TicketID,
		HospitalityID: b.HospitalityID,
		IsActive:      active,
	}, ""
}

// checkHospitalities rejects ids that do not name an active perk. Each
// distinct id is checked once.
func (h *AdminAssignmentHandler) checkHospitalities(ctx context.Context, ids ...uint64) (string, error) {
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		ok, err := h.Hospitalities.ExistsActive(ctx, id)
		if err != nil {
			return "", err
		}
		if !ok {
			return "unknown hospitality_id " + strconv.FormatUint(id, 10), nil
		}
	}
	return "", nil
}

// Create handles POST /v1/admin/hospitality-assignments. Granting a perk a
// scope already carries is a no-op that returns the existing grant.
func (h *AdminAssignmentHandler) Create(c echo.Context) error {
	var body assignmentRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	a, msg := body.toAssignment()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	ctx := c.Request().Context()
	msg, err := h.checkHospitalities(ctx, a.HospitalityID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	created, err := h.Assignments.Upsert(ctx, a)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not save assignment"})
	}
	scope := a.Scope()
	notify(c, h.Publish, queue.RuleSetChangedEvent{
		Kind: "hospitality_assignment", Op: "upsert", Level: a.Level, Scope: &scope, RuleID: a.ID,
	})
	if created {
		return c.JSON(http.StatusCreated, a)
	}
	return c.JSON(http.StatusOK, a)
}

// List handles GET /v1/admin/hospitality-assignments.
func (h *AdminAssignmentHandler) List(c echo.Context) error {
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
	items, total, err := h.Assignments.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items, "total": total})
}

// Update handles PUT /v1/admin/hospitality-assignments/:id. The scope is
// immutable; the grant can be repointed at another perk or toggled.
func (h *AdminAssignmentHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body struct {
		HospitalityID uint64 `json:"hospitality_id"`
		IsActive      *bool  `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	if body.HospitalityID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "hospitality_id is required"})
	}
	ctx := c.Request().Context()
	msg, err := h.checkHospitalities(ctx, body.HospitalityID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	active := true
	if body.IsActive != nil {
		active = *body.IsActive
	}
	a, err := h.Assignments.UpdateByID(ctx, id, body.HospitalityID, active)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAssignmentNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "assignment not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, map[string]string{"error": "scope already grants this hospitality"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "update failed"})
	}
	scope := a.Scope()
	notify(c, h.Publish, queue.RuleSetChangedEvent{
		Kind: "hospitality_assignment", Op: "update", Level: a.Level, Scope: &scope, RuleID: a.ID,
	})
	return c.JSON(http.StatusOK, a)
}

// Delete handles DELETE /v1/admin/hospitality-assignments/:id.
func (h *AdminAssignmentHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.Assignments.DeactivateByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrAssignmentNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "assignment not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "delete failed"})
	}
	notify(c, h.Publish, queue.RuleSetChangedEvent{Kind: "hospitality_assignment", Op: "deactivate", RuleID: id})
	return c.NoContent(http.StatusNoContent)
}

// ReplaceScope handles PUT /v1/admin/hospitality-assignments/scope: the
// scope's grants become exactly the submitted set, in one transaction.
func (h *AdminAssignmentHandler) ReplaceScope(c echo.Context) error {
	var body struct {
		Level          model.Level `json:"level"`
		SportType      string      `json:"sport_type"`
		TournamentID   *uint64     `json:"tournament_id"`
		TeamID         *uint64     `json:"team_id"`
		EventID        *uint64     `json:"event_id"`
		TicketID       *uint64     `json:"ticket_id"`
		HospitalityIDs []uint64    `json:"hospitality_ids"`
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
	ctx := c.Request().Context()
	msg, err := h.checkHospitalities(ctx, body.HospitalityIDs...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	deleted, inserted, err := h.Assignments.ReplaceAtScope(ctx, body.Level, scope, body.HospitalityIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "replace failed"})
	}
	notify(c, h.Publish, queue.RuleSetChangedEvent{
		Kind: "hospitality_assignment", Op: "replace", Level: body.Level, Scope: &scope,
		Deleted: deleted, Inserted: inserted,
	})
	return c.JSON(http.StatusOK, map[string]any{"deleted": deleted, "inserted": inserted})
}

// Batch handles POST /v1/admin/hospitality-assignments/batch.
func (h *AdminAssignmentHandler) Batch(c echo.Context) error {
	var body struct {
		Assignments []assignmentRequest `json:"assignments"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	if len(body.Assignments) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "assignments is required"})
	}
	as := make([]model.HospitalityAssignment, 0, len(body.Assignments))
	ids := make([]uint64, 0, len(body.Assignments))
	for i := range body.Assignments {
		a, msg := body.Assignments[i].toAssignment()
		if msg != "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
		}
		as = append(as, *a)
		ids = append(ids, a.HospitalityID)
	}
	ctx := c.Request().Context()
	msg, err := h.checkHospitalities(ctx, ids...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	if msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	inserted, existing, err := h.Assignments.UpsertBatch(ctx, as)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "batch failed"})
	}
	notify(c, h.Publish, queue.RuleSetChangedEvent{
		Kind: "hospitality_assignment", Op: "batch", Inserted: inserted, Updated: existing,
	})
	return c.JSON(http.StatusOK, map[string]any{"inserted": inserted, "existing": existing})
}

// ClearScope handles DELETE /v1/admin/hospitality-assignments/scope.
func (h *AdminAssignmentHandler) ClearScope(c echo.Context) error {
	scope, err := scopeFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	level := model.Level(c.QueryParam("level"))
	if msg := scopeError(level, &scope); msg != "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
	}
	deleted, err := h.Assignments.DeleteAtScope(c.Request().Context(), level, scope)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "clear failed"})
	}
	notify(c, h.Publish, queue.RuleSetChangedEvent{
		Kind: "hospitality_assignment", Op: "clear", Level: level, Scope: &scope, Deleted: deleted,
	})
	return c.JSON(http.StatusOK, map[string]any{"deleted": deleted})
}
