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

// CatalogStore is the slice of the hospitality repository the catalog admin
// handler needs.
type CatalogStore interface {
	Create(ctx context.Context, h *model.Hospitality) error
	GetByID(ctx context.Context, id uint64) (*model.Hospitality, error)
	ListAll(ctx context.Context) ([]model.Hospitality, error)
	ListActive(ctx context.Context) ([]model.Hospitality, error)
	Update(ctx context.Context, id uint64, name string, description *string, sortOrder uint32, isActive bool) (*model.Hospitality, error)
	Deactivate(ctx context.Context, id uint64) error
}

// AdminCatalogHandler manages the hospitality definitions themselves.
type AdminCatalogHandler struct {
	Catalog CatalogStore
	Publish PublishFunc
}

func NewAdminCatalogHandler(catalog CatalogStore, publish PublishFunc) *AdminCatalogHandler {
	return &AdminCatalogHandler{Catalog: catalog, Publish: publish}
}

type hospitalityRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	SortOrder   uint32  `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

// Create handles POST /v1/admin/hospitalities.
func (h *AdminCatalogHandler) Create(c echo.Context) error {
	var body hospitalityRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}
	active := true
	if body.IsActive != nil {
		active = *body.IsActive
	}
	hosp := &model.Hospitality{
		Name:        name,
		Description: body.Description,
		SortOrder:   body.SortOrder,
		IsActive:    active,
	}
	if err := h.Catalog.Create(c.Request().Context(), hosp); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, map[string]string{"error": "hospitality name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create hospitality"})
	}
	notify(c, h.Publish, queue.RuleSetChangedEvent{Kind: "hospitality", Op: "upsert", RuleID: hosp.ID})
	return c.JSON(http.StatusCreated, hosp)
}

// List handles GET /v1/admin/hospitalities. include_inactive=true widens the
// listing to retired perks.
func (h *AdminCatalogHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		items []model.Hospitality
		err   error
	)
	if c.QueryParam("include_inactive") == "true" {
		items, err = h.Catalog.ListAll(ctx)
	} else {
		items, err = h.Catalog.ListActive(ctx)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Get handles GET /v1/admin/hospitalities/:id.
func (h *AdminCatalogHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	hosp, err := h.Catalog.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrHospitalityNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "hospitality not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	return c.JSON(http.StatusOK, hosp)
}

// Update handles PUT /v1/admin/hospitalities/:id with a full payload.
func (h *AdminCatalogHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body hospitalityRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}
	active := true
	if body.IsActive != nil {
		active = *body.IsActive
	}
	hosp, err := h.Catalog.Update(c.Request().Context(), id, name, body.Description, body.SortOrder, active)
	if err != nil {
		if errors.Is(err, repository.ErrHospitalityNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "hospitality not found"})
		}
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, map[string]string{"error": "hospitality name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "update failed"})
	}
	notify(c, h.Publish, queue.RuleSetChangedEvent{Kind: "hospitality", Op: "update", RuleID: id})
	return c.JSON(http.StatusOK, hosp)
}

// Delete handles DELETE /v1/admin/hospitalities/:id. The perk is retired,
// not removed; existing assignments keep their rows but stop resolving it
// from the storefront catalog.
func (h *AdminCatalogHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.Catalog.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrHospitalityNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "hospitality not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "delete failed"})
	}
	notify(c, h.Publish, queue.RuleSetChangedEvent{Kind: "hospitality", Op: "deactivate", RuleID: id})
	return c.NoContent(http.StatusNoContent)
}
