package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/matchdayhq/ticket-pricing/internal/model"
	"github.com/matchdayhq/ticket-pricing/internal/queue"
	"github.com/matchdayhq/ticket-pricing/internal/repository"
)

// LegacyStore is the slice of the legacy override repository the admin
// handler needs.
type LegacyStore interface {
	GetMarkupByTicket(ctx context.Context, ticketID uint64) (*model.LegacyTicketMarkup, error)
	ListHospitalitiesByTicket(ctx context.Context, ticketID uint64) ([]model.LegacyTicketHospitality, error)
	RetireByTicket(ctx context.Context, ticketID uint64) (markups, hospitalities int64, err error)
}

// AdminLegacyHandler exposes the per-ticket overrides inherited from the old
// flat pricing system. They are read and retired here, never created: new
// pricing goes through hierarchy rules.
type AdminLegacyHandler struct {
	Legacy  LegacyStore
	Publish PublishFunc
}

func NewAdminLegacyHandler(legacy LegacyStore, publish PublishFunc) *AdminLegacyHandler {
	return &AdminLegacyHandler{Legacy: legacy, Publish: publish}
}

// Get handles GET /v1/admin/legacy-overrides/:ticket_id and shows what the
// old system still pins on the ticket.
func (h *AdminLegacyHandler) Get(c echo.Context) error {
	ticketID, err := strconv.ParseUint(c.Param("ticket_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid ticket_id"})
	}
	ctx := c.Request().Context()

	markup, err := h.Legacy.GetMarkupByTicket(ctx, ticketID)
	if err != nil && !errors.Is(err, repository.ErrLegacyOverrideNotFound) {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	hosps, err := h.Legacy.ListHospitalitiesByTicket(ctx, ticketID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	if markup == nil && len(hosps) == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no legacy overrides for ticket"})
	}
	if hosps == nil {
		hosps = []model.LegacyTicketHospitality{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"ticket_id":     ticketID,
		"markup":        markup,
		"hospitalities": hosps,
	})
}

// Delete handles DELETE /v1/admin/legacy-overrides/:ticket_id. Retiring
// deactivates both the markup override and the hospitality pins so the
// ticket falls through to hierarchy resolution.
func (h *AdminLegacyHandler) Delete(c echo.Context) error {
	ticketID, err := strconv.ParseUint(c.Param("ticket_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid ticket_id"})
	}
	markups, hosps, err := h.Legacy.RetireByTicket(c.Request().Context(), ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrLegacyOverrideNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "no legacy overrides for ticket"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "retire failed"})
	}
	notify(c, h.Publish, queue.RuleSetChangedEvent{
		Kind: "legacy_override", Op: "retire", TicketID: ticketID, Deleted: markups + hosps,
	})
	return c.JSON(http.StatusOK, map[string]any{
		"markups_retired":       markups,
		"hospitalities_retired": hosps,
	})
}
