package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/matchdayhq/ticket-pricing/internal/model"
	"github.com/matchdayhq/ticket-pricing/internal/pricing"
	"github.com/matchdayhq/ticket-pricing/internal/utils"
)

// HospitalityCatalog lists the perk definitions shown on storefront pages.
type HospitalityCatalog interface {
	ListActive(ctx context.Context) ([]model.Hospitality, error)
}

// PublicHandler serves the unauthenticated storefront endpoints.
type PublicHandler struct {
	Pricing *pricing.Service
	Catalog HospitalityCatalog
}

func NewPublicHandler(svc *pricing.Service, catalog HospitalityCatalog) *PublicHandler {
	return &PublicHandler{Pricing: svc, Catalog: catalog}
}

// Resolve handles POST /v1/pricing/resolve. The body is a scope; the
// response carries the winning markup (null when no rule applies) and the
// union of hospitality grants. A scope without sport_type is a client error,
// a scope no rule matches is not.
func (h *PublicHandler) Resolve(c echo.Context) error {
	var scope model.Scope
	if err := c.Bind(&scope); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	if err := pricing.ValidateScope(&scope); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "sport_type is required"})
	}
	markup, hosps, err := h.Pricing.Resolve(c.Request().Context(), scope)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not resolve pricing"})
	}
	if hosps == nil {
		hosps = []model.ResolvedHospitality{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"markup":        markup,
		"hospitalities": hosps,
	})
}

// Quote handles GET /v1/pricing/quote. All inputs ride in the query string
// so the response cache can key on route plus query alone. display_currency
// defaults to the ticket currency.
func (h *PublicHandler) Quote(c echo.Context) error {
	scope, err := scopeFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err := pricing.ValidateScope(&scope); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "sport_type is required"})
	}

	rawFace := c.QueryParam("face_value")
	if rawFace == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "face_value is required"})
	}
	face, err := decimal.NewFromString(rawFace)
	if err != nil || face.IsNegative() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid face_value"})
	}

	ticketCur, ok := utils.NormalizeCurrency(c.QueryParam("ticket_currency"))
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid ticket_currency"})
	}
	displayCur := ticketCur
	if raw := c.QueryParam("display_currency"); raw != "" {
		if displayCur, ok = utils.NormalizeCurrency(raw); !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid display_currency"})
		}
	}

	quote, err := h.Pricing.Quote(c.Request().Context(), pricing.QuoteRequest{
		Scope:           scope,
		FaceValue:       face,
		TicketCurrency:  ticketCur,
		DisplayCurrency: displayCur,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not build quote"})
	}
	return c.JSON(http.StatusOK, quote)
}

// ListHospitalities handles GET /v1/hospitalities and returns the active
// perk catalog in display order.
func (h *PublicHandler) ListHospitalities(c echo.Context) error {
	items, err := h.Catalog.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}
