package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/matchdayhq/ticket-pricing/internal/model"
	"github.com/matchdayhq/ticket-pricing/internal/pricing"
	"github.com/matchdayhq/ticket-pricing/internal/utils"
)

// AdminPreviewHandler lets admins dry-run a scope against the live rule set
// before publishing changes. It calls the same resolution paths as the
// storefront but never the response cache, so what admins see is what the
// next uncached storefront request would compute.
type AdminPreviewHandler struct {
	Pricing *pricing.Service
}

func NewAdminPreviewHandler(svc *pricing.Service) *AdminPreviewHandler {
	return &AdminPreviewHandler{Pricing: svc}
}

type previewRequest struct {
	model.Scope
	FaceValue       decimal.Decimal `json:"face_value"`
	TicketCurrency  string          `json:"ticket_currency"`
	DisplayCurrency string          `json:"display_currency"`
}

// Preview handles POST /v1/admin/pricing/preview.
func (h *AdminPreviewHandler) Preview(c echo.Context) error {
	var body previewRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	if err := pricing.ValidateScope(&body.Scope); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "sport_type is required"})
	}
	if body.FaceValue.IsNegative() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid face_value"})
	}
	ticketCur, ok := utils.NormalizeCurrency(body.TicketCurrency)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid ticket_currency"})
	}
	displayCur := ticketCur
	if body.DisplayCurrency != "" {
		if displayCur, ok = utils.NormalizeCurrency(body.DisplayCurrency); !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid display_currency"})
		}
	}

	ctx := c.Request().Context()
	markup, hosps, err := h.Pricing.Resolve(ctx, body.Scope)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not resolve pricing"})
	}
	if hosps == nil {
		hosps = []model.ResolvedHospitality{}
	}
	quote, err := h.Pricing.Quote(ctx, pricing.QuoteRequest{
		Scope:           body.Scope,
		FaceValue:       body.FaceValue,
		TicketCurrency:  ticketCur,
		DisplayCurrency: displayCur,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not build quote"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"markup":        markup,
		"hospitalities": hosps,
		"quote":         quote,
	})
}
