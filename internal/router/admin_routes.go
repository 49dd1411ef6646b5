package router

import (
	"github.com/labstack/echo/v4"

	"github.com/matchdayhq/ticket-pricing/internal/handler"
	"github.com/matchdayhq/ticket-pricing/internal/middleware"
)

// RegisterAdmin registers the rule management endpoints under /v1/admin.
// All routes require a valid JWT with the ADMIN role. The /scope and /batch
// routes are registered before their /:id siblings; echo matches static
// segments first either way, this just keeps the file readable.
func RegisterAdmin(
	e *echo.Echo,
	m *handler.AdminMarkupHandler,
	a *handler.AdminAssignmentHandler,
	cat *handler.AdminCatalogHandler,
	leg *handler.AdminLegacyHandler,
	prev *handler.AdminPreviewHandler,
	jwtSecret string,
) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Markup rules ----
	g.POST("/markup-rules", m.Create)
	g.GET("/markup-rules", m.List)
	g.PUT("/markup-rules/scope", m.ReplaceScope)
	g.DELETE("/markup-rules/scope", m.ClearScope)
	g.POST("/markup-rules/batch", m.Batch)
	g.PUT("/markup-rules/:id", m.Update)
	g.DELETE("/markup-rules/:id", m.Delete)

	// ---- Hospitality assignments ----
	g.POST("/hospitality-assignments", a.Create)
	g.GET("/hospitality-assignments", a.List)
	g.PUT("/hospitality-assignments/scope", a.ReplaceScope)
	g.DELETE("/hospitality-assignments/scope", a.ClearScope)
	g.POST("/hospitality-assignments/batch", a.Batch)
	g.PUT("/hospitality-assignments/:id", a.Update)
	g.DELETE("/hospitality-assignments/:id", a.Delete)

	// ---- Hospitality catalog ----
	g.POST("/hospitalities", cat.Create)
	g.GET("/hospitalities", cat.List)
	g.GET("/hospitalities/:id", cat.Get)
	g.PUT("/hospitalities/:id", cat.Update)
	g.DELETE("/hospitalities/:id", cat.Delete)

	// ---- Legacy overrides ----
	g.GET("/legacy-overrides/:ticket_id", leg.Get)
	g.DELETE("/legacy-overrides/:ticket_id", leg.Delete)

	// ---- Preview ----
	g.POST("/pricing/preview", prev.Preview)
}
