package router // package router groups endpoints and attaches their middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/matchdayhq/ticket-pricing/internal/config"
	"github.com/matchdayhq/ticket-pricing/internal/handler"
	"github.com/matchdayhq/ticket-pricing/internal/middleware"
)

// RegisterRoutes registers routes that carry no middleware at all. Currently
// that is just the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterStorefront registers the unauthenticated pricing endpoints under
// /v1. Storefront traffic is rate limited per client, and GET responses are
// served from the Redis cache; that is why the quote endpoint takes its
// inputs as query parameters.
func RegisterStorefront(e *echo.Echo, p *handler.PublicHandler, rdb *redis.Client, cacheCfg config.CacheConfig, rlCfg config.RateLimitConfig) {
	g := e.Group(
		"/v1",
		middleware.NewTokenBucket(rlCfg, rdb),
		middleware.NewRedisCache(cacheCfg, rdb),
	)

	g.POST("/pricing/resolve", p.Resolve)
	g.GET("/pricing/quote", p.Quote)
	g.GET("/hospitalities", p.ListHospitalities)
}
