package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/matchdayhq/ticket-pricing/internal/config"
	"github.com/matchdayhq/ticket-pricing/internal/database"
	"github.com/matchdayhq/ticket-pricing/internal/handler"
	"github.com/matchdayhq/ticket-pricing/internal/middleware"
	"github.com/matchdayhq/ticket-pricing/internal/pricing"
	"github.com/matchdayhq/ticket-pricing/internal/queue"
	"github.com/matchdayhq/ticket-pricing/internal/rates"
	"github.com/matchdayhq/ticket-pricing/internal/repository"
	"github.com/matchdayhq/ticket-pricing/internal/router"
	queue_publisher "github.com/matchdayhq/ticket-pricing/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment
	cfg := config.Load()

	bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.Open(bootCtx, cfg)
	if err != nil {
		cancel()
		log.Fatalf("database: %v", err)
	}
	if err := database.EnsureSchema(bootCtx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; response cache and rate limiting disabled")
	}
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	rateCache := rates.NewCache(rates.NewClient(cfg.RatesURL, cfg.RatesTimeout))

	markupRepo := repository.NewMarkupRuleRepo(db)
	assignmentRepo := repository.NewHospitalityAssignmentRepo(db)
	hospitalityRepo := repository.NewHospitalityRepo(db)
	legacyRepo := repository.NewLegacyOverrideRepo(db)

	svc := pricing.NewService(markupRepo, assignmentRepo, legacyRepo, &pricing.Composer{
		Rates:             rateCache,
		ReferenceCurrency: cfg.ReferenceCurrency,
	})

	// Every admin mutation fans out the same way: an event for the audit
	// consumer, then a cache epoch bump so replicas stop serving stale
	// quotes. Publish failures are logged inside and must not fail the
	// admin request; the mutation is already committed.
	publish := func(ctx context.Context, ev queue.RuleSetChangedEvent) {
		if cfg.RabbitURL != "" {
			_ = queue_publisher.PublishRuleSetChanged(ctx, cfg.RabbitURL, ev)
		}
		_ = middleware.InvalidateQuoteCache(ctx, rdb, cacheCfg.Prefix)
	}

	public := handler.NewPublicHandler(svc, hospitalityRepo)
	adminMarkup := handler.NewAdminMarkupHandler(markupRepo, publish)
	adminAssignment := handler.NewAdminAssignmentHandler(assignmentRepo, hospitalityRepo, publish)
	adminCatalog := handler.NewAdminCatalogHandler(hospitalityRepo, publish)
	adminLegacy := handler.NewAdminLegacyHandler(legacyRepo, publish)
	adminPreview := handler.NewAdminPreviewHandler(svc)

	e := echo.New()
	e.Use(echomw.Recover())

	router.RegisterRoutes(e)
	router.RegisterStorefront(e, public, rdb, cacheCfg, rlCfg)
	router.RegisterAdmin(e, adminMarkup, adminAssignment, adminCatalog, adminLegacy, adminPreview, cfg.JWTSecret)

	if cfg.RabbitURL != "" {
		go func() {
			_ = queue.StartAuditConsumer(cfg.RabbitURL)
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("pricing service up on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
