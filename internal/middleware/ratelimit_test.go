package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/matchdayhq/ticket-pricing/internal/config"
)

func rateContext(userID string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/v1/pricing/quote", nil)
	req.RemoteAddr = "203.0.113.9:4321"
	c := echo.New().NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/pricing/quote")
	if userID != "" {
		c.Set("user_id", userID)
	}
	return c
}

func TestBuildRateKeyStrategies(t *testing.T) {
	c := rateContext("admin-7")

	got := buildRateKey(config.RateLimitConfig{Prefix: "pricing:rl", KeyStrategy: "ip_route"}, c)
	want := "pricing:rl:ip:203.0.113.9:route:GET /v1/pricing/quote"
	if got != want {
		t.Fatalf("ip_route key=%q want=%q", got, want)
	}

	got = buildRateKey(config.RateLimitConfig{Prefix: "pricing:rl", KeyStrategy: "user"}, c)
	if got != "pricing:rl:user:admin-7" {
		t.Fatalf("user key=%q", got)
	}

	// unknown strategy falls back to ip+user+route
	got = buildRateKey(config.RateLimitConfig{Prefix: "p", KeyStrategy: "bogus"}, c)
	if got != "p:ip:203.0.113.9:user:admin-7:route:GET /v1/pricing/quote" {
		t.Fatalf("fallback key=%q", got)
	}
}

func TestCurrentUserIDAnonymous(t *testing.T) {
	if got := currentUserID(rateContext("")); got != "anon" {
		t.Fatalf("got=%q want=anon", got)
	}
	c := rateContext("")
	c.Set("user_id", 42)
	if got := currentUserID(c); got != "42" {
		t.Fatalf("got=%q want=42", got)
	}
}

func TestAsInt64Coercions(t *testing.T) {
	if asInt64(int64(3)) != 3 || asInt64("7") != 7 || asInt64(2.0) != 2 {
		t.Fatal("coercion broken")
	}
	if asInt64("not a number") != 0 {
		t.Fatal("garbage string must coerce to 0")
	}
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)
	c := rateContext("")
	reached := false
	h := mw(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware err=%v", err)
	}
	if !reached {
		t.Fatal("inner handler skipped")
	}
	if got := c.Response().Header().Get("X-RateLimit-Limit"); got != "" {
		t.Fatalf("X-RateLimit-Limit=%q want unset when disabled", got)
	}
}
