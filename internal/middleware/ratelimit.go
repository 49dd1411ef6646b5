package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/matchdayhq/ticket-pricing/internal/config"
)

// NewTokenBucket rate limits requests with a token bucket kept in Redis, so
// the limit holds across storefront replicas. The bucket state lives in a
// hash per key and is refilled lazily inside a Lua script; Redis trouble
// fails open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	// Bucket state is a hash of token count plus the timestamp of the last
	// refill step; refills happen lazily on access so idle buckets cost
	// nothing. Returns {allowed, remaining, retry_after_ms}.
	bucketScript := redis.NewScript(`
		local bucket = KEYS[1]
		local now = tonumber(ARGV[1])
		local capacity = tonumber(ARGV[2])
		local refill_n = tonumber(ARGV[3])
		local refill_ms = tonumber(ARGV[4])
		local ttl = tonumber(ARGV[5])

		local state = redis.call('HMGET', bucket, 'tk', 'ts')
		local tk = tonumber(state[1])
		local ts = tonumber(state[2])
		if tk == nil or ts == nil then
			tk = capacity
			ts = now
		end

		if refill_ms > 0 and refill_n > 0 then
			local steps = math.floor(math.max(0, now - ts) / refill_ms)
			if steps > 0 then
				tk = math.min(capacity, tk + steps * refill_n)
				ts = ts + steps * refill_ms
			end
		end

		local ok = 0
		local wait_ms = 0
		if tk > 0 then
			ok = 1
			tk = tk - 1
		else
			wait_ms = math.max(0, refill_ms - (now - ts))
		end

		redis.call('HSET', bucket, 'tk', tk, 'ts', ts)
		redis.call('EXPIRE', bucket, ttl)
		return { ok, tk, wait_ms }
	`)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)

			res, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Result()
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("rate limit: redis unavailable for %s: %v", key, err)
				}
				return next(c) // fail open
			}
			arr, ok := res.([]interface{})
			if !ok || len(arr) != 3 {
				if cfg.Debug {
					c.Logger().Warnf("rate limit: bad script reply for %s: %#v", key, res)
				}
				return next(c)
			}

			remaining := asInt64(arr[1])
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}

			if asInt64(arr[0]) != 1 {
				secs := int(math.Ceil(float64(asInt64(arr[2])) / 1000.0))
				if secs < 0 {
					secs = 0
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error":       "too_many_requests",
					"message":     "request rate limit reached",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// asInt64 coerces the value shapes go-redis hands back for Lua numbers.
func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	default:
		return 0
	}
}

// buildRateKey assembles the bucket key from the dimensions the strategy
// names, underscore-separated ("ip_route", "user", ...). A strategy naming
// an unknown dimension keys on everything, the safest bucket.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := currentUserID(c)
	route := c.Request().Method + " " + c.Path()

	key := cfg.Prefix
	for _, dim := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
		switch dim {
		case "ip":
			key += ":ip:" + ip
		case "user":
			key += ":user:" + uid
		case "route":
			key += ":route:" + route
		default:
			return cfg.Prefix + ":ip:" + ip + ":user:" + uid + ":route:" + route
		}
	}
	return key
}

// currentUserID identifies the caller for user-scoped buckets. Storefront
// traffic is anonymous and shares the "anon" bucket per IP strategy; admin
// calls carry the JWT subject set by JWTAuth.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case nil:
		return "anon"
	case string:
		if v == "" {
			return "anon"
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}
