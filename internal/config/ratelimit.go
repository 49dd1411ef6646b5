package config

import "time"

// RateLimitConfig drives the token-bucket limiter on the storefront routes.
// Most traffic there is anonymous, so the default key strategy buckets by
// client IP and route.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads the limiter settings. RATE_LIMIT_BURST and
// RATE_LIMIT_REFILL_EVERY are accepted as shorthand for a capacity plus a
// one-token-per-interval refill, the way ops teams usually express limits.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        getEnvBool("RATE_LIMIT_ENABLED", true),
		Capacity:       getEnvInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   getEnvInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: getEnvDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            getEnvDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    getEnv("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         getEnv("RATE_LIMIT_PREFIX", "pricing:rl"),
		Debug:          getEnvBool("RATE_LIMIT_DEBUG", false),
	}
	if burst := getEnvInt("RATE_LIMIT_BURST", 0); burst > 0 {
		cfg.Capacity = burst
	}
	if every := getEnvDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		cfg.RefillTokens = 1
		cfg.RefillInterval = every
	}
	return cfg.clamped()
}

// clamped floors the bucket parameters at workable values and stretches the
// TTL to cover at least five refill intervals, so a bucket cannot expire in
// the middle of the window it is limiting.
func (cfg RateLimitConfig) clamped() RateLimitConfig {
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if min := 5 * cfg.RefillInterval; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}
