package config

import (
	"strings"
	"time"
)

// CacheConfig drives the quote response cache middleware. Methods lists the
// HTTP methods eligible for caching; TTL bounds how long a cached quote can
// outlive a rule change on instances that miss the invalidation bump;
// KeyStrategy picks which request parts form the key.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig builds a CacheConfig from environment variables, with
// defaults tuned for the storefront quote routes.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      getEnvBool("CACHE_ENABLED", true),
		Methods:      methodSet(getEnv("CACHE_METHODS", "GET")),
		TTL:          getEnvDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  getEnv("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       getEnv("CACHE_PREFIX", "pricing:cache"),
		MaxBodyBytes: getEnvInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// methodSet turns a comma-separated method list into an upper-cased set.
func methodSet(raw string) map[string]bool {
	set := make(map[string]bool)
	for _, m := range strings.Split(raw, ",") {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			set[m] = true
		}
	}
	return set
}
