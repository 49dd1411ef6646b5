package rates

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// errSessionFailed pins a session whose fetch already failed; conversion
// stays off until Reset.
var errSessionFailed = errors.New("rate fetch failed for this session")

// Cache is the session-scoped rate provider the composer prices against.
// It fetches the table once per session from its Source, collapses
// concurrent first requests into a single flight, and pins the outcome:
// after a failed fetch conversion stays disabled until Reset starts a new
// session. There is no TTL inside a session; re-pricing the same page
// against two different spot rates is worse than a slightly old rate.
type Cache struct {
	source Source
	group  singleflight.Group

	mu     sync.RWMutex
	table  *Table
	failed bool
}

// NewCache builds a Cache over the given source. The cache starts empty;
// the first Rate call triggers the fetch.
func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

// Rate returns the from -> to conversion multiplier, fetching the
// session's table on first use. ok is false when conversion is
// unavailable, either because the session fetch failed or because one of
// the codes is missing from the table. Codes must be normalized
// upper-case ISO 4217.
func (c *Cache) Rate(ctx context.Context, from, to string) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	t, err := c.load(ctx)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return t.Rate(from, to)
}

// load returns the session table, fetching it exactly once even under
// concurrent first calls.
func (c *Cache) load(ctx context.Context) (*Table, error) {
	c.mu.RLock()
	t, failed := c.table, c.failed
	c.mu.RUnlock()
	if t != nil {
		return t, nil
	}
	if failed {
		return nil, errSessionFailed
	}

	v, err, _ := c.group.Do("rates", func() (interface{}, error) {
		// another flight may have landed between the check and the Do
		c.mu.RLock()
		t, failed := c.table, c.failed
		c.mu.RUnlock()
		if t != nil {
			return t, nil
		}
		if failed {
			return nil, errSessionFailed
		}

		// The fetch is detached from the caller's cancellation: an aborted
		// request must not pin the whole session into the failed state.
		// The client's own timeout still bounds it.
		fetched, err := c.source.FetchRates(context.WithoutCancel(ctx))

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.failed = true
			logger.Error().Err(err).Msg("rate fetch failed; conversion disabled for this session")
			return nil, err
		}
		c.table = fetched
		logger.Info().Str("base", fetched.Base).Int("currencies", len(fetched.Rates)).Msg("rate table loaded")
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// Reset discards the session state so the next Rate call fetches a fresh
// table. Deployments cycle sessions with it; tests use it to isolate
// cases.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.table = nil
	c.failed = false
	c.mu.Unlock()
	c.group.Forget("rates")
}
