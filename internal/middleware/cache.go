package middleware

// Response cache for the storefront pricing routes. A quote is a pure
// function of the request shape and the current rule set, so entries are
// keyed by an epoch counter alongside route and query: bumping the epoch
// after an admin mutation orphans every cached quote at once without
// scanning keys. Orphaned entries age out via their TTL.

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/matchdayhq/ticket-pricing/internal/config"
)

// captureWriter tees the response body into a buffer while forwarding it to
// the client. Bodies past limit mark the capture as overflowed and the entry
// is not stored; a truncated body must never be replayed.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	overflow bool
	limit    int
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	switch {
	case cw.overflow:
	case cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit:
		cw.overflow = true
		cw.buf.Reset()
	default:
		cw.buf.Write(b)
	}
	return cw.ResponseWriter.Write(b)
}

// InvalidateQuoteCache advances the cache epoch so previously stored
// responses can never be served again. Admin mutations call this after
// commit.
func InvalidateQuoteCache(ctx context.Context, rdb *redis.Client, prefix string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Incr(ctx, epochKey(prefix)).Err()
}

func epochKey(prefix string) string { return prefix + ":epoch" }

// cacheKeyFrom builds a stable cache key honoring prefix and strategy. The
// epoch participates in the hash so a bump re-keys the whole namespace.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context, epoch string) string {
	req := c.Request()

	raw := "e:" + epoch
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		raw += ":route:" + c.Path()
	case "method_route":
		raw += ":method:" + req.Method + ":route:" + c.Path()
	case "method_route_query":
		raw += ":method:" + req.Method + ":route:" + c.Path() + ":q:" + req.URL.RawQuery
	default: // "route_query"
		raw += ":route:" + c.Path() + ":q:" + req.URL.RawQuery
	}

	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// A stored entry is [status uint32][headerLen uint32][header JSON][body],
// both integers big-endian.
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(8 + len(hdrJSON) + len(body))
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], uint32(status))
	buf.Write(word[:])
	binary.BigEndian.PutUint32(word[:], uint32(len(hdrJSON)))
	buf.Write(word[:])
	buf.Write(hdrJSON)
	buf.Write(body)
	return buf.Bytes(), nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[:4]))
	hlen := binary.BigEndian.Uint32(bs[4:8])
	if uint64(hlen)+8 > uint64(len(bs)) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// replayCached writes a stored payload back to the client. False means the
// payload was unreadable and the request falls through to the handler.
func replayCached(c echo.Context, bs []byte) bool {
	status, hdr, body, ok := decodePayload(bs)
	if !ok {
		return false
	}
	out := c.Response().Header()
	for name, vals := range hdr {
		if strings.EqualFold(name, "Content-Length") {
			continue
		}
		for _, v := range vals {
			out.Add(name, v)
		}
	}
	out.Set("X-Cache", "HIT")
	c.Response().WriteHeader(status)
	if len(body) > 0 {
		_, _ = c.Response().Write(body)
	}
	return true
}

// snapshotHeader deep-copies a header map; the echo response header is
// reused after the handler returns.
func snapshotHeader(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for name, vals := range h {
		out[name] = append([]string(nil), vals...)
	}
	return out
}

// NewRedisCache serves eligible storefront responses from Redis. Headers and
// body are stored together so clients see formatting identical to the
// original response; only 200s are stored. Redis trouble fails open.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			ctx := c.Request().Context()
			epoch, err := rdb.Get(ctx, epochKey(cfg.Prefix)).Result()
			if err != nil {
				if err != redis.Nil {
					return next(c)
				}
				epoch = "0"
			}
			key := cacheKeyFrom(cfg, c, epoch)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil && replayCached(c, bs) {
				return nil
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK && !cw.overflow {
				hdr := snapshotHeader(c.Response().Header())
				if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
					// Stored on a fresh context: the client may hang up
					// right after the body is flushed.
					if err := rdb.SetEx(context.Background(), key, payload, ttl).Err(); err != nil {
						c.Logger().Warnf("cache: store %s: %v", key, err)
					}
				}
			}
			return nil
		}
	}
}
