package handler // handler wires HTTP requests to the pricing services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/matchdayhq/ticket-pricing/internal/model"
	"github.com/matchdayhq/ticket-pricing/internal/queue"
)

// PublishFunc delivers a rule change notification after a successful admin
// mutation. main wires it to the AMQP publisher plus the quote cache bump;
// nil disables notifications.
type PublishFunc func(ctx context.Context, ev queue.RuleSetChangedEvent)

// notify stamps actor and timestamp onto the event and hands it to publish.
// The context is detached from the request so a client hang-up cannot drop
// the cache invalidation that follows a committed write.
func notify(c echo.Context, publish PublishFunc, ev queue.RuleSetChangedEvent) {
	if publish == nil {
		return
	}
	ev.Actor = actor(c)
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	publish(context.WithoutCancel(c.Request().Context()), ev)
}

// actor returns the JWT subject placed in context by the auth middleware,
// or "" for unauthenticated callers.
func actor(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// scopeFromQuery reads scope coordinates from query parameters. Absent ids
// stay nil; a non-numeric id is an error naming the offending parameter.
func scopeFromQuery(c echo.Context) (model.Scope, error) {
	s := model.Scope{SportType: strings.TrimSpace(c.QueryParam("sport_type"))}
	ids := []struct {
		name string
		dst  **uint64
	}{
		{"tournament_id", &s.TournamentID},
		{"team_id", &s.TeamID},
		{"event_id", &s.EventID},
		{"ticket_id", &s.TicketID},
	}
	for _, p := range ids {
		raw := c.QueryParam(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return model.Scope{}, fmt.Errorf("invalid %s", p.name)
		}
		*p.dst = &n
	}
	return s, nil
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return def
}

// scopeError explains why a scope cannot address the given level. Empty
// string means the scope is valid for that level. Trims sport_type in place.
func scopeError(level model.Level, s *model.Scope) string {
	if !level.Valid() {
		return "invalid level"
	}
	s.SportType = strings.TrimSpace(s.SportType)
	if s.SportType == "" {
		return "sport_type is required"
	}
	if !s.Addressable(level) {
		return "scope does not address level " + string(level)
	}
	return ""
}
