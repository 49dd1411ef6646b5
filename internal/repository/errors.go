// Package repository implements MySQL persistence for markup rules,
// hospitality assignments, the hospitality catalog and the legacy
// per-ticket overrides. Sentinel errors let handlers map storage
// failures onto HTTP statuses without string matching; each entity
// keeps its not-found sentinel next to its repository.
package repository

import "errors"

// ErrConflict is returned when a write collides with existing state,
// such as activating a rule at a scope that already has a different
// active rule. Handlers translate it into an HTTP 409.
var ErrConflict = errors.New("conflicting active row")
