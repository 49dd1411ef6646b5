package pricing

import "errors"

// ErrInvalidScope is returned when a request scope fails validation, as
// opposed to a valid scope that simply matches no rules (which resolves
// to nil, not an error).
var ErrInvalidScope = errors.New("invalid scope: sport_type is required")
