// Package utils holds small helpers shared across handlers and pricing.
package utils

import "strings"

// NormalizeCurrency trims and upper-cases an ISO 4217 code. ok is false
// when the result is not exactly three letters A-Z.
func NormalizeCurrency(code string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) != 3 {
		return "", false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", false
		}
	}
	return c, true
}
