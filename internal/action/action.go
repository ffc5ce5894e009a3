// Package action maps exchange event vocabularies onto domain.TradeAction.
package action

import "strconv"

// parseOptional parses a nullable numeric string. Absent, empty and
// unparseable values are reported as nil.
func parseOptional(s *string) *float64 {
	if s == nil || *s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(*s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseOr parses a nullable numeric string, returning def when it is absent
// or unparseable.
func parseOr(s *string, def float64) float64 {
	if f := parseOptional(s); f != nil {
		return *f
	}
	return def
}
