package bill

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var numberToken = regexp.MustCompile(`\d+(\.\d+)?`)

// NormalizeNumber converts a loosely-formatted numeric value into a float.
// Comma thousands separators and surrounding whitespace are stripped before
// parsing. Returns nil for nil input or anything that does not parse; it
// never fails loudly.
func NormalizeNumber(v any) *float64 {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(strings.ReplaceAll(fmt.Sprint(v), ",", ""))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParseNumber finds the first integer-or-decimal token in a value and
// normalizes it. Currency symbols, units, and anything after the first
// numeric token are dropped, including any further numbers in the same
// string; ParseNumber("2 boxes of 10") is 2. Returns nil for nil input or
// when no numeric token exists.
func ParseNumber(v any) *float64 {
	if v == nil {
		return nil
	}
	s := strings.ReplaceAll(fmt.Sprint(v), ",", "")
	m := numberToken.FindString(s)
	if m == "" {
		return nil
	}
	return NormalizeNumber(m)
}
