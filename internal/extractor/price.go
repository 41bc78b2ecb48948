package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)*`)

// ParsePrice extracts a numeric price from a text fragment, handling both
// the 1,234.56 (comma groups) and 1.234,56 (comma decimal) conventions.
func ParsePrice(s string) (float64, bool) {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	token := numberPattern.FindString(s)
	if token == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(normalizeSeparators(token), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// normalizeSeparators rewrites a numeric token into strconv form.
// When both separators appear, the rightmost one is the decimal point.
// A single comma is a decimal point; repeated commas are grouping.
// A single period is a decimal point; repeated periods are grouping.
func normalizeSeparators(token string) string {
	dots := strings.Count(token, ".")
	commas := strings.Count(token, ",")

	decimalIdx := -1
	switch {
	case dots > 0 && commas > 0:
		lastDot := strings.LastIndex(token, ".")
		lastComma := strings.LastIndex(token, ",")
		if lastComma > lastDot {
			decimalIdx = lastComma
		} else {
			decimalIdx = lastDot
		}
	case commas == 1:
		decimalIdx = strings.LastIndex(token, ",")
	case dots == 1:
		decimalIdx = strings.LastIndex(token, ".")
	}

	var b strings.Builder
	b.Grow(len(token))
	for i, r := range token {
		switch r {
		case '.', ',':
			if i == decimalIdx {
				b.WriteByte('.')
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
