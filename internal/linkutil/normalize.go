package linkutil

import (
	"net/url"
	"regexp"
	"strings"

	errs "uzdeals/dealwatcher/pkg/errors"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

var slashRun = regexp.MustCompile(`/{2,}`)

// Query parameters stripped from every canonical URL. Keys matching the
// utm_ prefix are removed as well.
var trackingParams = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"igshid":  {},
	"mc_cid":  {},
	"mc_eid":  {},
	"ref":     {},
	"scm":     {},
	"spm":     {},
	"shareid": {},
}

// Normalize canonicalizes a raw link, tolerating surrounding message text.
// It extracts the first well-formed http(s) URL, strips chat-client
// punctuation artifacts, collapses duplicated path separators, drops the
// fragment and removes known tracking parameters while preserving the order
// of everything else.
func Normalize(raw string) (string, error) {
	match := urlPattern.FindString(raw)
	if match == "" {
		return "", errs.NewInvalidURL(raw, "no http(s) URL found in input")
	}

	// Trailing punctuation from chat clients: closing brackets, periods etc.
	match = strings.TrimRight(match, ".,;:!?)]}>")

	u, err := url.Parse(match)
	if err != nil {
		return "", errs.NewInvalidURL(match, "unparseable URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errs.NewInvalidURL(match, "URL must have an http(s) scheme and a host")
	}

	u.Path = slashRun.ReplaceAllString(u.Path, "/")
	u.Fragment = ""
	u.RawFragment = ""
	u.RawQuery = cleanQuery(u.RawQuery)

	return u.String(), nil
}

// cleanQuery removes tracking parameters from a raw query string without
// disturbing the relative order of the remaining pairs.
func cleanQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	kept := make([]string, 0, 4)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if idx := strings.Index(pair, "="); idx >= 0 {
			key = pair[:idx]
		}
		key = strings.ToLower(key)
		if strings.HasPrefix(key, "utm_") {
			continue
		}
		if _, tracked := trackingParams[key]; tracked {
			continue
		}
		kept = append(kept, pair)
	}

	return strings.Join(kept, "&")
}
