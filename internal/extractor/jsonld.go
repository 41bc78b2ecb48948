package extractor

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractStructured scans every ld+json script block for a Product-style
// object carrying an offers price. The first object with a parseable price
// wins; its name/headline and image fill the metadata slots.
func extractStructured(doc *goquery.Document) (float64, *string, *string, *string, bool) {
	var (
		price    float64
		currency *string
		title    *string
		image    *string
		found    bool
	)

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, obj := range decodeJSONLD(s.Text()) {
			p, cur, ok := offerPrice(obj)
			if !ok {
				continue
			}
			price = p
			currency = cur
			title = objectTitle(obj)
			image = objectImage(obj)
			found = true
			return false
		}
		return true
	})

	return price, currency, title, image, found
}

// decodeJSONLD parses one script block into a flat list of objects,
// accepting both a single object and an array. Malformed blocks are
// skipped silently; broken embedded JSON is routine on real pages.
func decodeJSONLD(raw string) []map[string]interface{} {
	var out []map[string]interface{}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var single map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		return append(out, single)
	}

	var list []interface{}
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		for _, entry := range list {
			if obj, ok := entry.(map[string]interface{}); ok {
				out = append(out, obj)
			}
		}
	}
	return out
}

// offerPrice searches an object's offers field, which may be a single
// offer or a list, for a price/lowPrice with optional priceCurrency.
func offerPrice(obj map[string]interface{}) (float64, *string, bool) {
	offers, ok := obj["offers"]
	if !ok {
		return 0, nil, false
	}

	switch v := offers.(type) {
	case map[string]interface{}:
		return parseOffer(v)
	case []interface{}:
		for _, entry := range v {
			if offer, ok := entry.(map[string]interface{}); ok {
				if price, cur, ok := parseOffer(offer); ok {
					return price, cur, true
				}
			}
		}
	}
	return 0, nil, false
}

func parseOffer(offer map[string]interface{}) (float64, *string, bool) {
	raw, ok := offer["price"]
	if !ok || raw == nil {
		raw, ok = offer["lowPrice"]
	}
	if !ok || raw == nil {
		return 0, nil, false
	}

	var price float64
	var parsed bool
	switch v := raw.(type) {
	case float64:
		price, parsed = v, true
	case string:
		price, parsed = ParsePrice(v)
	}
	if !parsed {
		return 0, nil, false
	}

	var currency *string
	if cur, ok := offer["priceCurrency"].(string); ok && cur != "" {
		currency = &cur
	}
	return price, currency, true
}

func objectTitle(obj map[string]interface{}) *string {
	for _, key := range []string{"name", "headline", "title"} {
		if v, ok := obj[key].(string); ok {
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return &trimmed
			}
		}
	}
	return nil
}

func objectImage(obj map[string]interface{}) *string {
	switch v := obj["image"].(type) {
	case string:
		if v != "" {
			return &v
		}
	case []interface{}:
		if len(v) > 0 {
			if first, ok := v[0].(string); ok && first != "" {
				return &first
			}
		}
	}
	return nil
}
