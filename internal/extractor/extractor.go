package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"uzdeals/dealwatcher/internal/watch"
)

// Extractor produces a best-effort (price, currency, title, image) tuple
// from raw product-page markup. Strategies run in order and the first one
// yielding a price wins:
//
//  1. JSON-LD Product/offers blocks
//  2. product:price:amount / og:price:amount meta tags
//  3. currency-anchored free-text search
//
// Title and image fall back independently of the price strategies.
// Extraction never fails; absent fields stay nil.
type Extractor struct {
	baseCurrency string
}

// New creates an extractor that defaults to the given base currency when
// a price is found without an accompanying currency.
func New(baseCurrency string) *Extractor {
	return &Extractor{baseCurrency: strings.ToUpper(baseCurrency)}
}

// Free-text price markers. The Arabic riyal sign appears both as the
// letter sequence and as the dotted abbreviation on Saudi storefronts.
var (
	markerThenNumber = regexp.MustCompile(`(SAR|ر\.س|﷼|USD|\$)\s*([0-9][0-9.,]*)`)
	numberThenMarker = regexp.MustCompile(`([0-9][0-9.,]*)\s*(SAR|ر\.س|﷼|USD|\$)`)
)

// Extract parses the markup and applies the strategy chain
func (e *Extractor) Extract(html string) watch.Observation {
	var obs watch.Observation

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return obs
	}

	if price, cur, title, img, ok := extractStructured(doc); ok {
		obs.Price = &price
		obs.Currency = cur
		obs.Title = title
		obs.ImageURL = img
	} else if price, cur, ok := extractMetaPrice(doc); ok {
		obs.Price = &price
		obs.Currency = cur
	} else if price, cur, ok := extractTextPrice(doc); ok {
		obs.Price = &price
		obs.Currency = &cur
	}

	// Title and image are filled independently of the price strategies.
	if obs.Title == nil {
		obs.Title = fallbackTitle(doc)
	}
	if obs.ImageURL == nil {
		obs.ImageURL = fallbackImage(doc)
	}

	if obs.Price != nil && obs.Currency == nil {
		cur := e.baseCurrency
		obs.Currency = &cur
	}
	if obs.Currency != nil {
		cur := canonicalCurrency(*obs.Currency)
		obs.Currency = &cur
	}

	return obs
}

// extractMetaPrice reads product price meta tags with their sibling
// currency tag.
func extractMetaPrice(doc *goquery.Document) (float64, *string, bool) {
	amountSel := doc.Find(`meta[property="product:price:amount"], meta[name="product:price:amount"], meta[property="og:price:amount"]`).First()
	content, exists := amountSel.Attr("content")
	if !exists {
		return 0, nil, false
	}
	price, ok := ParsePrice(content)
	if !ok {
		return 0, nil, false
	}

	var currency *string
	curSel := doc.Find(`meta[property="product:price:currency"], meta[name="product:price:currency"], meta[property="og:price:currency"]`).First()
	if cur, exists := curSel.Attr("content"); exists && cur != "" {
		currency = &cur
	}
	return price, currency, true
}

// extractTextPrice searches the visible page text for a currency marker
// adjacent to a numeric token, in either order.
func extractTextPrice(doc *goquery.Document) (float64, string, bool) {
	body := doc.Find("body")
	if body.Length() == 0 {
		return 0, "", false
	}
	body.Find("script, style").Remove()
	text := body.Text()

	if m := markerThenNumber.FindStringSubmatch(text); m != nil {
		if price, ok := ParsePrice(m[2]); ok {
			return price, m[1], true
		}
	}
	if m := numberThenMarker.FindStringSubmatch(text); m != nil {
		if price, ok := ParsePrice(m[1]); ok {
			return price, m[2], true
		}
	}
	return 0, "", false
}

func fallbackTitle(doc *goquery.Document) *string {
	if content, exists := doc.Find(`meta[property="og:title"]`).First().Attr("content"); exists {
		if trimmed := strings.TrimSpace(content); trimmed != "" {
			return &trimmed
		}
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return &title
	}
	return nil
}

func fallbackImage(doc *goquery.Document) *string {
	if content, exists := doc.Find(`meta[property="og:image"]`).First().Attr("content"); exists {
		if trimmed := strings.TrimSpace(content); trimmed != "" {
			return &trimmed
		}
	}
	return nil
}

// canonicalCurrency maps free-text markers onto currency codes
func canonicalCurrency(marker string) string {
	switch strings.TrimSpace(marker) {
	case "$":
		return "USD"
	case "ر.س", "﷼":
		return "SAR"
	default:
		return strings.ToUpper(strings.TrimSpace(marker))
	}
}
