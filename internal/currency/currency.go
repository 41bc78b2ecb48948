package currency

import (
	"strings"

	"uzdeals/dealwatcher/logger"
)

// Converter turns extracted prices into the monitoring base currency using
// a static exchange-rate table. Rates are expressed as base-currency units
// per one unit of the foreign code.
type Converter struct {
	base  string
	rates map[string]float64
	log   *logger.Logger
}

// NewConverter creates a converter for the given base currency
func NewConverter(base string, rates map[string]float64) *Converter {
	normalized := make(map[string]float64, len(rates))
	for code, rate := range rates {
		normalized[strings.ToUpper(code)] = rate
	}
	return &Converter{
		base:  strings.ToUpper(base),
		rates: normalized,
		log:   logger.ForComponent("currency"),
	}
}

// Base returns the base currency code
func (c *Converter) Base() string {
	return c.base
}

// ToBase converts an amount in the given currency into the base currency.
// Unknown codes pass through unconverted; that limitation is logged rather
// than hidden.
func (c *Converter) ToBase(amount float64, code string) float64 {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || code == c.base {
		return amount
	}
	if rate, ok := c.rates[code]; ok && rate > 0 {
		return amount * rate
	}
	c.log.Warn().
		Str("currency", code).
		Float64("amount", amount).
		Msg("No exchange rate for currency, passing amount through unconverted")
	return amount
}

// FromBase converts a base-currency amount into the given code when a rate
// is known. Used for secondary display, not for stored prices.
func (c *Converter) FromBase(amount float64, code string) (float64, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == c.base {
		return amount, true
	}
	if rate, ok := c.rates[code]; ok && rate > 0 {
		return amount / rate, true
	}
	return 0, false
}
