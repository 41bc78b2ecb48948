package notifier

import (
	"fmt"
	"html"
	"strings"

	"uzdeals/dealwatcher/internal/currency"
	"uzdeals/dealwatcher/internal/pricing"
	"uzdeals/dealwatcher/internal/watch"
)

// buildCaption renders the Telegram HTML caption for an alert. The
// secondary display currency line is included only when the converter
// knows a rate for it.
func buildCaption(alert watch.Alert, conv *currency.Converter, displayCurrency string) string {
	var b strings.Builder

	title := alert.Title
	if title == "" {
		title = alert.URL
	}
	fmt.Fprintf(&b, "🔥 <b>%s</b>\n\n", html.EscapeString(title))

	fmt.Fprintf(&b, "💰 Price: <b>%s %s</b>", fmtMoney(&alert.CurrentPrice), alert.Currency)
	if conv != nil && displayCurrency != "" && displayCurrency != alert.Currency {
		if converted, ok := conv.FromBase(alert.CurrentPrice, displayCurrency); ok {
			fmt.Fprintf(&b, " (~%s %s)", fmtMoney(&converted), displayCurrency)
		}
	}
	b.WriteString("\n")

	if alert.PreviousPrice != nil {
		fmt.Fprintf(&b, "📉 Was: %s %s\n", fmtMoney(alert.PreviousPrice), alert.Currency)
	}
	fmt.Fprintf(&b, "🎯 Trigger: %s %s", fmtMoney(&alert.TriggerPrice), alert.Currency)
	if discount := pricing.PercentDiscount(alert.TriggerPrice, alert.CurrentPrice); discount > 0 {
		fmt.Fprintf(&b, " (%.0f%% below)", discount)
	}
	b.WriteString("\n")

	if alert.SellPrice != nil {
		fmt.Fprintf(&b, "🏷 Sell at: %s %s\n", fmtMoney(alert.SellPrice), alert.Currency)
	}
	if alert.Category != nil && *alert.Category != "" {
		fmt.Fprintf(&b, "📦 %s\n", html.EscapeString(*alert.Category))
	}

	return strings.TrimRight(b.String(), "\n")
}

// fmtMoney prints a price without trailing zeros, or an em dash
// placeholder for an absent value.
func fmtMoney(v *float64) string {
	if v == nil {
		return "—"
	}
	s := fmt.Sprintf("%.2f", *v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
