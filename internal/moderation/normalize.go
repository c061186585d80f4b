package moderation

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	fifty   = decimal.NewFromInt(50)
	hundred = decimal.NewFromInt(100)
)

// Normalize derives the price per kilogram from an observed price and its
// unit. Unrecognized units pass the price through unchanged; that fallback is
// deliberate, not an error, so a new unit never blocks approval.
func Normalize(price decimal.Decimal, unit string) decimal.Decimal {
	u := strings.ToLower(unit)
	switch {
	case strings.Contains(u, "50kg"):
		return price.Div(fifty)
	case strings.Contains(u, "100kg"):
		return price.Div(hundred)
	case strings.Contains(u, "kg"):
		return price
	default:
		return price
	}
}
