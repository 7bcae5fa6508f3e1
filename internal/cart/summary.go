package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PromoCode is the single promotional code the storefront accepts.
const PromoCode = "SAVE10"

var (
	FreeShippingThreshold = decimal.NewFromInt(100)
	ShippingCost          = decimal.RequireFromString("9.99")
	TaxRate               = decimal.RequireFromString("0.08")
	PromoDiscountRate     = decimal.RequireFromString("0.1")
)

// Summary is the order breakdown shown next to the cart.
type Summary struct {
	Subtotal             decimal.Decimal `json:"subtotal"`
	Shipping             decimal.Decimal `json:"shipping"`
	Tax                  decimal.Decimal `json:"tax"`
	Discount             decimal.Decimal `json:"discount"`
	Total                decimal.Decimal `json:"total"`
	AmountToFreeShipping decimal.Decimal `json:"amount_to_free_shipping"`
	PromoApplied         bool            `json:"promo_applied"`
}

// Summarize derives shipping, tax and discount from a cart subtotal.
// Shipping is free only when the subtotal is strictly above the threshold.
func Summarize(subtotal decimal.Decimal, promoApplied bool) Summary {
	shipping := ShippingCost
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(TaxRate)
	discount := decimal.Zero
	if promoApplied {
		discount = subtotal.Mul(PromoDiscountRate)
	}
	toFree := FreeShippingThreshold.Sub(subtotal)
	if toFree.IsNegative() {
		toFree = decimal.Zero
	}
	return Summary{
		Subtotal:             subtotal,
		Shipping:             shipping,
		Tax:                  tax.Round(2),
		Discount:             discount.Round(2),
		Total:                subtotal.Add(shipping).Add(tax).Sub(discount).Round(2),
		AmountToFreeShipping: toFree,
		PromoApplied:         promoApplied,
	}
}

// PromoCodeValid reports whether code matches PromoCode, ignoring case and
// surrounding whitespace.
func PromoCodeValid(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), PromoCode)
}
