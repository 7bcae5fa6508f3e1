package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarizeBelowFreeShipping(t *testing.T) {
	s := Summarize(dec("50"), false)
	assert.True(t, s.Shipping.Equal(dec("9.99")))
	assert.True(t, s.Tax.Equal(dec("4")))
	assert.True(t, s.Discount.IsZero())
	assert.True(t, s.Total.Equal(dec("63.99")))
	assert.True(t, s.AmountToFreeShipping.Equal(dec("50")))
}

func TestSummarizeExactlyThresholdStillPaysShipping(t *testing.T) {
	s := Summarize(dec("100"), false)
	assert.True(t, s.Shipping.Equal(dec("9.99")))
	assert.True(t, s.AmountToFreeShipping.IsZero())
}

func TestSummarizeFreeShippingWithPromo(t *testing.T) {
	s := Summarize(dec("200"), true)
	assert.True(t, s.Shipping.IsZero())
	assert.True(t, s.Tax.Equal(dec("16")))
	assert.True(t, s.Discount.Equal(dec("20")))
	assert.True(t, s.Total.Equal(dec("196")))
	assert.True(t, s.PromoApplied)
}

func TestPromoCodeValid(t *testing.T) {
	assert.True(t, PromoCodeValid(" save10 "))
	assert.True(t, PromoCodeValid("SAVE10"))
	assert.False(t, PromoCodeValid("SAVE20"))
	assert.False(t, PromoCodeValid(""))
}
