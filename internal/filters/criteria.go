// Package filters narrows a product collection by search text, category and
// price, and pages the result.
package filters

import (
	"strings"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/model"
)

var (
	DefaultMinPrice = decimal.Zero
	DefaultMaxPrice = decimal.NewFromInt(1000)
)

// PriceRange is an inclusive [Min, Max] bound. Min <= Max is not enforced;
// an inverted range simply matches nothing.
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// DefaultPriceRange is the unrestricted [0, 1000] range.
func DefaultPriceRange() PriceRange {
	return PriceRange{Min: DefaultMinPrice, Max: DefaultMaxPrice}
}

// Contains reports whether price lies within r, bounds included.
func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}

// Narrowed reports whether r excludes part of the default [0, 1000] range.
func (r PriceRange) Narrowed() bool {
	return r.Min.GreaterThan(DefaultMinPrice) || r.Max.LessThan(DefaultMaxPrice)
}

// Criteria is the tuple driving the visible product set.
type Criteria struct {
	SearchQuery        string     `json:"search_query"`
	SelectedCategories []string   `json:"selected_categories"`
	PriceRange         PriceRange `json:"price_range"`
}

// DefaultCriteria matches every product.
func DefaultCriteria() Criteria {
	return Criteria{PriceRange: DefaultPriceRange()}
}

// Matches applies the search, category and price predicates together.
func (c Criteria) Matches(p model.Product) bool {
	if c.SearchQuery != "" {
		q := strings.ToLower(c.SearchQuery)
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if len(c.SelectedCategories) > 0 && !containsString(c.SelectedCategories, p.Category) {
		return false
	}
	return c.PriceRange.Contains(p.Price)
}

// Apply returns the products matching c, in source order.
func Apply(products []model.Product, c Criteria) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if c.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Related returns up to limit products other than current, in source order.
// products is expected to already be restricted to current's category.
func Related(products []model.Product, current, limit int) []model.Product {
	out := make([]model.Product, 0, limit)
	for _, p := range products {
		if len(out) == limit {
			break
		}
		if p.ID != current {
			out = append(out, p)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
