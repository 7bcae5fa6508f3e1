// Package catalog reads products and categories from the external catalog
// API. It holds no state of its own beyond an optional read-through cache.
package catalog

import (
	"context"

	"storefront-backend/internal/model"
)

// Source is the read-only catalog contract consumed by sessions and the API.
// GetProduct reports absence with found=false rather than an error.
type Source interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int) (p model.Product, found bool, err error)
	ListByCategory(ctx context.Context, category string) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// byCategory keeps products whose category equals category, in order.
func byCategory(products []model.Product, category string) []model.Product {
	out := []model.Product{}
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
