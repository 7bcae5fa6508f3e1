package catalog

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-backend/internal/model"
)

// FallbackCategories is served when the upstream category listing fails.
var FallbackCategories = []string{"electronics", "jewelery", "men's clothing", "women's clothing"}

// FallbackProducts returns the fixed sample list served when the upstream
// product listing fails.
func FallbackProducts() []model.Product {
	return []model.Product{
		{
			ID:          1,
			Title:       "Sample Product 1",
			Price:       decimal.RequireFromString("29.99"),
			Description: "A great sample product",
			Category:    "electronics",
			Image:       "/electronics-components.png",
			Rating:      model.Rating{Rate: 4.5, Count: 120},
		},
		{
			ID:          2,
			Title:       "Sample Product 2",
			Price:       decimal.RequireFromString("49.99"),
			Description: "Another amazing product",
			Category:    "clothing",
			Image:       "/diverse-clothing-rack.png",
			Rating:      model.Rating{Rate: 4.2, Count: 85},
		},
	}
}

// FallbackProduct is the sample served for a single lookup of id when the
// upstream fails.
func FallbackProduct(id int) model.Product {
	return model.Product{
		ID:          id,
		Title:       "Sample Product",
		Price:       decimal.RequireFromString("29.99"),
		Description: "A great sample product with detailed description",
		Category:    "electronics",
		Image:       "/diverse-products-still-life.png",
		Rating:      model.Rating{Rate: 4.5, Count: 120},
	}
}

// Fallback is the boundary layer in front of the upstream: any failure is
// logged and replaced by fixed sample data, so it never returns an error.
// A genuine not-found is passed through unchanged.
type Fallback struct {
	src    Source
	logger *zap.Logger
}

// NewFallback wraps src with the fixed fallback data.
func NewFallback(src Source, logger *zap.Logger) *Fallback {
	return &Fallback{src: src, logger: logger}
}

// ListProducts serves FallbackProducts when src fails.
func (f *Fallback) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := f.src.ListProducts(ctx)
	if err != nil {
		f.logger.Warn("catalog: serving fallback products", zap.Error(err))
		return FallbackProducts(), nil
	}
	return products, nil
}

// GetProduct serves FallbackProduct(id) when src fails.
func (f *Fallback) GetProduct(ctx context.Context, id int) (model.Product, bool, error) {
	p, found, err := f.src.GetProduct(ctx, id)
	if err != nil {
		f.logger.Warn("catalog: serving fallback product", zap.Int("product_id", id), zap.Error(err))
		return FallbackProduct(id), true, nil
	}
	return p, found, nil
}

func (f *Fallback) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	products, err := f.src.ListByCategory(ctx, category)
	if err != nil {
		f.logger.Warn("catalog: serving fallback category listing", zap.String("category", category), zap.Error(err))
		return byCategory(FallbackProducts(), category), nil
	}
	return products, nil
}

func (f *Fallback) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := f.src.ListCategories(ctx)
	if err != nil {
		f.logger.Warn("catalog: serving fallback categories", zap.Error(err))
		return append([]string(nil), FallbackCategories...), nil
	}
	return categories, nil
}
