package catalog

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront-backend/internal/model"
)

// sanitize drops products that fail schema validation. A bad upstream row
// only discards that product; the rest of the list is kept.
func sanitize(v *validator.Validate, logger *zap.Logger, products []model.Product) []model.Product {
	valid := make([]model.Product, 0, len(products))
	seen := make(map[int]struct{}, len(products))
	for _, p := range products {
		if err := v.Struct(p); err != nil {
			logger.Warn("catalog: rejected product", zap.Int("product_id", p.ID), zap.Error(err))
			continue
		}
		if _, dup := seen[p.ID]; dup {
			logger.Warn("catalog: duplicate product id, skipping", zap.Int("product_id", p.ID))
			continue
		}
		seen[p.ID] = struct{}{}
		valid = append(valid, p)
	}
	return valid
}
