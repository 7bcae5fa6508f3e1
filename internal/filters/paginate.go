package filters

import "storefront-backend/internal/model"

// PageSize is the number of products per catalog page.
const PageSize = 12

// Page is one window of a filtered product list. Start and End are the
// 1-based positions of the first and last item shown.
type Page struct {
	Items      []model.Product `json:"items"`
	Number     int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	TotalItems int             `json:"total_items"`
	Start      int             `json:"start"`
	End        int             `json:"end"`
}

// TotalPages is ceil(n / size).
func TotalPages(n, size int) int {
	if size <= 0 {
		size = PageSize
	}
	return (n + size - 1) / size
}

// Paginate returns the requested 1-indexed page. Out of range requests are
// clamped to the nearest valid page; an empty list yields an empty page 1
// with TotalPages 0.
func Paginate(products []model.Product, page, size int) Page {
	if size <= 0 {
		size = PageSize
	}
	total := TotalPages(len(products), size)
	if page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	end := start + size
	if end > len(products) {
		end = len(products)
	}
	items := make([]model.Product, end-start)
	copy(items, products[start:end])
	pg := Page{
		Items:      items,
		Number:     page,
		TotalPages: total,
		TotalItems: len(products),
	}
	if len(items) > 0 {
		pg.Start = start + 1
		pg.End = end
	}
	return pg
}
