package session

import (
	"context"

	"storefront-backend/internal/filters"
)

// CatalogView is the visible, paginated catalog for the current filters.
type CatalogView struct {
	filters.Page
	Criteria       filters.Criteria `json:"criteria"`
	Categories     []string         `json:"categories"`
	RecentSearches []string         `json:"recent_searches"`
	ActiveFilters  int              `json:"active_filters"`
	SoftError      string           `json:"soft_error,omitempty"`
}

// View loads the catalog on first use and returns the active page.
func (s *Session) View(ctx context.Context) CatalogView {
	s.ensureCatalog(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() CatalogView {
	return CatalogView{
		Page:           s.filters.View(s.products),
		Criteria:       s.filters.Criteria(),
		Categories:     append([]string{}, s.categories...),
		RecentSearches: s.filters.RecentSearches(),
		ActiveFilters:  s.filters.ActiveFilterCount(),
		SoftError:      s.softErr,
	}
}

// SetCriteria replaces all filter criteria at once and resets to page 1.
func (s *Session) SetCriteria(c filters.Criteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.SetSearchQuery(c.SearchQuery)
	s.filters.SetSelectedCategories(c.SelectedCategories)
	s.filters.SetPriceRange(c.PriceRange)
}

// Search sets the query and records it among recent searches.
func (s *Session) Search(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Search(query)
}

// ToggleCategory selects or deselects one category.
func (s *Session) ToggleCategory(category string, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.ToggleCategory(category, checked)
}

// ClearFilters restores default criteria; recent searches are kept.
func (s *Session) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Clear()
}

// SetPage selects a page; View clamps it to the available range.
func (s *Session) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.SetPage(page)
}
