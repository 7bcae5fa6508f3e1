package filters

import (
	"strings"

	"storefront-backend/internal/model"
)

// MaxRecentSearches bounds the recent search history.
const MaxRecentSearches = 5

// State holds the shopper's current filter criteria and active page.
// Changing any criterion resets the page to 1.
type State struct {
	criteria Criteria
	page     int
	recent   []string
}

// NewState starts with default criteria on page 1.
func NewState() *State {
	return &State{criteria: DefaultCriteria(), page: 1}
}

// Criteria returns a copy of the active criteria.
func (s *State) Criteria() Criteria {
	c := s.criteria
	c.SelectedCategories = append([]string(nil), s.criteria.SelectedCategories...)
	return c
}

func (s *State) Page() int { return s.page }

// SetSearchQuery replaces the query without recording it as a recent search.
func (s *State) SetSearchQuery(q string) {
	s.criteria.SearchQuery = q
	s.page = 1
}

// Search sets the query and records non-blank queries in the recent list,
// most recent first without duplicates.
func (s *State) Search(q string) {
	s.SetSearchQuery(q)
	if strings.TrimSpace(q) == "" {
		return
	}
	recent := []string{q}
	for _, r := range s.recent {
		if r != q {
			recent = append(recent, r)
		}
	}
	if len(recent) > MaxRecentSearches {
		recent = recent[:MaxRecentSearches]
	}
	s.recent = recent
}

// RecentSearches lists recorded queries, most recent first.
func (s *State) RecentSearches() []string {
	return append([]string{}, s.recent...)
}

// SetSelectedCategories replaces the category filter; empty means any category.
func (s *State) SetSelectedCategories(categories []string) {
	s.criteria.SelectedCategories = append([]string(nil), categories...)
	s.page = 1
}

// ToggleCategory adds category when checked and removes it otherwise.
func (s *State) ToggleCategory(category string, checked bool) {
	cur := s.criteria.SelectedCategories
	next := make([]string, 0, len(cur)+1)
	for _, c := range cur {
		if c != category {
			next = append(next, c)
		}
	}
	if checked {
		next = append(next, category)
	}
	s.criteria.SelectedCategories = next
	s.page = 1
}

func (s *State) SetPriceRange(r PriceRange) {
	s.criteria.PriceRange = r
	s.page = 1
}

// Clear restores the default criteria. Recent searches are kept.
func (s *State) Clear() {
	s.criteria = DefaultCriteria()
	s.page = 1
}

// SetPage selects the active page; View clamps it against the result size.
func (s *State) SetPage(page int) {
	s.page = page
}

// ActiveFilterCount counts selected categories plus one for a narrowed
// price range.
func (s *State) ActiveFilterCount() int {
	n := len(s.criteria.SelectedCategories)
	if s.criteria.PriceRange.Narrowed() {
		n++
	}
	return n
}

// View filters products with the current criteria and returns the active page.
func (s *State) View(products []model.Product) Page {
	return Paginate(Apply(products, s.criteria), s.page, PageSize)
}
