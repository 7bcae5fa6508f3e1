// Package wishlist implements the set of products a shopper has saved.
package wishlist

import (
	"storefront-backend/internal/model"
	"storefront-backend/internal/notify"
)

const (
	MsgAdded   = "ADDED TO WISHLIST"
	MsgPresent = "ALREADY IN WISHLIST"
	MsgRemoved = "REMOVED FROM WISHLIST"
)

// Set is an insertion-ordered set of products keyed by id.
type Set struct {
	items []model.Product
	ids   map[int]struct{}
}

// New returns an empty wishlist.
func New() *Set {
	return &Set{ids: make(map[int]struct{})}
}

// Add saves p. Adding a product that is already present leaves the set
// unchanged and returns an info notice.
func (s *Set) Add(p model.Product) notify.Notice {
	if s.Contains(p.ID) {
		return notify.Info(MsgPresent)
	}
	s.ids[p.ID] = struct{}{}
	s.items = append(s.items, p)
	return notify.Success(MsgAdded)
}

// Remove drops id if present; otherwise it is a silent no-op.
func (s *Set) Remove(id int) notify.Notice {
	if !s.Contains(id) {
		return notify.Notice{}
	}
	delete(s.ids, id)
	for i, p := range s.items {
		if p.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return notify.Info(MsgRemoved)
}

// Contains reports whether id is wished.
func (s *Set) Contains(id int) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Set) Len() int { return len(s.items) }

// Items returns a copy of the saved products in insertion order.
func (s *Set) Items() []model.Product {
	out := make([]model.Product, len(s.items))
	copy(out, s.items)
	return out
}

// Restore replaces the content with a persisted snapshot, keeping the first
// occurrence of each id.
func (s *Set) Restore(items []model.Product) {
	s.items = nil
	s.ids = make(map[int]struct{})
	for _, p := range items {
		if s.Contains(p.ID) {
			continue
		}
		s.ids[p.ID] = struct{}{}
		s.items = append(s.items, p)
	}
}
