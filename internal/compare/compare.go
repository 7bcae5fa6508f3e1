// Package compare implements the bounded set of products picked for
// side-by-side comparison.
package compare

import (
	"storefront-backend/internal/model"
	"storefront-backend/internal/notify"
)

// MaxItems bounds the compare set.
const MaxItems = 4

const (
	MsgAdded   = "ADDED TO COMPARE"
	MsgPresent = "ALREADY IN COMPARE"
	MsgLimit   = "COMPARE LIMIT REACHED"
	MsgRemoved = "REMOVED FROM COMPARE"
	MsgCleared = "COMPARE CLEARED"
)

// Set holds at most MaxItems distinct products. It is session-only state.
type Set struct {
	items []model.Product
}

// New returns an empty compare set.
func New() *Set { return &Set{} }

// Add inserts p unless the set is full or p is already present. The limit
// check runs first, so a full set reports the limit even for a member.
func (s *Set) Add(p model.Product) notify.Notice {
	if len(s.items) >= MaxItems {
		return notify.Warning(MsgLimit)
	}
	if s.Contains(p.ID) {
		return notify.Info(MsgPresent)
	}
	s.items = append(s.items, p)
	return notify.Success(MsgAdded)
}

// Remove drops id; an absent id raises no notice.
func (s *Set) Remove(id int) notify.Notice {
	for i, p := range s.items {
		if p.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return notify.Info(MsgRemoved)
		}
	}
	return notify.Notice{}
}

// Clear empties the set.
func (s *Set) Clear() notify.Notice {
	s.items = nil
	return notify.Info(MsgCleared)
}

// Contains is a linear scan; the set never exceeds MaxItems.
func (s *Set) Contains(id int) bool {
	for _, p := range s.items {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s *Set) Len() int { return len(s.items) }

// Items returns a copy in insertion order.
func (s *Set) Items() []model.Product {
	out := make([]model.Product, len(s.items))
	copy(out, s.items)
	return out
}
