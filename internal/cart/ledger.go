// Package cart implements the cart ledger: a product-id keyed collection of
// quantities with derived totals.
package cart

import (
	"github.com/shopspring/decimal"

	"storefront-backend/internal/model"
	"storefront-backend/internal/notify"
)

const (
	MsgAdded   = "ADDED TO CART"
	MsgRemoved = "REMOVED FROM CART"
	MsgCleared = "CART CLEARED"
)

// Ledger holds at most one entry per product id, each with quantity >= 1.
// Entries keep insertion order. Ledger is not safe for concurrent use; the
// owning session serializes access.
type Ledger struct {
	entries []model.CartEntry
	index   map[int]int
}

// NewLedger returns an empty cart.
func NewLedger() *Ledger {
	return &Ledger{index: make(map[int]int)}
}

// Add increments the quantity of p, inserting it with quantity 1 if absent.
func (l *Ledger) Add(p model.Product) notify.Notice {
	if i, ok := l.index[p.ID]; ok {
		l.entries[i].Quantity++
		return notify.Success(MsgAdded)
	}
	l.index[p.ID] = len(l.entries)
	l.entries = append(l.entries, model.CartEntry{Product: p, Quantity: 1})
	return notify.Success(MsgAdded)
}

// Remove deletes the entry for id. Removing an absent id changes nothing and
// returns the zero Notice.
func (l *Ledger) Remove(id int) notify.Notice {
	i, ok := l.index[id]
	if !ok {
		return notify.Notice{}
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	l.reindex()
	return notify.Info(MsgRemoved)
}

// SetQuantity overwrites the quantity for id. A quantity <= 0 removes the
// entry, so the ledger never holds a non-positive quantity.
func (l *Ledger) SetQuantity(id, quantity int) notify.Notice {
	if quantity <= 0 {
		return l.Remove(id)
	}
	if i, ok := l.index[id]; ok {
		l.entries[i].Quantity = quantity
	}
	return notify.Notice{}
}

// Clear empties the ledger.
func (l *Ledger) Clear() notify.Notice {
	l.entries = nil
	l.index = make(map[int]int)
	return notify.Info(MsgCleared)
}

// TotalItems is the sum of all quantities.
func (l *Ledger) TotalItems() int {
	n := 0
	for _, e := range l.entries {
		n += e.Quantity
	}
	return n
}

// TotalPrice sums price × quantity using the prices captured at add time.
func (l *Ledger) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.entries {
		total = total.Add(e.Subtotal())
	}
	return total
}

// Len counts distinct products, not units.
func (l *Ledger) Len() int { return len(l.entries) }

// Quantity returns the quantity held for id, 0 if absent.
func (l *Ledger) Quantity(id int) int {
	if i, ok := l.index[id]; ok {
		return l.entries[i].Quantity
	}
	return 0
}

// Entries returns a copy of the ledger in insertion order.
func (l *Ledger) Entries() []model.CartEntry {
	out := make([]model.CartEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Restore replaces the ledger content with a persisted snapshot. Entries with
// a non-positive quantity are dropped and duplicate ids are merged.
func (l *Ledger) Restore(entries []model.CartEntry) {
	l.entries = nil
	l.index = make(map[int]int)
	for _, e := range entries {
		if e.Quantity <= 0 {
			continue
		}
		if i, ok := l.index[e.Product.ID]; ok {
			l.entries[i].Quantity += e.Quantity
			continue
		}
		l.index[e.Product.ID] = len(l.entries)
		l.entries = append(l.entries, e)
	}
}

func (l *Ledger) reindex() {
	l.index = make(map[int]int, len(l.entries))
	for i, e := range l.entries {
		l.index[e.Product.ID] = i
	}
}
