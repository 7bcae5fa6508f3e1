package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/model"
	"storefront-backend/internal/notify"
)

func product(id int, price string) model.Product {
	return model.Product{ID: id, Title: "p", Price: decimal.RequireFromString(price), Category: "electronics"}
}

func TestAddSameProductAccumulates(t *testing.T) {
	l := NewLedger()
	p := product(7, "3.50")
	for i := 0; i < 5; i++ {
		n := l.Add(p)
		assert.Equal(t, notify.Success(MsgAdded), n)
	}
	assert.Equal(t, 5, l.TotalItems())
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 5, l.Quantity(7))
}

func TestLedgerEndToEnd(t *testing.T) {
	l := NewLedger()
	p := product(1, "10")

	l.Add(p)
	l.Add(p)
	entries := l.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Product.ID)
	assert.Equal(t, 2, entries[0].Quantity)
	assert.True(t, l.TotalPrice().Equal(decimal.RequireFromString("20.00")))

	l.SetQuantity(1, 5)
	assert.True(t, l.TotalPrice().Equal(decimal.RequireFromString("50.00")))

	n := l.Remove(1)
	assert.Equal(t, notify.Info(MsgRemoved), n)
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, l.TotalItems())
}

func TestRemoveAbsentIsSilentNoop(t *testing.T) {
	l := NewLedger()
	l.Add(product(1, "1"))

	n := l.Remove(99)
	assert.True(t, n.IsZero())
	assert.Equal(t, 1, l.TotalItems())
}

func TestRemoveExcludesQuantityFromTotals(t *testing.T) {
	l := NewLedger()
	l.Add(product(1, "1"))
	l.Add(product(2, "2"))
	l.Add(product(2, "2"))
	l.Add(product(3, "3"))

	l.Remove(2)
	assert.Equal(t, 2, l.TotalItems())
	assert.True(t, l.TotalPrice().Equal(decimal.NewFromInt(4)))
	// index stays consistent after removal from the middle
	l.Add(product(3, "3"))
	assert.Equal(t, 2, l.Quantity(3))
}

func TestSetQuantityNonPositiveRemoves(t *testing.T) {
	for _, q := range []int{0, -3} {
		l := NewLedger()
		l.Add(product(1, "4"))
		n := l.SetQuantity(1, q)
		assert.Equal(t, notify.Info(MsgRemoved), n)
		assert.Equal(t, 0, l.Len())
	}
}

func TestSetQuantityAbsentIsNoop(t *testing.T) {
	l := NewLedger()
	n := l.SetQuantity(5, 3)
	assert.True(t, n.IsZero())
	assert.Equal(t, 0, l.Len())
}

func TestPriceCapturedAtAddTime(t *testing.T) {
	l := NewLedger()
	l.Add(product(1, "10"))
	l.Add(product(1, "99")) // later price does not rewrite the captured one
	assert.True(t, l.TotalPrice().Equal(decimal.NewFromInt(20)))
}

func TestClear(t *testing.T) {
	l := NewLedger()
	l.Add(product(1, "1"))
	l.Add(product(2, "1"))
	assert.Equal(t, notify.Info(MsgCleared), l.Clear())
	assert.Equal(t, 0, l.TotalItems())
	l.Add(product(1, "1"))
	assert.Equal(t, 1, l.TotalItems())
}

func TestRestoreDropsInvalidAndMergesDuplicates(t *testing.T) {
	l := NewLedger()
	l.Restore([]model.CartEntry{
		{Product: product(1, "2"), Quantity: 2},
		{Product: product(2, "2"), Quantity: 0},
		{Product: product(1, "2"), Quantity: 1},
	})
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 3, l.Quantity(1))
}

func TestEntriesIsACopy(t *testing.T) {
	l := NewLedger()
	l.Add(product(1, "1"))
	e := l.Entries()
	e[0].Quantity = 100
	assert.Equal(t, 1, l.Quantity(1))
}
