package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront-backend/internal/cart"
	"storefront-backend/internal/compare"
	"storefront-backend/internal/filters"
	"storefront-backend/internal/model"
	"storefront-backend/internal/notify"
	"storefront-backend/internal/persist"
	"storefront-backend/internal/wishlist"
)

// fakeCatalog serves a fixed product list. When gate is set, ListProducts
// blocks on the channel received from it.
type fakeCatalog struct {
	mu       sync.Mutex
	products []model.Product
	err      error
	gate     chan chan struct{}
}

func (f *fakeCatalog) ListProducts(ctx context.Context) ([]model.Product, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case release := <-gate:
			<-release
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Product(nil), f.products...), f.err
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id int) (model.Product, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return model.Product{}, false, f.err
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return model.Product{}, false, nil
}

func (f *fakeCatalog) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Product
	for _, p := range f.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, f.err
}

func (f *fakeCatalog) ListCategories(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return []string{"electronics", "jewelery"}, f.err
}

func products(n int) []model.Product {
	out := make([]model.Product, n)
	for i := range out {
		cat := "electronics"
		if i%2 == 1 {
			cat = "jewelery"
		}
		out[i] = model.Product{
			ID:       i + 1,
			Title:    fmt.Sprintf("Product %d", i+1),
			Price:    decimal.NewFromInt(int64(10 * (i + 1))),
			Category: cat,
		}
	}
	return out
}

func newManager(t *testing.T, src *fakeCatalog) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	return newManagerWith(t, Options{Catalog: src})
}

// newManagerWith fills in a miniredis-backed store, a long notification TTL
// and a no-op logger around opts.
func newManagerWith(t *testing.T, opts Options) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	opts.Store = persist.NewRedisStore(rdb, 0)
	opts.NotificationTTL = time.Minute
	opts.Logger = zap.NewNop()
	m := NewManager(opts)
	t.Cleanup(m.Close)
	return m, mr
}

func TestCartFlowDispatchesNotifications(t *testing.T) {
	m, _ := newManager(t, &fakeCatalog{})
	s := m.Create(context.Background())
	ctx := context.Background()
	p := model.Product{ID: 1, Title: "x", Price: decimal.NewFromInt(10), Category: "electronics"}

	s.AddToCart(ctx, p)
	s.AddToCart(ctx, p)
	view := s.Cart()
	assert.Equal(t, 2, view.TotalItems)
	assert.True(t, view.TotalPrice.Equal(decimal.NewFromInt(20)))
	st := s.Notification()
	assert.True(t, st.Visible)
	assert.Equal(t, cart.MsgAdded, st.Message)

	s.SetCartQuantity(ctx, 1, 5)
	assert.True(t, s.Cart().TotalPrice.Equal(decimal.NewFromInt(50)))

	s.DismissNotification()
	n := s.RemoveFromCart(ctx, 99)
	assert.True(t, n.IsZero())
	assert.False(t, s.Notification().Visible, "absent remove must not notify")

	s.RemoveFromCart(ctx, 1)
	assert.Equal(t, 0, s.Cart().TotalItems)
	assert.Equal(t, notify.State{Message: cart.MsgRemoved, Kind: notify.KindInfo, Visible: true}, s.Notification())
}

func TestCompareLimitSurfacesWarning(t *testing.T) {
	m, _ := newManager(t, &fakeCatalog{})
	s := m.Create(context.Background())
	for _, p := range products(5) {
		s.AddToCompare(p)
	}
	assert.Len(t, s.Compare(), compare.MaxItems)
	assert.False(t, s.InCompare(5))
	st := s.Notification()
	assert.Equal(t, compare.MsgLimit, st.Message)
	assert.Equal(t, notify.KindWarning, st.Kind)
}

func TestWishlistDuplicateNotice(t *testing.T) {
	m, _ := newManager(t, &fakeCatalog{})
	s := m.Create(context.Background())
	ctx := context.Background()
	p := products(1)[0]

	s.AddToWishlist(ctx, p)
	n := s.AddToWishlist(ctx, p)
	assert.Equal(t, notify.Info(wishlist.MsgPresent), n)
	assert.Len(t, s.Wishlist(), 1)
	assert.True(t, s.InWishlist(p.ID))
}

func TestCartAndWishlistSurviveRestart(t *testing.T) {
	src := &fakeCatalog{}
	m, mr := newManager(t, src)
	ctx := context.Background()
	s := m.Create(ctx)
	ps := products(3)
	s.AddToCart(ctx, ps[0])
	s.AddToCart(ctx, ps[0])
	s.AddToCart(ctx, ps[1])
	s.AddToWishlist(ctx, ps[2])
	s.AddToCompare(ps[2])
	require.True(t, mr.Exists(persist.Key(s.ID, persist.CartKey)))

	// A second manager over the same Redis plays the restarted process.
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	restarted := NewManager(Options{Catalog: src, Store: persist.NewRedisStore(rdb, 0), Logger: zap.NewNop()})
	defer restarted.Close()

	again, err := restarted.Get(ctx, s.ID)
	require.NoError(t, err)
	view := again.Cart()
	assert.Equal(t, 3, view.TotalItems)
	assert.True(t, view.TotalPrice.Equal(decimal.NewFromInt(40)))
	require.Len(t, again.Wishlist(), 1)
	assert.Equal(t, ps[2].ID, again.Wishlist()[0].ID)
	assert.Empty(t, again.Compare(), "compare set is session-only")
}

func TestGetRejectsMalformedID(t *testing.T) {
	m, _ := newManager(t, &fakeCatalog{})
	_, err := m.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestGetReturnsLiveSession(t *testing.T) {
	m, _ := newManager(t, &fakeCatalog{})
	ctx := context.Background()
	s := m.Create(ctx)
	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.Len())

	m.Drop(s.ID)
	assert.Equal(t, 0, m.Len())
}

func TestViewFiltersAndPages(t *testing.T) {
	m, _ := newManager(t, &fakeCatalog{products: products(30)})
	s := m.Create(context.Background())
	ctx := context.Background()

	v := s.View(ctx)
	assert.Equal(t, 30, v.TotalItems)
	assert.Equal(t, 3, v.TotalPages)
	assert.Len(t, v.Items, 12)
	assert.Equal(t, []string{"electronics", "jewelery"}, v.Categories)
	assert.Empty(t, v.SoftError)

	s.SetPage(3)
	assert.Len(t, s.View(ctx).Items, 6)

	s.ToggleCategory("jewelery", true)
	v = s.View(ctx)
	assert.Equal(t, 1, v.Number)
	assert.Equal(t, 15, v.TotalItems)
	assert.Equal(t, 1, v.ActiveFilters)

	s.SetCriteria(filters.Criteria{
		SearchQuery: "product 1",
		PriceRange:  filters.PriceRange{Min: decimal.NewFromInt(100), Max: decimal.NewFromInt(150)},
	})
	v = s.View(ctx)
	// Products 10 through 15 have prices 100..150; of those, 10..15 contain "product 1".
	assert.Equal(t, 6, v.TotalItems)

	s.Search("Product 2")
	s.ClearFilters()
	v = s.View(ctx)
	assert.Equal(t, 30, v.TotalItems)
	assert.Equal(t, []string{"Product 2"}, v.RecentSearches)
}

func TestRefreshFailureIsSoft(t *testing.T) {
	m, _ := newManager(t, &fakeCatalog{products: products(3), err: errors.New("upstream down")})
	s := m.Create(context.Background())

	v := s.View(context.Background())
	assert.Equal(t, SoftErrCatalog, v.SoftError)
	assert.Empty(t, v.Items)
	assert.Equal(t, 0, v.TotalItems)
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	src := &fakeCatalog{products: products(1), gate: make(chan chan struct{})}
	m, _ := newManager(t, src)
	s := m.Create(context.Background())
	ctx := context.Background()

	slowRelease := make(chan struct{})
	slowDone := make(chan bool)
	go func() { slowDone <- s.RefreshCatalog(ctx) }()
	src.gate <- slowRelease // the slow refresh is now parked

	src.mu.Lock()
	src.products = products(5)
	src.mu.Unlock()

	fastRelease := make(chan struct{})
	close(fastRelease)
	fastDone := make(chan bool)
	go func() { fastDone <- s.RefreshCatalog(ctx) }()
	src.gate <- fastRelease
	require.True(t, <-fastDone)

	src.mu.Lock()
	src.products = products(1)
	src.mu.Unlock()
	close(slowRelease)
	assert.False(t, <-slowDone, "older refresh must not be applied")

	src.mu.Lock()
	src.gate = nil
	src.mu.Unlock()
	assert.Equal(t, 5, s.View(ctx).TotalItems)
}

func TestRefreshAfterCloseIsIgnored(t *testing.T) {
	m, _ := newManager(t, &fakeCatalog{products: products(2)})
	s := m.Create(context.Background())
	s.Close()
	assert.False(t, s.RefreshCatalog(context.Background()))
}

func TestProductAndRelated(t *testing.T) {
	m, _ := newManager(t, &fakeCatalog{products: products(12)})
	s := m.Create(context.Background())
	ctx := context.Background()

	p, found := s.Product(ctx, 3)
	require.True(t, found)
	assert.Equal(t, "Product 3", p.Title)

	_, found = s.Product(ctx, 99)
	assert.False(t, found)

	related := s.Related(ctx, 3)
	require.Len(t, related, 4)
	for _, r := range related {
		assert.Equal(t, "electronics", r.Category)
		assert.NotEqual(t, 3, r.ID)
	}
	assert.Empty(t, s.Related(ctx, 99))
}

func TestPromoAppliedToSummary(t *testing.T) {
	m, mr := newManager(t, &fakeCatalog{})
	s := m.Create(context.Background())
	ctx := context.Background()
	s.AddToCart(ctx, model.Product{ID: 1, Price: decimal.NewFromInt(200)})
	assert.True(t, mr.Exists(persist.Key(s.ID, persist.CartKey)))

	assert.False(t, s.ApplyPromo("nope"))
	assert.True(t, s.ApplyPromo("save10"))
	sum := s.Cart().Summary
	assert.True(t, sum.PromoApplied)
	assert.True(t, sum.Discount.Equal(decimal.NewFromInt(20)))

	s.ClearCart(ctx)
	assert.False(t, s.Cart().Summary.PromoApplied)
	assert.False(t, mr.Exists(persist.Key(s.ID, persist.CartKey)))
}

type recordingSink struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingSink) Notify(sessionID string, st notify.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, sessionID+":"+st.Message)
}

func TestSinkReceivesVisibleNotifications(t *testing.T) {
	sink := &recordingSink{}
	m := NewManager(Options{Catalog: &fakeCatalog{}, Sink: sink, NotificationTTL: time.Minute})
	defer m.Close()
	s := m.Create(context.Background())

	s.AddToCompare(model.Product{ID: 1})
	s.DismissNotification()
	s.ClearCompare()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []string{s.ID + ":" + compare.MsgAdded, s.ID + ":" + compare.MsgCleared}, sink.seen)
}

func TestViewRetriesAfterFailedLoad(t *testing.T) {
	src := &fakeCatalog{products: products(3), err: errors.New("upstream down")}
	m, _ := newManager(t, src)
	s := m.Create(context.Background())
	ctx := context.Background()

	v := s.View(ctx)
	require.Equal(t, SoftErrCatalog, v.SoftError)
	assert.Equal(t, 0, v.TotalItems)

	src.mu.Lock()
	src.err = nil
	src.mu.Unlock()

	v = s.View(ctx)
	assert.Empty(t, v.SoftError)
	assert.Equal(t, 3, v.TotalItems)
}

func TestCancelledFirstViewStillLoadsCatalog(t *testing.T) {
	src := &fakeCatalog{products: products(2), gate: make(chan chan struct{})}
	m, _ := newManager(t, src)
	s := m.Create(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan CatalogView)
	go func() { done <- s.View(ctx) }()
	cancel()

	release := make(chan struct{})
	close(release)
	src.gate <- release
	first := <-done
	assert.Empty(t, first.SoftError)
	assert.Equal(t, 2, first.TotalItems)

	src.mu.Lock()
	src.gate = nil
	src.mu.Unlock()
	assert.Equal(t, 2, s.View(context.Background()).TotalItems)
}

func TestCatalogReloadedAfterTTL(t *testing.T) {
	src := &fakeCatalog{products: products(2)}
	m, _ := newManagerWith(t, Options{Catalog: src, CatalogTTL: 20 * time.Millisecond})
	s := m.Create(context.Background())
	ctx := context.Background()

	require.Equal(t, 2, s.View(ctx).TotalItems)
	src.mu.Lock()
	src.products = products(5)
	src.mu.Unlock()
	assert.Equal(t, 2, s.View(ctx).TotalItems, "fresh catalog is reused")

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 5, s.View(ctx).TotalItems)
}

func TestInvalidateReloadsLiveSessions(t *testing.T) {
	src := &fakeCatalog{products: products(2)}
	m, _ := newManager(t, src)
	ctx := context.Background()
	a, b := m.Create(ctx), m.Create(ctx)
	require.Equal(t, 2, a.View(ctx).TotalItems)
	require.Equal(t, 2, b.View(ctx).TotalItems)

	src.mu.Lock()
	src.products = products(4)
	src.mu.Unlock()
	assert.Equal(t, 2, a.View(ctx).TotalItems)

	require.NoError(t, m.Invalidate(ctx))
	assert.Equal(t, 4, a.View(ctx).TotalItems)
	assert.Equal(t, 4, b.View(ctx).TotalItems)
}

func TestIdleSessionEvictedAndRehydrated(t *testing.T) {
	m, _ := newManagerWith(t, Options{Catalog: &fakeCatalog{}, IdleTimeout: time.Hour})
	ctx := context.Background()
	s := m.Create(ctx)
	s.AddToCart(ctx, model.Product{ID: 7, Title: "x", Price: decimal.NewFromInt(5), Category: "c"})

	assert.Equal(t, 0, m.evictIdle(time.Now()), "recently used session is kept")
	assert.Equal(t, 1, m.evictIdle(time.Now().Add(2*time.Hour)))
	assert.Equal(t, 0, m.Len())

	again, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.NotSame(t, s, again)
	assert.Equal(t, 1, again.Cart().TotalItems)
}

func TestSweeperEvictsIdleSessions(t *testing.T) {
	m, _ := newManagerWith(t, Options{Catalog: &fakeCatalog{}, IdleTimeout: 20 * time.Millisecond})
	ctx := context.Background()
	s := m.Create(ctx)
	s.AddToWishlist(ctx, model.Product{ID: 3, Title: "w", Price: decimal.NewFromInt(1), Category: "c"})

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)

	again, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, again.InWishlist(3))
}
