// Package session coordinates one shopper's storefront state: it applies
// intents to the cart, wishlist, compare and filter holders, routes the
// resulting notices to the notification channel and persists the durable
// collections.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront-backend/internal/cart"
	"storefront-backend/internal/catalog"
	"storefront-backend/internal/compare"
	"storefront-backend/internal/filters"
	"storefront-backend/internal/model"
	"storefront-backend/internal/notify"
	"storefront-backend/internal/persist"
	"storefront-backend/internal/wishlist"
)

// SoftErrCatalog is surfaced when catalog data could not be loaded.
const SoftErrCatalog = "catalog temporarily unavailable"

// catalogFetchTimeout bounds a catalog load that no longer follows the
// cancellation of the request that triggered it.
const catalogFetchTimeout = 30 * time.Second

type cartSnapshot struct {
	Items []model.CartEntry `json:"items"`
}

type wishlistSnapshot struct {
	Items []model.Product `json:"items"`
}

// Session is safe for concurrent use; all state changes are serialized so
// each intent is applied atomically.
type Session struct {
	ID string

	catalog    catalog.Source
	catalogTTL time.Duration
	store      persist.Store
	logger     *zap.Logger
	notes      *notify.Channel

	// lastUsed is the unix-nano time of the last Manager lookup.
	lastUsed atomic.Int64

	mu         sync.Mutex
	cart       *cart.Ledger
	wishlist   *wishlist.Set
	compare    *compare.Set
	filters    *filters.State
	promo      bool
	products   []model.Product
	categories []string
	loaded     bool
	loadedAt   time.Time
	stale      bool
	softErr    string
	token      uint64
	closed     bool
}

func newSession(id string, opts Options, notes *notify.Channel) *Session {
	s := &Session{
		ID:         id,
		catalog:    opts.Catalog,
		catalogTTL: opts.CatalogTTL,
		store:      opts.Store,
		logger:     opts.Logger.With(zap.String("session_id", id)),
		notes:      notes,
		cart:       cart.NewLedger(),
		wishlist:   wishlist.New(),
		compare:    compare.New(),
		filters:    filters.NewState(),
	}
	s.touch(time.Now())
	return s
}

func (s *Session) touch(now time.Time) { s.lastUsed.Store(now.UnixNano()) }

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastUsed.Load()))
}

// hydrate restores the durable collections. Unreadable snapshots are logged
// and the session starts empty.
func (s *Session) hydrate(ctx context.Context) {
	if s.store == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var cs cartSnapshot
	if ok, err := s.store.Load(ctx, s.ID, persist.CartKey, &cs); err != nil {
		s.logger.Warn("session: cart snapshot unreadable", zap.Error(err))
	} else if ok {
		s.cart.Restore(cs.Items)
	}
	var ws wishlistSnapshot
	if ok, err := s.store.Load(ctx, s.ID, persist.WishlistKey, &ws); err != nil {
		s.logger.Warn("session: wishlist snapshot unreadable", zap.Error(err))
	} else if ok {
		s.wishlist.Restore(ws.Items)
	}
}

// dispatch must be called with mu held.
func (s *Session) dispatch(n notify.Notice) notify.Notice {
	s.notes.Dispatch(n)
	return n
}

func (s *Session) saveCart(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.ID, persist.CartKey, cartSnapshot{Items: s.cart.Entries()}); err != nil {
		s.logger.Warn("session: cart not persisted", zap.Error(err))
	}
}

func (s *Session) saveWishlist(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.ID, persist.WishlistKey, wishlistSnapshot{Items: s.wishlist.Items()}); err != nil {
		s.logger.Warn("session: wishlist not persisted", zap.Error(err))
	}
}

// CartView is the cart as presented to the shopper.
type CartView struct {
	Items      []model.CartEntry `json:"items"`
	TotalItems int               `json:"total_items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	Summary    cart.Summary      `json:"summary"`
}

// AddToCart adds one unit of p and persists the cart.
func (s *Session) AddToCart(ctx context.Context, p model.Product) notify.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.cart.Add(p)
	s.saveCart(ctx)
	return s.dispatch(n)
}

// RemoveFromCart drops the entry for id; an absent id raises no notice.
func (s *Session) RemoveFromCart(ctx context.Context, id int) notify.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.cart.Remove(id)
	if !n.IsZero() {
		s.saveCart(ctx)
	}
	return s.dispatch(n)
}

// SetCartQuantity overwrites a quantity; quantity <= 0 removes the entry.
func (s *Session) SetCartQuantity(ctx context.Context, id, quantity int) notify.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.cart.SetQuantity(id, quantity)
	s.saveCart(ctx)
	return s.dispatch(n)
}

// ClearCart empties the cart, drops its snapshot and resets the promo code.
func (s *Session) ClearCart(ctx context.Context) notify.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.cart.Clear()
	s.promo = false
	if s.store != nil {
		if err := s.store.Delete(ctx, s.ID, persist.CartKey); err != nil {
			s.logger.Warn("session: cart snapshot not deleted", zap.Error(err))
		}
	}
	return s.dispatch(n)
}

// ApplyPromo enables the promotional discount when code is valid.
func (s *Session) ApplyPromo(code string) bool {
	if !cart.PromoCodeValid(code) {
		return false
	}
	s.mu.Lock()
	s.promo = true
	s.mu.Unlock()
	return true
}

// Cart returns the cart contents with totals and the order summary.
func (s *Session) Cart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := s.cart.TotalPrice()
	return CartView{
		Items:      s.cart.Entries(),
		TotalItems: s.cart.TotalItems(),
		TotalPrice: total,
		Summary:    cart.Summarize(total, s.promo),
	}
}

// AddToWishlist adds p unless it is already present and persists the wishlist.
func (s *Session) AddToWishlist(ctx context.Context, p model.Product) notify.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.wishlist.Len()
	n := s.wishlist.Add(p)
	if s.wishlist.Len() != before {
		s.saveWishlist(ctx)
	}
	return s.dispatch(n)
}

// RemoveFromWishlist drops id from the wishlist.
func (s *Session) RemoveFromWishlist(ctx context.Context, id int) notify.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.wishlist.Remove(id)
	if !n.IsZero() {
		s.saveWishlist(ctx)
	}
	return s.dispatch(n)
}

func (s *Session) InWishlist(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Contains(id)
}

// Wishlist lists wished products in insertion order.
func (s *Session) Wishlist() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Items()
}

// AddToCompare adds p while fewer than compare.MaxItems are held.
func (s *Session) AddToCompare(p model.Product) notify.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(s.compare.Add(p))
}

func (s *Session) RemoveFromCompare(id int) notify.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(s.compare.Remove(id))
}

// ClearCompare empties the compare set. It is not persisted.
func (s *Session) ClearCompare() notify.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(s.compare.Clear())
}

func (s *Session) InCompare(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compare.Contains(id)
}

// Compare lists compared products in insertion order.
func (s *Session) Compare() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compare.Items()
}

// Notification returns the current notification slot.
func (s *Session) Notification() notify.State { return s.notes.Current() }

// DismissNotification hides the notification before it expires.
func (s *Session) DismissNotification() { s.notes.Hide() }

// Close tears the session down. Catalog fetches still in flight are
// discarded when they complete.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.token++
	s.mu.Unlock()
	s.notes.Close()
}

// RefreshCatalog loads products and categories concurrently. The result is
// applied only if no newer refresh was issued meanwhile; it reports whether
// it was applied. A failed load leaves an empty catalog and a soft error,
// and the next View tries again.
func (s *Session) RefreshCatalog(ctx context.Context) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.token++
	token := s.token
	s.mu.Unlock()

	var (
		products   []model.Product
		categories []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.catalog.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.catalog.ListCategories(gctx)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		s.logger.Debug("session: discarding stale catalog result", zap.Uint64("token", token), zap.Uint64("latest", s.token))
		return false
	}
	s.loaded = true
	if err != nil {
		s.logger.Warn("session: catalog load failed", zap.Error(err))
		s.products, s.categories = nil, nil
		s.softErr = SoftErrCatalog
		return true
	}
	s.products, s.categories = products, categories
	s.loadedAt = time.Now()
	s.stale = false
	s.softErr = ""
	return true
}

// MarkCatalogStale makes the next View reload the catalog.
func (s *Session) MarkCatalogStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// ensureCatalog reloads the catalog when none was loaded yet, the last load
// failed, it was marked stale or it is older than the catalog TTL. The load
// is detached from ctx's cancellation, so a caller that goes away mid-fetch
// does not leave the session with a failed catalog.
func (s *Session) ensureCatalog(ctx context.Context) {
	s.mu.Lock()
	need := !s.loaded || s.softErr != "" || s.stale ||
		(s.catalogTTL > 0 && time.Since(s.loadedAt) > s.catalogTTL)
	s.mu.Unlock()
	if !need {
		return
	}
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), catalogFetchTimeout)
	defer cancel()
	s.RefreshCatalog(fetchCtx)
}

// Product resolves id from the loaded catalog, asking the catalog source
// when it is not there. Source failures are reported as not found.
func (s *Session) Product(ctx context.Context, id int) (model.Product, bool) {
	s.mu.Lock()
	for _, p := range s.products {
		if p.ID == id {
			s.mu.Unlock()
			return p, true
		}
	}
	s.mu.Unlock()

	p, found, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		s.logger.Warn("session: product lookup failed", zap.Int("product_id", id), zap.Error(err))
		return model.Product{}, false
	}
	return p, found
}

// Related lists up to four products sharing the category of product id.
func (s *Session) Related(ctx context.Context, id int) []model.Product {
	p, found := s.Product(ctx, id)
	if !found {
		return []model.Product{}
	}
	same, err := s.catalog.ListByCategory(ctx, p.Category)
	if err != nil {
		s.logger.Warn("session: related lookup failed", zap.Int("product_id", id), zap.Error(err))
		return []model.Product{}
	}
	return filters.Related(same, id, 4)
}
