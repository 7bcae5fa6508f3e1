package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront-backend/internal/filters"
	"storefront-backend/internal/notify"
	"storefront-backend/internal/session"
)

type sessionKey struct{}

func sessionFrom(ctx context.Context) *session.Session {
	return ctx.Value(sessionKey{}).(*session.Session)
}

type productRequest struct {
	ProductID int `json:"product_id" validate:"gt=0"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type promoRequest struct {
	Code string `json:"code" validate:"required"`
}

type searchRequest struct {
	Query string `json:"query" validate:"max=200"`
}

type priceRangeRequest struct {
	Min decimal.Decimal `json:"min" validate:"gte=0"`
	Max decimal.Decimal `json:"max" validate:"gte=0"`
}

type filtersRequest struct {
	SearchQuery        string             `json:"search_query" validate:"max=200"`
	SelectedCategories []string           `json:"selected_categories"`
	PriceRange         *priceRangeRequest `json:"price_range"`
}

// mutationResponse pairs the notice raised by an intent with the state it
// produced.
type mutationResponse struct {
	Notice *notify.Notice `json:"notice,omitempty"`
	State  any            `json:"state"`
}

func mutation(n notify.Notice, state any) mutationResponse {
	resp := mutationResponse{State: state}
	if !n.IsZero() {
		resp.Notice = &n
	}
	return resp
}

func (s *Server) registerSessionRoutes(r *mux.Router) {
	r.Use(s.withSession)

	r.HandleFunc("/catalog", s.catalogHandler).Methods(http.MethodGet)
	r.HandleFunc("/filters", s.setFiltersHandler).Methods(http.MethodPut)
	r.HandleFunc("/filters", s.clearFiltersHandler).Methods(http.MethodDelete)
	r.HandleFunc("/search", s.searchHandler).Methods(http.MethodPost)

	r.HandleFunc("/cart", s.cartHandler).Methods(http.MethodGet)
	r.HandleFunc("/cart", s.clearCartHandler).Methods(http.MethodDelete)
	r.HandleFunc("/cart/items", s.addToCartHandler).Methods(http.MethodPost)
	r.HandleFunc("/cart/items/{id:[0-9]+}", s.setCartQuantityHandler).Methods(http.MethodPut)
	r.HandleFunc("/cart/items/{id:[0-9]+}", s.removeFromCartHandler).Methods(http.MethodDelete)
	r.HandleFunc("/cart/promo", s.applyPromoHandler).Methods(http.MethodPost)

	r.HandleFunc("/wishlist", s.wishlistHandler).Methods(http.MethodGet)
	r.HandleFunc("/wishlist/items", s.addToWishlistHandler).Methods(http.MethodPost)
	r.HandleFunc("/wishlist/items/{id:[0-9]+}", s.removeFromWishlistHandler).Methods(http.MethodDelete)

	r.HandleFunc("/compare", s.compareHandler).Methods(http.MethodGet)
	r.HandleFunc("/compare", s.clearCompareHandler).Methods(http.MethodDelete)
	r.HandleFunc("/compare/items", s.addToCompareHandler).Methods(http.MethodPost)
	r.HandleFunc("/compare/items/{id:[0-9]+}", s.removeFromCompareHandler).Methods(http.MethodDelete)

	r.HandleFunc("/notification", s.notificationHandler).Methods(http.MethodGet)
	r.HandleFunc("/notification", s.dismissNotificationHandler).Methods(http.MethodDelete)

	r.HandleFunc("/products/{id:[0-9]+}/related", s.relatedHandler).Methods(http.MethodGet)
}

func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Get(r.Context(), mux.Vars(r)["sid"])
		if errors.Is(err, session.ErrInvalidID) {
			writeError(w, http.StatusBadRequest, "invalid session id")
			return
		}
		if err != nil {
			s.logger.Error("session lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "session unavailable")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create(r.Context())
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID})
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func (s *Server) catalogHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		sess.SetPage(page)
	}
	writeJSON(w, http.StatusOK, sess.View(r.Context()))
}

func (s *Server) setFiltersHandler(w http.ResponseWriter, r *http.Request) {
	var req filtersRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c := filters.Criteria{
		SearchQuery:        req.SearchQuery,
		SelectedCategories: req.SelectedCategories,
		PriceRange:         filters.DefaultPriceRange(),
	}
	if req.PriceRange != nil {
		c.PriceRange = filters.PriceRange{Min: req.PriceRange.Min, Max: req.PriceRange.Max}
	}
	sess := sessionFrom(r.Context())
	sess.SetCriteria(c)
	writeJSON(w, http.StatusOK, sess.View(r.Context()))
}

func (s *Server) clearFiltersHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.ClearFilters()
	writeJSON(w, http.StatusOK, sess.View(r.Context()))
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := sessionFrom(r.Context())
	sess.Search(req.Query)
	writeJSON(w, http.StatusOK, sess.View(r.Context()))
}

func (s *Server) cartHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Cart())
}

func (s *Server) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req productRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, found := sess.Product(r.Context(), req.ProductID)
	if !found {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	n := sess.AddToCart(r.Context(), p)
	writeJSON(w, http.StatusOK, mutation(n, sess.Cart()))
}

func (s *Server) setCartQuantityHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req quantityRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n := sess.SetCartQuantity(r.Context(), pathID(r), *req.Quantity)
	writeJSON(w, http.StatusOK, mutation(n, sess.Cart()))
}

func (s *Server) removeFromCartHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	n := sess.RemoveFromCart(r.Context(), pathID(r))
	writeJSON(w, http.StatusOK, mutation(n, sess.Cart()))
}

func (s *Server) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	n := sess.ClearCart(r.Context())
	writeJSON(w, http.StatusOK, mutation(n, sess.Cart()))
}

func (s *Server) applyPromoHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req promoRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !sess.ApplyPromo(req.Code) {
		writeError(w, http.StatusUnprocessableEntity, "invalid promo code")
		return
	}
	writeJSON(w, http.StatusOK, sess.Cart())
}

func (s *Server) wishlistHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Wishlist())
}

func (s *Server) addToWishlistHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req productRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, found := sess.Product(r.Context(), req.ProductID)
	if !found {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	n := sess.AddToWishlist(r.Context(), p)
	writeJSON(w, http.StatusOK, mutation(n, sess.Wishlist()))
}

func (s *Server) removeFromWishlistHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	n := sess.RemoveFromWishlist(r.Context(), pathID(r))
	writeJSON(w, http.StatusOK, mutation(n, sess.Wishlist()))
}

func (s *Server) compareHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Compare())
}

func (s *Server) addToCompareHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	var req productRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, found := sess.Product(r.Context(), req.ProductID)
	if !found {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	n := sess.AddToCompare(p)
	writeJSON(w, http.StatusOK, mutation(n, sess.Compare()))
}

func (s *Server) removeFromCompareHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	n := sess.RemoveFromCompare(pathID(r))
	writeJSON(w, http.StatusOK, mutation(n, sess.Compare()))
}

func (s *Server) clearCompareHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	n := sess.ClearCompare()
	writeJSON(w, http.StatusOK, mutation(n, sess.Compare()))
}

func (s *Server) notificationHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Notification())
}

func (s *Server) dismissNotificationHandler(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.DismissNotification()
	writeJSON(w, http.StatusOK, sess.Notification())
}

func (s *Server) relatedHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()).Related(r.Context(), pathID(r)))
}
