// Package httpapi exposes the catalog and per-session storefront state over
// HTTP.
package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"storefront-backend/internal/catalog"
	"storefront-backend/internal/model"
	"storefront-backend/internal/session"
)

// Server serves the catalog proxy and per-session storefront routes.
type Server struct {
	catalog  catalog.Source
	sessions *session.Manager
	validate *validator.Validate
	logger   *zap.Logger
}

// NewServer returns a Server reading products from src.
func NewServer(src catalog.Source, sessions *session.Manager, logger *zap.Logger) *Server {
	return &Server{
		catalog:  src,
		sessions: sessions,
		validate: model.NewValidator(),
		logger:   logger,
	}
}

// Router builds the full route table with middleware applied.
func (s *Server) Router() *mux.Router {
	// gorilla/mux: middleware runs in order on every matched route.
	r := mux.NewRouter()
	r.Use(requestID, accessLog(s.logger), compress, recoverer(s.logger))

	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", s.listProductsHandler).Methods(http.MethodGet)
	api.HandleFunc("/products/categories", s.listCategoriesHandler).Methods(http.MethodGet)
	api.HandleFunc("/products/category/{category}", s.listByCategoryHandler).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", s.getProductHandler).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.listCategoriesHandler).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.createSessionHandler).Methods(http.MethodPost)

	s.registerSessionRoutes(api.PathPrefix("/sessions/{sid}").Subrouter())

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.ListProducts(r.Context())
	if err != nil {
		s.logger.Error("list products failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, found, err := s.catalog.GetProduct(r.Context(), id)
	if err != nil {
		s.logger.Error("get product failed", zap.Int("product_id", id), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to fetch product")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	products, err := s.catalog.ListByCategory(r.Context(), category)
	if err != nil {
		s.logger.Error("list by category failed", zap.String("category", category), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		s.logger.Error("list categories failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to fetch categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}
