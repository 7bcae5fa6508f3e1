package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront-backend/internal/model"
)

// HTTPClient talks to a Fake Store API shaped upstream. Every failure is
// returned to the caller; substituting fallback data is Fallback's job.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewHTTPClient builds a client for baseURL with a per-request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		validate:   model.NewValidator(),
		logger:     logger,
	}
}

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog upstream %s: status %d: %s", e.Path, e.Status, e.Body)
}

// ListProducts fetches the full product list; invalid entries are dropped.
func (c *HTTPClient) ListProducts(ctx context.Context) ([]model.Product, error) {
	body, err := c.get(ctx, "/products")
	if err != nil {
		return nil, err
	}
	var products []model.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return sanitize(c.validate, c.logger, products), nil
}

// GetProduct treats a 404 and an empty or null body as not found; the Fake
// Store API answers unknown ids with 200 and no content.
func (c *HTTPClient) GetProduct(ctx context.Context, id int) (model.Product, bool, error) {
	body, err := c.get(ctx, "/products/"+strconv.Itoa(id))
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return model.Product{}, false, nil
		}
		return model.Product{}, false, err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return model.Product{}, false, nil
	}
	var p model.Product
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return model.Product{}, false, fmt.Errorf("decode product %d: %w", id, err)
	}
	if err := c.validate.Struct(p); err != nil {
		return model.Product{}, false, fmt.Errorf("invalid product %d: %w", id, err)
	}
	return p, true, nil
}

// ListByCategory filters the full product list, matching the category label
// exactly.
func (c *HTTPClient) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	products, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return byCategory(products, category), nil
}

// ListCategories fetches the category names.
func (c *HTTPClient) ListCategories(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/products/categories")
	if err != nil {
		return nil, err
	}
	var categories []string
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

// HealthCheck verifies the upstream answers the category listing.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	_, err := c.get(ctx, "/products/categories")
	return err
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog upstream %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	c.logger.Debug("catalog upstream request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Path: path, Status: resp.StatusCode, Body: truncate(string(body), 256)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
