// Package catalog fetches product metadata from a DummyJSON compatible
// products endpoint and turns it into a sales.Lookup.
//
// Failures never surface as errors: an unreachable service, a bad status or
// an undecodable body all produce an empty product list, which leaves every
// transaction unmatched.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/robinvdvleuten/salesreport/logger"
	"github.com/robinvdvleuten/salesreport/sales"
	"github.com/robinvdvleuten/salesreport/telemetry"
)

const (
	// DefaultBaseURL is the public DummyJSON products endpoint.
	DefaultBaseURL = "https://dummyjson.com/products"

	// MaxLimit caps the number of products requested.
	MaxLimit = 100

	DefaultTimeout = 100 * time.Second
)

// Product is a single catalog entry. Optional fields are nil when the
// service omits them.
type Product struct {
	ID       *int     `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Brand    string   `json:"brand"`
	Price    *float64 `json:"price"`
	Rating   float64  `json:"rating"`
}

type productsResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// Client fetches products over HTTP.
type Client struct {
	baseURL    string
	limit      int
	retries    int
	backoff    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another products endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithLimit sets how many products to request. Values outside 1..MaxLimit
// are clamped.
func WithLimit(limit int) Option {
	return func(c *Client) {
		c.limit = limit
	}
}

// WithTimeout sets the overall request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries retries failed requests and 5xx responses up to n more times
// with exponential backoff.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.retries = n
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		limit:      MaxLimit,
		backoff:    200 * time.Millisecond,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limit <= 0 || c.limit > MaxLimit {
		c.limit = MaxLimit
	}
	return c
}

// FetchAll requests up to the configured limit of products. It returns an
// empty slice on any failure.
func (c *Client) FetchAll(ctx context.Context) []Product {
	_, timer := telemetry.StartTimer(ctx, "catalog fetch")
	defer timer.End()

	log := logger.FromContext(ctx)

	products, err := c.fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Str("url", c.baseURL).Msg("could not fetch products")
		return []Product{}
	}

	log.Info().Int("products", len(products)).Msg("fetched products")
	timer.Count(len(products))
	return products
}

func (c *Client) fetch(ctx context.Context) ([]Product, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog url: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(c.limit))
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			logger.FromContext(ctx).Debug().Int("attempt", attempt+1).Err(lastErr).Msg("retrying catalog request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<(attempt-1)) * c.backoff):
			}
		}

		products, retry, err := c.get(ctx, u.String())
		if err == nil {
			return products, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return nil, lastErr
}

// get performs one request. retry reports whether a later attempt could
// succeed.
func (c *Client) get(ctx context.Context, u string) (products []Product, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode >= 500, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload productsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("failed to decode products: %w", err)
	}
	if payload.Products == nil {
		payload.Products = []Product{}
	}
	if len(payload.Products) > c.limit {
		payload.Products = payload.Products[:c.limit]
	}
	return payload.Products, false, nil
}

// Mapping builds a lookup keyed by product id. Products without an id are
// skipped; a later product replaces an earlier one with the same id.
func Mapping(products []Product) sales.Lookup {
	lookup := make(sales.Lookup, len(products))
	for _, p := range products {
		if p.ID == nil {
			continue
		}
		lookup[*p.ID] = sales.ProductInfo{
			Title:    p.Title,
			Category: p.Category,
			Brand:    p.Brand,
			Rating:   p.Rating,
		}
	}
	return lookup
}

// Fetcher is implemented by anything that can supply catalog products.
type Fetcher interface {
	FetchAll(ctx context.Context) []Product
}

// Static is a Fetcher that always returns the same products.
type Static []Product

func (s Static) FetchAll(context.Context) []Product {
	return s
}

// Load fetches products and builds their lookup in one step.
func Load(ctx context.Context, f Fetcher) sales.Lookup {
	if f == nil {
		return sales.Lookup{}
	}
	return Mapping(f.FetchAll(ctx))
}
