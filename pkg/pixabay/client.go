// Package pixabay provides the image search client used by the gallery.
// Each Fetch issues exactly one request; failures are classified but never retried.
package pixabay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/pixabay-gallery/pkg/logging"
	"github.com/Sternrassler/pixabay-gallery/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for Pixabay client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixabay_requests_total",
		Help: "Total Pixabay search requests by outcome status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pixabay_request_duration_seconds",
		Help:    "Pixabay search request duration in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixabay_errors_total",
		Help: "Total Pixabay errors by class",
	}, []string{"class"})
)

// Page size bounds accepted by the Pixabay API.
const (
	MinPageSize = 3
	MaxPageSize = 200
)

// DefaultBaseURL is the Pixabay image search endpoint.
const DefaultBaseURL = "https://pixabay.com/api/"

// maxErrorBody bounds how much of a failure body ends up in ServiceError.Message.
const maxErrorBody = 512

// Limiter gates outbound requests on the remaining API quota.
// *ratelimit.Tracker implements it.
type Limiter interface {
	ShouldAllowRequest(ctx context.Context) (bool, error)
	UpdateFromHeaders(ctx context.Context, headers http.Header) error
}

// Config holds the client configuration.
type Config struct {
	// APIKey is the Pixabay API key (REQUIRED).
	APIKey string

	// BaseURL of the search endpoint.
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Search filters sent with every request.
	ImageType   string
	Orientation string
	SafeSearch  bool

	// Timeout for a single request.
	Timeout time.Duration

	// Limiter gates requests. Nil uses an in-memory tracker.
	Limiter Limiter
}

// DefaultConfig returns the configuration used by the gallery.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:      apiKey,
		BaseURL:     DefaultBaseURL,
		UserAgent:   "pixabay-gallery/0.1.0",
		ImageType:   "photo",
		Orientation: "horizontal",
		SafeSearch:  true,
		Timeout:     30 * time.Second,
	}
}

// Client fetches pages of image search results.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	limiter    Limiter
	config     Config
	logger     zerolog.Logger
}

// New creates a new Pixabay client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := logging.NewLogger(logging.ComponentPixabay)

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.NewTracker(ratelimit.NewMemoryStore(), logging.NewLogger(logging.ComponentRateLimit))
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    base,
		limiter:    limiter,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Fetch requests one page of results for query. page is 1-based.
//
// Errors are *NetworkError when no response was received, *ServiceError when
// Pixabay answered with a failure status, ErrRateLimited when the quota
// tracker refused the request and ErrInvalidRequest for bad arguments.
func (c *Client) Fetch(ctx context.Context, query string, page, pageSize int) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidRequest)
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1 (got %d)", ErrInvalidRequest, page)
	}
	if pageSize < MinPageSize || pageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: page size must be within [%d, %d] (got %d)", ErrInvalidRequest, MinPageSize, MaxPageSize, pageSize)
	}

	start := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(start).Seconds())
	}()

	allowed, err := c.limiter.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().Str("query", query).Int("page", page).Msg("Request blocked by rate limiter")
		requestsTotal.WithLabelValues("rate_limited").Inc()
		errorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
		return nil, ErrRateLimited
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query, page, pageSize), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("query", query).
		Int("page", page).
		Int("per_page", pageSize).
		Msg("Executing Pixabay request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("query", query).Int("page", page).Msg("HTTP request failed")
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues("network_error").Inc()
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if err := c.limiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		svcErr := &ServiceError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    strings.TrimSpace(string(body)),
		}
		errorsTotal.WithLabelValues(string(svcErr.Class())).Inc()
		c.logger.Error().
			Str("query", query).
			Int("page", page).
			Int("status", resp.StatusCode).
			Str("error_class", string(svcErr.Class())).
			Msg("Pixabay request error")
		return nil, svcErr
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		errorsTotal.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	result := &Result{
		Images:    make([]Image, len(data.Hits)),
		Total:     data.Total,
		TotalHits: data.TotalHits,
	}
	for i, h := range data.Hits {
		result.Images[i] = h.image()
	}

	c.logger.Debug().
		Str("query", query).
		Int("page", page).
		Int("hits", len(result.Images)).
		Int("total_hits", result.TotalHits).
		Msg("Pixabay request completed")

	return result, nil
}

// searchURL builds the request URL for one page.
func (c *Client) searchURL(query string, page, pageSize int) string {
	u := *c.baseURL
	q := u.Query()
	q.Set("key", c.config.APIKey)
	q.Set("q", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(pageSize))
	if c.config.ImageType != "" {
		q.Set("image_type", c.config.ImageType)
	}
	if c.config.Orientation != "" {
		q.Set("orientation", c.config.Orientation)
	}
	q.Set("safesearch", strconv.FormatBool(c.config.SafeSearch))
	u.RawQuery = q.Encode()
	return u.String()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
