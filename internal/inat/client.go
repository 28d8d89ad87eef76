package inat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	collyfetcher "github.com/JakeFAU/inat-harvester/internal/fetcher/colly"
	"github.com/JakeFAU/inat-harvester/internal/harvest"
	"github.com/JakeFAU/inat-harvester/internal/logging"
	"github.com/JakeFAU/inat-harvester/internal/metrics"
)

// DefaultBaseURL is the public v1 API root.
const DefaultBaseURL = "https://api.inaturalist.org/v1"

// ErrNotFound is returned when a taxon or place search yields no usable match.
var ErrNotFound = errors.New("not found")

// ErrThrottled marks requests the API rejected with 429 Too Many Requests.
var ErrThrottled = errors.New("throttled by api")

// Waiter paces API calls. Wait blocks before a call; Done marks its end.
type Waiter interface {
	Wait(ctx context.Context) error
	Done()
}

// Config wires a Client.
type Config struct {
	BaseURL string
	Fetcher harvest.Fetcher
	Limiter Waiter
	Logger  *zap.Logger
}

// Client issues rate-limited GET requests against the API.
type Client struct {
	baseURL string
	fetcher harvest.Fetcher
	limiter Waiter
	lookups *cache.Cache
	logger  *zap.Logger
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("inat client requires a fetcher")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	return &Client{
		baseURL: baseURL,
		fetcher: cfg.Fetcher,
		limiter: cfg.Limiter,
		// Name lookups are memoized for the lifetime of the run.
		lookups: cache.New(cache.NoExpiration, 0),
		logger:  logging.OrNop(cfg.Logger),
	}, nil
}

func (c *Client) endpointURL(endpoint string, params url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// getJSON waits for the limiter, fetches endpoint and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	target := c.endpointURL(endpoint, params)
	start := time.Now()
	resp, err := c.fetcher.Fetch(ctx, harvest.FetchRequest{
		URL:     target,
		Headers: http.Header{"Accept": {"application/json"}},
	})
	if c.limiter != nil {
		c.limiter.Done()
	}
	if collyfetcher.IsStatus(err, http.StatusTooManyRequests) {
		metrics.ObserveAPIRequest(endpoint, "throttled", time.Since(start))
		c.logger.Warn("api throttled request", zap.String("endpoint", endpoint))
		return fmt.Errorf("request %s: %w: %w", endpoint, ErrThrottled, err)
	}
	if err != nil {
		metrics.ObserveAPIRequest(endpoint, "error", time.Since(start))
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	if resp.StatusCode != 0 && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		metrics.ObserveAPIRequest(endpoint, "error", time.Since(start))
		return fmt.Errorf("GET %s: unexpected status %d", target, resp.StatusCode)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		metrics.ObserveAPIRequest(endpoint, "decode_error", time.Since(start))
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	metrics.ObserveAPIRequest(endpoint, "ok", time.Since(start))
	return nil
}
