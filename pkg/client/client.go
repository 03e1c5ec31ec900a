// Package client provides the listings API HTTP client with quota tracking,
// caching, retries, and circuit breaking.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/stayseek/listings-client/pkg/cache"
	"github.com/stayseek/listings-client/pkg/ratelimit"
)

// Client is the listings API client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	redis      *redis.Client
	quota      *ratelimit.Tracker
	cache      *cache.Manager
	breaker    *gobreaker.CircuitBreaker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Redis client for caching and shared quota state
	Redis *redis.Client

	// BaseURL of the listings API, without trailing slash
	BaseURL string

	// User-Agent header sent with every request
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Timeout for individual HTTP requests
	Timeout time.Duration

	// Breaker holds circuit breaker settings
	Breaker BreakerConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redis *redis.Client, baseURL, userAgent string) Config {
	return Config{
		Redis:     redis,
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Breaker:   DefaultBreakerConfig(),
	}
}

// New creates a new listings API client.
func New(cfg Config) (*Client, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	if cfg.Breaker.Name == "" {
		cfg.Breaker = DefaultBreakerConfig()
	}

	logger := log.With().Str("component", "listings-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		redis:   cfg.Redis,
		quota:   ratelimit.NewTracker(cfg.Redis, logger),
		cache:   cache.NewManager(cfg.Redis),
		breaker: newBreaker(cfg.Breaker, logger),
		config:  cfg,
		logger:  logger,
	}, nil
}

// Do performs an HTTP request with quota tracking, caching, retries, and
// circuit breaking. This is the core request method; typed endpoint helpers
// build on it.
//
// Fresh cache entries are served without a network round trip. Stale entries
// with validators turn into conditional requests; a 304 refreshes the entry
// and serves the cached body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	allowed, err := c.quota.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("quota check failed")
		return nil, fmt.Errorf("quota check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("request blocked by quota tracker")
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, fmt.Errorf("request blocked: rate limit critical")
	}

	cacheKey := cache.CacheKey{
		Endpoint:    endpoint,
		QueryParams: req.URL.Query(),
	}

	cachedEntry, err := c.cache.GetStale(ctx, cacheKey)
	if err != nil && err != cache.ErrCacheMiss {
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("cache get error")
	}

	// Fresh hit: no network round trip at all.
	if cachedEntry != nil && !cachedEntry.IsExpired() {
		cache.CacheHits.WithLabelValues("redis").Inc()
		requestsTotal.WithLabelValues(endpoint, "cache").Inc()
		c.logger.Debug().Str("endpoint", endpoint).Msg("serving from cache")
		return cache.EntryToResponse(cachedEntry), nil
	}
	cache.CacheMisses.Inc()

	// Stale hit with validators: revalidate instead of refetching.
	if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("making conditional request")
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("executing listings request")

	var resp *http.Response

	retryErr := retryWithBackoff(ctx, c.logger, func() error {
		result, execErr := c.breaker.Execute(func() (interface{}, error) {
			return c.httpClient.Do(req)
		})
		if execErr != nil {
			if errors.Is(execErr, gobreaker.ErrOpenState) || errors.Is(execErr, gobreaker.ErrTooManyRequests) {
				breakerRejectionsTotal.Inc()
			}
			c.logger.Error().Err(execErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return execErr
		}
		resp = result.(*http.Response)

		if err := c.quota.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("failed to update quota from headers")
		}

		if resp.StatusCode == http.StatusNotModified {
			return nil
		}

		if resp.StatusCode >= 400 {
			class := classifyStatus(resp.StatusCode)
			errorsTotal.WithLabelValues(string(class)).Inc()
			requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("listings request error")

			if shouldRetry(class) {
				apiErr := &APIError{
					StatusCode: resp.StatusCode,
					ErrorClass: class,
					Message:    resp.Status,
				}
				resp.Body.Close()
				return apiErr
			}

			// Client errors are not retried; the caller handles the status.
			return nil
		}

		requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		return nil
	}, classifyError)

	if retryErr != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, retryErr
	}

	if resp.StatusCode == http.StatusNotModified {
		if cachedEntry == nil {
			// No conditional headers were sent, so a 304 has no body to
			// serve from.
			resp.Body.Close()
			return nil, &APIError{
				StatusCode: http.StatusNotModified,
				ErrorClass: ErrorClassServer,
				Message:    "unexpected 304 response with no cached entry",
			}
		}

		c.logger.Debug().Str("endpoint", endpoint).Msg("304 not modified, using cache")
		requestsTotal.WithLabelValues(endpoint, "304").Inc()
		cache.NotModifiedResponses.Inc()

		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
					c.logger.Warn().Err(err).Msg("failed to update cache TTL")
				}
			}
		}

		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry), nil
	}

	if resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("failed to create cache entry")
		} else if entry.TTL() > 0 {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("cached response")
			}
		}
	}

	return resp, nil
}

// Get performs a GET request against an API endpoint with optional query
// parameters.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	u := strings.TrimRight(c.config.BaseURL, "/") + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager (for testing).
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
