package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/cellar/pkg/buildinfo"
	"github.com/matzehuels/cellar/pkg/httputil"
	"github.com/matzehuels/cellar/pkg/observability"
)

// Client provides shared HTTP functionality for the registry and bottle
// clients. It handles caching, retry logic, and common request headers.
type Client struct {
	http    *http.Client
	cache   *httputil.Cache
	headers map[string]string
}

// NewClient creates a Client with the given cache and default headers.
// A nil cache disables caching. Headers are applied to all requests; a
// User-Agent is added unless headers already set one.
func NewClient(cache *httputil.Cache, headers map[string]string) *Client {
	h := map[string]string{"User-Agent": buildinfo.UserAgent()}
	for k, v := range headers {
		h[k] = v
	}
	return &Client{
		http:    NewHTTPClient(),
		cache:   cache,
		headers: h,
	}
}

// WithHTTPClient replaces the underlying HTTP client and returns c.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the cache.
// Transient fetch failures are retried with backoff.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if c.cache != nil && !refresh {
		ok, err := c.cache.Get(key, v)
		switch {
		case ok:
			observability.Cache().OnCacheHit(ctx, "api")
			return nil
		case errors.Is(err, httputil.ErrExpired):
			observability.Cache().OnCacheMiss(ctx, "api-expired")
		default:
			observability.Cache().OnCacheMiss(ctx, "api")
		}
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return err
	}
	if c.cache != nil {
		if err := c.cache.Set(key, v); err == nil {
			observability.Cache().OnCacheSet(ctx, "api", 0)
		}
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	return c.GetWithHeaders(ctx, rawURL, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	body, err := c.Open(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// Open performs an HTTP GET and returns the response body for streaming.
// The caller must close it. Non-200 responses are mapped to [ErrNotFound]
// or [ErrNetwork]; 5xx responses and transport failures are marked
// retryable.
func (c *Client) Open(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(req.URL)
	observability.HTTP().OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, host, path, err)
		return nil, httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	observability.HTTP().OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, rawURL); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func hostPath(u *url.URL) (string, string) {
	if u == nil {
		return "", ""
	}
	return u.Host, u.Path
}

func checkStatus(code int, rawURL string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	case code == http.StatusTooManyRequests || code >= 500:
		return httputil.Retryable(fmt.Errorf("%w: status %d from %s", ErrNetwork, code, rawURL))
	default:
		return fmt.Errorf("%w: status %d from %s", ErrNetwork, code, rawURL)
	}
}
