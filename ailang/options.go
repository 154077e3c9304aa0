package ailang

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/relev-ai/relevai-go/cache"
	"github.com/relev-ai/relevai-go/observability"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Endpoint paths are joined onto
// it, so both "https://host/v1" and "https://host/v1/" work.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithModel sets the default model used when a request does not name one.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithRateLimiter throttles outbound API calls. Each call waits for one
// token before the request is sent; a context cancellation during the
// wait aborts the call.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithCache enables per-input embedding caching. Vectors are stored keyed
// on model and input text with the backend's default TTL. Chat responses
// are never cached.
func WithCache(store cache.Cache) Option {
	return func(c *Client) {
		c.cache = store
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}
