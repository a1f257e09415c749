// Package fetch provides the shared outbound HTTP client. Every request
// carries a bounded timeout and the API-mandated User-Agent, goes through a
// per-host circuit breaker, and is rate limited so a flapping upstream
// cannot make a battery-powered device hammer the network.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Sentinel errors for the caller's recovery policy: both are recovered
// locally during weather acquisition by degrading the affected field.
var (
	// ErrNetwork wraps connection, DNS, and timeout failures.
	ErrNetwork = errors.New("fetch: network error")
	// ErrStatus wraps non-2xx responses.
	ErrStatus = errors.New("fetch: unexpected status")
)

// Config controls client behaviour.
type Config struct {
	// UserAgent is sent on every request. api.weather.gov rejects requests
	// without one.
	UserAgent string
	// Timeout bounds each request end to end. Zero means DefaultTimeout.
	Timeout time.Duration
	// RequestsPerSecond limits outbound request rate. Zero disables limiting.
	RequestsPerSecond float64
	// Burst is the limiter burst size (defaults to 1 when limiting is on).
	Burst int
}

// DefaultTimeout keeps a stalled endpoint from suspending the weather
// refresh indefinitely.
const DefaultTimeout = 15 * time.Second

// Client is a resilient HTTP client for upstream APIs.
type Client struct {
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: cfg.UserAgent,
		limiter:   limiter,
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
	}
}

// breaker returns the circuit breaker for a host, creating it on first use.
func (c *Client) breaker(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[host]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        host,
			MaxRequests: 2,
			Interval:    time.Minute,
			Timeout:     2 * time.Minute,
		})
		c.breakers[host] = cb
	}
	return cb
}

// Get issues a GET and returns the response body for streaming. The caller
// must close the returned body; closing it early is how the extractor
// avoids draining large documents.
func (c *Client) Get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse url %q: %w", rawURL, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	result, err := c.breaker(u.Host).Execute(func() (interface{}, error) {
		resp, doErr := c.http.Do(req)
		if doErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNetwork, doErr)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, u.Host, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open for %s: %v", ErrNetwork, u.Host, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("fetch: unexpected breaker result type %T", result)
	}
	return resp.Body, nil
}

// GetAll issues a GET and reads the whole body, bounded by limit bytes.
// Used only for documents known to be small (geocoding, the NWS point
// document); everything large goes through Get plus the extractor.
func (c *Client) GetAll(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}
	return data, nil
}
