// Package vimeo implements the synchronization engine for a remote Vimeo
// video catalog: a rate-aware API client, flat and folder-tree collection
// walkers, record enrichment, the batched upsert pipeline with
// reconciliation, and the animated-thumbnail generation workflow.
package vimeo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.vimeo.com"

// Transport tuning constants. The reactive path honors the server's
// Retry-After; the proactive path slows down when the remaining-quota header
// reports we are close to the limit, before the server has to push back.
const (
	// DefaultMaxRetries is the retry budget for quota-exhausted responses.
	// The budget counts retries, so DefaultMaxRetries+1 attempts total.
	DefaultMaxRetries = 3
	// defaultRetryAfter is used when a 429 carries no Retry-After header.
	defaultRetryAfter = 5 * time.Second
	// lowQuotaThreshold is the remaining-quota count below which the
	// client starts cooling down between requests.
	lowQuotaThreshold = 10
	// hardFloorThreshold is the remaining-quota count below which the
	// longer cooldown applies.
	hardFloorThreshold = 3
	lowQuotaCooldown   = 500 * time.Millisecond
	hardFloorCooldown  = 1000 * time.Millisecond
)

// ClientConfig holds API client configuration.
type ClientConfig struct {
	// AccessToken is the bearer credential. Supplied externally; the
	// client performs no token acquisition.
	AccessToken string
	// BaseURL overrides the API endpoint. Used in tests.
	BaseURL string
	// Timeout for individual HTTP requests.
	Timeout time.Duration
	// MaxRetries is the retry budget for quota-exhausted responses.
	MaxRetries int
	// RequestsPerSecond paces all outbound calls through a token bucket
	// before any reactive throttling applies. 0 disables pacing.
	RequestsPerSecond float64
	// Logger receives retry warnings. Defaults to the standard logger.
	Logger logrus.FieldLogger
}

// DefaultClientConfig returns sensible defaults; the access token must still
// be supplied.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:    30 * time.Second,
		MaxRetries: DefaultMaxRetries,
	}
}

// Client wraps outbound calls to the remote video API with rate-limit
// handling: server-directed retries on quota exhaustion and a proactive
// cooldown when the remaining quota runs low. Every remote API call in the
// walkers, the enricher, and the thumbnail workflow goes through it; writes
// to the local content store do not.
type Client struct {
	base       *http.Client
	baseURL    string
	token      string
	maxRetries int
	limiter    *rate.Limiter
	log        logrus.FieldLogger

	// sleep is the suspension point used for all throttling waits.
	// Injectable so tests never block on real time.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates an API client with the given configuration.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultClientConfig().Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Client{
		base:       &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.AccessToken,
		maxRetries: cfg.MaxRetries,
		limiter:    limiter,
		log:        log.WithField("component", "vimeo"),
		sleep:      sleepContext,
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Get performs a GET request against an API path or absolute URL.
func (c *Client) Get(ctx context.Context, pathOrURL string) (*Response, error) {
	return c.Send(ctx, http.MethodGet, pathOrURL, nil)
}

// GetJSON performs a GET request and decodes the response body into v.
func (c *Client) GetJSON(ctx context.Context, pathOrURL string, v any) error {
	resp, err := c.Get(ctx, pathOrURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("vimeo: parse response: %w", err)
	}
	return nil
}

// Send performs one API call with rate-limit handling.
//
// Quota-exhausted responses are retried after the server-specified delay
// (default 5s when absent), up to the configured retry budget; exhausting
// the budget fails with a *RateLimitError. On success, a remaining-quota
// header below the low-quota threshold triggers a short cooldown before the
// response is returned. A nil body means no request body.
func (c *Client) Send(ctx context.Context, method, pathOrURL string, body any) (*Response, error) {
	urlStr := c.resolve(pathOrURL)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("vimeo: encode request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
		if err != nil {
			return nil, fmt.Errorf("vimeo: build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.base.Do(req)
		if err != nil {
			return nil, fmt.Errorf("vimeo: %s %s: %w", method, urlStr, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parseRetryAfter(resp.Header)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if attempt == c.maxRetries {
				return nil, &RateLimitError{Attempts: attempt + 1, RetryAfter: retryAfter}
			}

			c.log.WithFields(logrus.Fields{
				"attempt":     attempt + 1,
				"max_retries": c.maxRetries,
				"retry_after": retryAfter,
			}).Warn("vimeo rate limit hit, retrying")

			if err := c.sleep(ctx, retryAfter); err != nil {
				return nil, err
			}
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("vimeo: read response body: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{StatusCode: resp.StatusCode, Body: data}
		}

		if remaining, ok := parseRemaining(resp.Header); ok && remaining < lowQuotaThreshold {
			cooldown := lowQuotaCooldown
			if remaining < hardFloorThreshold {
				cooldown = hardFloorCooldown
			}
			if err := c.sleep(ctx, cooldown); err != nil {
				return nil, err
			}
		}

		return &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       data,
		}, nil
	}
}

// resolve turns an API path into an absolute URL. Pagination links come back
// as paths; thumbnail-set URIs do as well.
func (c *Client) resolve(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.baseURL + pathOrURL
}

// parseRetryAfter extracts the Retry-After header value in seconds,
// defaulting to 5s when absent or unparseable.
func parseRetryAfter(header http.Header) time.Duration {
	retryAfter := header.Get("Retry-After")
	if retryAfter == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(retryAfter); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
		return 0
	}
	return defaultRetryAfter
}

// parseRemaining extracts the remaining-quota header, if present.
func parseRemaining(header http.Header) (int, bool) {
	v := header.Get("X-RateLimit-Remaining")
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// sleepContext suspends for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
