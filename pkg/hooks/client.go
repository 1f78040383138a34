package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"build-hooks/pkg/ratelimit"
	"build-hooks/pkg/retry"
)

const (
	// DefaultTimeout bounds every outbound provider call
	DefaultTimeout = 30 * time.Second

	maxErrorBody    = 4 << 10
	maxResponseBody = 4 << 20
)

// Doer sends HTTP requests; *http.Client satisfies it
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client sends resolved requests and decodes JSON responses
type Client struct {
	HTTPClient Doer
	Limiter    *ratelimit.Limiter
	// Retry applies to GET requests only
	Retry retry.Config
}

// NewClient creates a client with an explicit timeout and optional rate limit
func NewClient(timeout time.Duration, qps int, retryConfig retry.Config) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		HTTPClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		Limiter: ratelimit.NewLimiter(qps),
		Retry:   retryConfig,
	}
}

// Get issues a GET with JSON headers and decodes the response into out
func (c *Client) Get(ctx context.Context, rawURL string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Header: jsonHeader()}, out)
}

// Do sends req and, when out is non-nil, decodes the JSON response into it.
// GET requests are retried on transient failures; other methods are sent
// exactly once.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	if req.Method != http.MethodGet {
		return c.send(ctx, req, out)
	}

	return retry.Do(ctx, c.Retry, func() error {
		return c.send(ctx, req, out)
	})
}

func (c *Client) send(ctx context.Context, req Request, out any) error {
	if err := c.Limiter.Wait(ctx); err != nil {
		return err
	}

	redacted := RedactURL(req.URL)

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", redacted, redactURLError(err))
	}

	header := req.Header
	if header == nil {
		header = jsonHeader()
	}
	for k, values := range header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	doer := c.HTTPClient
	if doer == nil {
		doer = http.DefaultClient
	}

	resp, err := doer.Do(httpReq)
	if err != nil {
		return redactURLError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{
			Method:     req.Method,
			URL:        redacted,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(data)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", req.Method, redacted, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w: %w", req.Method, redacted, ErrMalformedResponse, err)
	}
	return nil
}

// redactURLError hides the token carried in *url.Error messages
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = RedactURL(urlErr.URL)
	}
	return err
}
