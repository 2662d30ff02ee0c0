// Package httpclient provides the retrying HTTP client that every remote
// collaborator call goes through. It owns the attempt bound, the backoff
// schedule, rate-limit handling, and error classification; callers describe
// one logical request and get back either a buffered response or the last
// error observed.
package httpclient

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

	"go.uber.org/zap"

	"github.com/mkedev/planning-sync/internal/clock"
	"github.com/mkedev/planning-sync/internal/clock/system"
	"github.com/mkedev/planning-sync/internal/policy/ratelimit"
	"github.com/mkedev/planning-sync/internal/policy/retry"
	"github.com/mkedev/planning-sync/internal/telemetry"
)

const errorSnippetLimit = 200

// StatusError reports a non-success HTTP status after classification decided
// no further attempt is allowed.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Snippet    string
}

// Error renders the status with a short body excerpt when one was captured.
func (e *StatusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Snippet)
}

// AsStatusError unwraps err into a StatusError when one is in the chain.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Request describes one logical call. Body is marshaled to JSON when set;
// RawBody is sent verbatim (the caller supplies its Content-Type header).
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Header  http.Header
	Body    any
	RawBody []byte
}

// Response is a fully buffered successful exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client retries transient failures with exponential backoff and honors
// rate-limit hints. Safe for sequential reuse; the underlying connection
// pool is shared across calls.
type Client struct {
	http    *http.Client
	policy  *retry.Policy
	gate    *ratelimit.Gate
	clk     clock.Clock
	logger  *zap.Logger
	headers http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport, usually to set the timeout
// ceiling for the backend's payload class.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithPolicy overrides the retry policy.
func WithPolicy(p *retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithGate installs a minimum inter-request spacing, enforced before every
// attempt.
func WithGate(g *ratelimit.Gate) Option {
	return func(c *Client) { c.gate = g }
}

// WithClock injects the time source used for backoff sleeps.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clk = clk }
}

// WithLogger attaches a logger for retry warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHeader adds a header to every request, e.g. bearer credentials.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// New builds a Client with a 30 second timeout and the standard retry policy.
func New(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		policy:  retry.New(),
		clk:     system.New(),
		logger:  zap.NewNop(),
		headers: http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes the request, retrying per policy. It returns the buffered
// response for any status below 400; everything else surfaces as an error,
// with the last observed failure propagated after the attempt bound.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target, err := buildURL(req.URL, req.Query)
	if err != nil {
		return nil, err
	}

	var body []byte
	switch {
	case req.RawBody != nil:
		body = req.RawBody
	case req.Body != nil:
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s body: %w", req.Method, target, err)
		}
	}

	var lastErr error
	attempts := c.policy.MaxAttempts()
	for attempt := 0; attempt < attempts; attempt++ {
		if err := c.gate.Wait(ctx, target); err != nil {
			return nil, err
		}

		resp, attemptErr := c.attempt(ctx, req, target, body)
		class := retry.Classify(statusOf(resp), attemptErr)
		switch class {
		case retry.ClassSuccess:
			return resp, nil
		case retry.ClassTerminal:
			if attemptErr != nil {
				return nil, fmt.Errorf("%s %s: %w", req.Method, target, attemptErr)
			}
			return nil, &StatusError{Method: req.Method, URL: target, StatusCode: resp.StatusCode, Snippet: snippet(resp.Body)}
		}

		if attemptErr != nil {
			lastErr = attemptErr
		} else {
			lastErr = &StatusError{Method: req.Method, URL: target, StatusCode: resp.StatusCode, Snippet: snippet(resp.Body)}
		}

		if !c.policy.ShouldRetry(class, attempt) {
			break
		}

		delay := c.policy.Backoff(attempt)
		if class == retry.ClassRateLimited {
			delay = c.policy.RetryAfterDelay(resp.Header.Get("Retry-After"))
		}
		telemetry.ObserveClientRetry(target)
		c.logger.Warn("retrying request",
			zap.String("method", req.Method),
			zap.String("url", target),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)
		if err := c.clk.Sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, target, err)
		}
	}

	return nil, fmt.Errorf("%s %s after %d attempts: %w", req.Method, target, attempts, lastErr)
}

// attempt performs a single exchange. Responses are fully drained so the
// connection can be reused and the body is available for error snippets.
func (c *Client) attempt(ctx context.Context, req Request, target string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			httpReq.Header.Set(key, v)
		}
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Set(key, v)
		}
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		telemetry.ObserveClientRequest(target, req.Method, 0)
		return nil, err
	}
	defer httpResp.Body.Close() //nolint:errcheck // drained below

	telemetry.ObserveClientRequest(target, req.Method, httpResp.StatusCode)

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

// GetJSON issues a GET and decodes the response body into out when non-nil.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, URL: rawURL, Query: query})
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

// PostJSON issues a POST with a JSON body and decodes the response into out
// when non-nil.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body, out any) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodPost, URL: rawURL, Body: body})
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

func decodeJSON(resp *Response, out any) error {
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func buildURL(rawURL string, query url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	if len(query) > 0 {
		merged := u.Query()
		for key, values := range query {
			for _, v := range values {
				merged.Set(key, v)
			}
		}
		u.RawQuery = merged.Encode()
	}
	return u.String(), nil
}

func statusOf(resp *Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func snippet(body []byte) string {
	if len(body) > errorSnippetLimit {
		body = body[:errorSnippetLimit]
	}
	return string(bytes.TrimSpace(body))
}
