// Package resilient issues JSON requests against a remote endpoint, retrying
// transient failures with exponential backoff.
package resilient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"muse-workers/internal/common/errors"
	"muse-workers/internal/common/httpclient"
	"muse-workers/internal/common/logger"
)

const (
	DefaultMaxRetries       = 5
	DefaultInitialBackoff   = time.Second
	DefaultMaxResponseBytes = 8 << 20
)

// Policy controls the retry loop of a single Request.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries     int
	InitialBackoff time.Duration
	// MaxBackoff caps the doubled wait. Zero leaves it uncapped.
	MaxBackoff time.Duration
	// RetryClientErrors retries 4xx statuses other than 408 and 429 as well.
	RetryClientErrors bool
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:        DefaultMaxRetries,
		InitialBackoff:    DefaultInitialBackoff,
		RetryClientErrors: true,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxRetries < 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = DefaultInitialBackoff
	}
	if p.MaxBackoff < 0 {
		p.MaxBackoff = 0
	}
	return p
}

// RequestOptions are passed through to the transport unchanged.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    []byte
}

// Observer receives one callback per attempt and one when the budget runs out.
type Observer interface {
	ObserveAttempt(endpoint string, attempt int, err error)
	ObserveExhausted(endpoint string, attempts int)
}

type Client struct {
	httpClient       *http.Client
	log              logger.Logger
	observer         Observer
	maxResponseBytes int64
	sleep            func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client. observer may be nil.
func NewClient(httpClient *http.Client, log logger.Logger, observer Observer) *Client {
	if httpClient == nil {
		httpClient = httpclient.New(0)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		httpClient:       httpClient,
		log:              log,
		observer:         observer,
		maxResponseBytes: DefaultMaxResponseBytes,
		sleep:            sleepContext,
	}
}

// SetMaxResponseBytes bounds how much of a response body is read. n <= 0 disables the limit.
func (c *Client) SetMaxResponseBytes(n int64) {
	c.maxResponseBytes = n
}

// Request sends opts to endpoint and returns the JSON body of the first 2xx
// response. Transient failures are retried at most policy.MaxRetries times,
// waiting InitialBackoff, then twice that, and so on. When every attempt
// fails the returned error is RETRY_EXHAUSTED and unwraps to the last
// attempt's error.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions, policy Policy) (json.RawMessage, error) {
	p := policy.normalized()
	label := redact(endpoint)

	backoff := p.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.Debug("retrying remote request", map[string]interface{}{
				"endpoint": label,
				"attempt":  attempt + 1,
				"backoff":  backoff.String(),
			})
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, errors.NewRequestCanceledError(err, lastErr)
			}
			backoff = nextBackoff(backoff, p.MaxBackoff)
		}

		body, retry, err := c.attempt(ctx, endpoint, label, opts, p)
		if c.observer != nil {
			c.observer.ObserveAttempt(label, attempt+1, err)
		}
		if err == nil {
			return body, nil
		}
		lastErr = err

		if !retry {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.NewRequestCanceledError(ctxErr, lastErr)
		}
	}

	attempts := p.MaxRetries + 1
	if c.observer != nil {
		c.observer.ObserveExhausted(label, attempts)
	}
	c.log.Warn("remote request exhausted retries", map[string]interface{}{
		"endpoint": label,
		"attempts": attempts,
		"error":    lastErr.Error(),
	})
	return nil, errors.NewRetryExhaustedError(attempts, lastErr)
}

// RequestInto is Request followed by json.Unmarshal into out.
func (c *Client) RequestInto(ctx context.Context, endpoint string, opts RequestOptions, policy Policy, out interface{}) error {
	body, err := c.Request(ctx, endpoint, opts, policy)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.NewMalformedPayloadError(fmt.Sprintf("%T", out), err)
	}
	return nil
}

// attempt performs one round trip. retry reports whether a failure is transient.
func (c *Client) attempt(ctx context.Context, endpoint, label string, opts RequestOptions, p Policy) (json.RawMessage, bool, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(opts.Body))
	if err != nil {
		return nil, false, errors.NewInvalidInputError(fmt.Sprintf("invalid request for %s: %v", label, err))
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, errors.NewTransientTransportError(label, 0, err)
	}
	defer resp.Body.Close()

	body, err := httpclient.ReadAllWithLimit(resp.Body, c.maxResponseBytes)
	if err != nil {
		return nil, true, errors.NewTransientTransportError(label, 0, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if !p.RetryClientErrors && isPermanentClientError(resp.StatusCode) {
			return nil, false, errors.NewRemoteRejectedError(label, resp.StatusCode)
		}
		statusErr := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet(body))
		return nil, true, errors.NewTransientTransportError(label, resp.StatusCode, statusErr)
	}

	if !json.Valid(body) {
		return nil, true, errors.NewTransientTransportError(label, 0, fmt.Errorf("response body is not valid JSON: %s", snippet(body)))
	}
	return json.RawMessage(body), false, nil
}

func isPermanentClientError(status int) bool {
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests {
		return false
	}
	return status >= 400 && status < 500
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next < current {
		// overflow
		next = current
	}
	if max > 0 && next > max {
		return max
	}
	return next
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// redact drops the query string so API keys never reach logs or metric labels.
func redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "invalid-endpoint"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
