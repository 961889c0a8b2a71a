package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticketly-client/internal/logger"
	"ticketly-client/internal/monitoring"
)

// ErrUnauthorized is returned when the backend answers 401. The session
// has already been cleared by the OnUnauthorized hook by the time a
// caller sees this.
var ErrUnauthorized = errors.New("unauthorized")

const genericErrorMessage = "Something went wrong, please try again"

// Error carries the backend's error message for non-retryable failures.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d - %s", e.Status, e.Message)
}

// TokenSource supplies the current bearer token, empty when signed out.
type TokenSource interface {
	Token() string
}

// Client is the remote data client: authenticated JSON calls against the
// backend with automatic retry of transient failures.
type Client struct {
	baseURL     string
	http        *http.Client
	tokens      TokenSource
	maxAttempts int
	// backoff returns the delay before retry n (1-based). Swapped out in
	// tests so they never sleep for real.
	backoff        func(attempt int) time.Duration
	onUnauthorized func()
	logger         *logger.Logger
}

type Option func(*Client)

// WithOnUnauthorized installs the hook fired on any 401: clear the
// persisted session and force navigation back to login.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(c *Client) { c.backoff = fn }
}

func NewClient(baseURL string, tokens TokenSource, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{Timeout: 10 * time.Second},
		tokens:      tokens,
		maxAttempts: 3,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		},
		logger: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do runs one logical request. Transient failures (network errors, 5xx)
// are retried up to maxAttempts total with linearly increasing delay;
// 401 clears the session and is never retried; other 4xx surface the
// backend's message verbatim.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	requestID := uuid.NewString()
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			monitoring.APIRetries.Inc()
			select {
			case <-time.After(c.backoff(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		status, retryable, err := c.doOnce(ctx, method, path, requestID, payload, out)
		if err == nil {
			monitoring.APIRequests.WithLabelValues(method, "ok").Inc()
			c.logger.LogRequest(method, path, status, time.Since(start))
			return nil
		}
		if !retryable {
			monitoring.APIRequests.WithLabelValues(method, "error").Inc()
			c.logger.LogRequest(method, path, status, time.Since(start))
			return err
		}

		lastErr = err
		c.logger.Warn("API", fmt.Sprintf("%s %s attempt %d/%d failed: %v", method, path, attempt, c.maxAttempts, err))
	}

	monitoring.APIRequests.WithLabelValues(method, "error").Inc()
	return lastErr
}

// doOnce performs a single attempt. The bool reports whether the failure
// is transient and worth retrying.
func (c *Client) doOnce(ctx context.Context, method, path, requestID string, payload []byte, out any) (int, bool, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, true, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, true, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return resp.StatusCode, false, nil
		}
		var env envelope
		if err := json.Unmarshal(respBody, &env); err != nil {
			return resp.StatusCode, false, fmt.Errorf("failed to decode response envelope: %w", err)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, false, fmt.Errorf("failed to decode response data: %w", err)
		}
		return resp.StatusCode, false, nil

	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Warn("API", fmt.Sprintf("%s %s returned 401, clearing session", method, path))
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return resp.StatusCode, false, ErrUnauthorized

	case resp.StatusCode >= 500:
		return resp.StatusCode, true, &Error{Status: resp.StatusCode, Message: errorMessage(respBody)}

	default:
		return resp.StatusCode, false, &Error{Status: resp.StatusCode, Message: errorMessage(respBody)}
	}
}

func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		return eb.Message
	}
	return genericErrorMessage
}
