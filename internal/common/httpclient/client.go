// Package httpclient is the portal's single outbound HTTP adapter. Every
// backend call goes through it: the bearer token is attached when a session
// exists, the call state (loading flag, last error) is reset at call start
// and settled at call end, and failures are normalized into the portal error
// taxonomy with the backend's message extracted when the payload carries one.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"combinator-portal/internal/common/errors"
	"combinator-portal/internal/common/logger"
	"combinator-portal/internal/common/metrics"

	"github.com/google/uuid"
)

// TokenSource supplies the current bearer token, "" when unauthenticated.
// The session store implements it.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed-token TokenSource, for tests and one-off calls.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

// CallState tracks the adapter's last call: a loading flag set for the call
// duration and the error left by the most recent call. A new call resets
// both. Concurrent calls are independent; the state reflects whether any
// call is in flight and the most recently settled error.
type CallState struct {
	mu       sync.Mutex
	inFlight int
	err      error
}

func (s *CallState) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight++
	s.err = nil
}

func (s *CallState) end(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	s.err = err
}

// Loading reports whether any call is currently in flight.
func (s *CallState) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// Err returns the error left by the most recent call, nil after a success
// or while a fresh call is running.
func (s *CallState) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Message returns the user-visible message for the current error state.
func (s *CallState) Message() string {
	return errors.UserMessage(s.Err())
}

// ClearError dismisses the current error without issuing a call.
func (s *CallState) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}

// Client wraps outbound requests to the portal backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        logger.Logger
	state      CallState
}

func New(baseURL string, timeout time.Duration, tokens TokenSource, log logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        log,
	}
}

// State exposes the adapter's call state for loading/error rendering.
func (c *Client) State() *CallState { return &c.state }

// errorEnvelope is the backend's error payload shape.
type errorEnvelope struct {
	Message string `json:"message"`
}

// Do issues one request and returns the raw response body. route is the
// stable label used for metrics (e.g. "applications.list"); path is the
// concrete URL path. A non-nil body is JSON-encoded. Errors follow the
// portal taxonomy: transport failures become network errors, non-2xx
// responses become auth or backend errors with the payload's message.
func (c *Client) Do(ctx context.Context, route, method, path string, body interface{}) ([]byte, error) {
	c.state.begin()

	started := time.Now()
	data, err := c.do(ctx, method, path, body)

	metrics.APIRequestDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.APIRequests.WithLabelValues(route, outcome).Inc()

	c.state.end(err)
	return data, err
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return nil, errors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env errorEnvelope
		_ = json.Unmarshal(data, &env)
		c.log.Debug("backend returned error", map[string]interface{}{
			"method":  method,
			"path":    path,
			"status":  resp.StatusCode,
			"message": env.Message,
		})
		return nil, errors.FromResponse(resp.StatusCode, env.Message)
	}

	return data, nil
}
