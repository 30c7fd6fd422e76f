// Package backend is the REST client for the match-management API: login,
// games, and persisted scoreboard records.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// Default client settings.
const (
	defaultTimeout            = 15 * time.Second
	defaultBreakerMaxFailures = 5
	defaultBreakerTimeout     = 30 * time.Second
	maxErrorBody              = 64 << 10
)

// ErrUnauthorized is wrapped by *APIError for 401 responses.
var ErrUnauthorized = errors.New("backend: unauthorized")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string // server-provided "message", if any
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: HTTP %d", e.Status)
	}
	return fmt.Sprintf("backend: HTTP %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Options configures a Client.
type Options struct {
	BaseURL            string
	Timeout            time.Duration
	BreakerMaxFailures uint32        // consecutive failures before the circuit opens
	BreakerTimeout     time.Duration // how long the circuit stays open
}

// Client talks to the API with the stored bearer token. Server and network
// failures go through a circuit breaker so a dead backend fails fast.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a client for opts.BaseURL.
func NewClient(opts Options, tokens TokenStore) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.BreakerMaxFailures == 0 {
		opts.BreakerMaxFailures = defaultBreakerMaxFailures
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = defaultBreakerTimeout
	}
	maxFailures := opts.BreakerMaxFailures

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "api",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("[API] circuit breaker state change", "from", from.String(), "to", to.String())
		},
		// Client errors are the caller's problem, not the server's health.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil
		},
	})

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    &http.Client{Timeout: opts.Timeout},
		tokens:  tokens,
		breaker: breaker,
	}
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: encode %s %s: %w", method, path, err)
		}
	}

	reqID := uuid.NewString()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, payload, reqID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("backend: %s %s: circuit open: %w", method, path, err)
		}
		slog.Warn("[API] request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("backend: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, reqID string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	token, err := c.tokens.Token()
	switch {
	case err == nil:
		req.Header.Set("Authorization", "Bearer "+token)
	case errors.Is(err, ErrNoToken):
		slog.Debug("[API] no token, sending anonymous request", "path", path)
	default:
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: read %s %s: %w", method, path, err)
	}
	return data, nil
}

// errorMessage extracts "message" from an error body. The API sends either
// a string or a list of validation messages.
func errorMessage(body []byte) string {
	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Message) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(envelope.Message, &single); err == nil {
		return single
	}
	var list []string
	if err := json.Unmarshal(envelope.Message, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return ""
}
