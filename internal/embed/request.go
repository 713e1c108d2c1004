package embed

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

	semerrors "github.com/semindex/semindex/internal/errors"
)

const (
	// requestTimeout bounds a single embedding request. Cold model loads
	// on a local Ollama server can take well over a minute.
	requestTimeout = 120 * time.Second

	// pingTimeout bounds provider reachability probes.
	pingTimeout = 2 * time.Second

	maxAttempts = 3
)

// retryBaseDelay is the wait after the first failed attempt, doubled for
// each attempt after that. Tests shorten it.
var retryBaseDelay = time.Second

// retryableStatuses are transient provider failures worth another attempt.
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// httpError is a non-2xx response. Callers inspect Status and Body for
// provider-specific handling; everything else treats it as opaque.
type httpError struct {
	Status int
	Body   string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// apiClient is a pooled HTTP client shared by a provider's requests.
// Deadlines come from per-request contexts, not a client-wide timeout.
// The circuit breaker keeps a bulk index run from hammering a provider
// that has gone down: after repeated failures calls fail fast with
// ErrCircuitOpen until the cooldown lets a probe through.
type apiClient struct {
	client  *http.Client
	breaker *semerrors.CircuitBreaker
}

func newAPIClient() *apiClient {
	return &apiClient{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     10 * time.Second,
			},
		},
		breaker: semerrors.NewCircuitBreaker("embed-api"),
	}
}

func (c *apiClient) closeIdle() {
	c.client.CloseIdleConnections()
}

// postJSON sends payload to url and returns the response body. Statuses
// 429, 500, 502, 503 and 504 are retried up to maxAttempts with
// exponential backoff; any other non-2xx status fails immediately with an
// *httpError. Transport failures are returned as-is. While the circuit
// breaker is open, requests fail fast with semerrors.ErrCircuitOpen.
func (c *apiClient) postJSON(ctx context.Context, url string, header http.Header, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	if !c.breaker.Allow() {
		return nil, semerrors.ErrCircuitOpen
	}

	cfg := semerrors.RetryConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   retryBaseDelay,
		RetryIf: func(err error) bool {
			var he *httpError
			return errors.As(err, &he) && retryableStatuses[he.Status]
		},
		OnRetry: func(attempt int, err error, wait time.Duration) {
			// RetryIf only lets *httpError through, so As always hits.
			var he *httpError
			if errors.As(err, &he) {
				slog.Warn("embedding request failed, retrying",
					slog.Int("status", he.Status),
					slog.Int("attempt", attempt),
					slog.Duration("wait", wait))
			}
		},
	}

	data, err := semerrors.RetryWithResult(ctx, cfg, func() ([]byte, error) {
		return c.doOnce(ctx, url, header, body)
	})
	if err != nil {
		var he *httpError
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Cancellation says nothing about provider health.
		case errors.As(err, &he) && !retryableStatuses[he.Status]:
			// The provider answered; the request itself was bad.
		default:
			c.breaker.RecordFailure()
		}
		return nil, err
	}
	c.breaker.RecordSuccess()
	return data, nil
}

func (c *apiClient) doOnce(ctx context.Context, url string, header http.Header, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// wrapRemoteError classifies a failed hosted-API call: HTTP errors mean
// the request was rejected, anything else means the provider could not be
// reached at all. Context cancellation passes through untouched.
func wrapRemoteError(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var he *httpError
	if errors.As(err, &he) {
		semErr := semerrors.EmbedError(fmt.Sprintf("%s request failed (status %d)", provider, he.Status), err)
		if he.Status == http.StatusUnauthorized || he.Status == http.StatusForbidden {
			semErr = semErr.WithSuggestion("Check that the API key is valid and has not expired.")
		}
		return semErr
	}
	return semerrors.New(semerrors.ErrCodeProviderUnavailable,
		fmt.Sprintf("cannot connect to the %s API", provider), err).
		WithSuggestion("Check your network and API key.")
}
