package embed

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	semerrors "github.com/semindex/semindex/internal/errors"
)

func shortenRetryDelay(t *testing.T) {
	t.Helper()
	old := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = old })
}

func TestAPIClient_PostJSON_RetriesTransientStatuses(t *testing.T) {
	shortenRetryDelay(t)

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, map[string]string{"ok": "yes"})
	}))
	defer srv.Close()

	c := newAPIClient()
	defer c.closeIdle()

	body, err := c.postJSON(context.Background(), srv.URL, nil, map[string]string{"in": "x"})
	require.NoError(t, err)
	assert.Contains(t, string(body), "yes")
	assert.Equal(t, 3, calls)
}

func TestAPIClient_PostJSON_GivesUpAfterMaxAttempts(t *testing.T) {
	shortenRetryDelay(t)

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newAPIClient()
	defer c.closeIdle()

	_, err := c.postJSON(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.Equal(t, maxAttempts, calls)

	var he *httpError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusTooManyRequests, he.Status)
}

func TestAPIClient_PostJSON_FailsFastOnClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	c := newAPIClient()
	defer c.closeIdle()

	_, err := c.postJSON(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var he *httpError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
	assert.Contains(t, he.Body, "bad key")
}

func TestAPIClient_PostJSON_SendsHeadersAndBody(t *testing.T) {
	var auth, contentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		writeJSON(w, map[string]string{})
	}))
	defer srv.Close()

	c := newAPIClient()
	defer c.closeIdle()

	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer secret")
	_, err := c.postJSON(context.Background(), srv.URL, hdr, map[string]string{"model": "m"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "application/json", contentType)
	assert.JSONEq(t, `{"model":"m"}`, gotBody)
}

func TestAPIClient_PostJSON_ContextCancelledDuringBackoff(t *testing.T) {
	old := retryBaseDelay
	retryBaseDelay = time.Hour
	t.Cleanup(func() { retryBaseDelay = old })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newAPIClient()
	defer c.closeIdle()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	_, err := c.postJSON(ctx, srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), time.Second)
}

func TestAPIClient_PostJSON_FailsFastWhileCircuitOpen(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, map[string]string{})
	}))
	defer srv.Close()

	c := newAPIClient()
	defer c.closeIdle()

	// Trip the breaker as repeated provider outages would.
	for i := 0; i < 5; i++ {
		c.breaker.RecordFailure()
	}

	_, err := c.postJSON(context.Background(), srv.URL, nil, nil)
	require.ErrorIs(t, err, semerrors.ErrCircuitOpen)
	assert.Zero(t, calls, "open circuit must not reach the provider")
}

func TestAPIClient_PostJSON_SuccessClosesCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{})
	}))
	defer srv.Close()

	c := newAPIClient()
	defer c.closeIdle()
	c.breaker.RecordFailure()
	c.breaker.RecordFailure()

	_, err := c.postJSON(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, c.breaker.Failures())
}
