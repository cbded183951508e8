package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequester(maxRetries int) *Requester {
	return NewRequester(RequesterConfig{
		Name:         "test",
		MaxRetries:   maxRetries,
		RetryBackoff: time.Millisecond,
		Headers:      map[string]string{"Accept": "application/json"},
	})
}

func TestAPIErrorIsRetryable(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: 429}).IsRetryable())
	assert.True(t, (&APIError{StatusCode: 502}).IsRetryable())
	assert.False(t, (&APIError{StatusCode: 404}).IsRetryable())
	assert.False(t, (&APIError{StatusCode: 401}).IsRetryable())
}

func TestGetSendsHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "PSTX", r.URL.Query().Get("symbols"))
		w.Header().Set("X-Test", "yes")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	resp, err := newTestRequester(0).Get(context.Background(), srv.URL+"/quotes", url.Values{"symbols": {"PSTX"}})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, "yes", resp.Header.Get("X-Test"))
	assert.Equal(t, 1, resp.Metrics.RequestCount)
	assert.Equal(t, int64(11), resp.Metrics.BytesReceived)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("done"))
	}))
	defer srv.Close()

	req := newTestRequester(3)
	resp, err := req.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", string(resp.Body))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2, resp.Metrics.RetryAttempts)

	stats := req.Stats()
	assert.Equal(t, 3, stats.RequestCount)
	assert.Equal(t, 2, stats.RetryAttempts)
}

func TestGetGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestRequester(2).Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestRequester(3).Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetHonoursCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRequester(3).Get(ctx, srv.URL, nil)
	assert.Error(t, err)
}

func TestGetPacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	req := NewRequester(RequesterConfig{Name: "paced", RequestsPerSecond: 20})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := req.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err)
	}

	// burst of one then 50ms per token
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.True(t, req.Stats().RateLimitHit)
}

func TestDecodeJSONRecordsParseTime(t *testing.T) {
	body := "[" + strings.Repeat(`{"symbol":"PSTX","amount":"1.50"},`, 5000) + `{"symbol":"LAST"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	req := newTestRequester(0)
	resp, err := req.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	var out []struct {
		Symbol string `json:"symbol"`
	}
	require.NoError(t, req.DecodeJSON(resp, &out))
	require.Len(t, out, 5001)
	assert.Equal(t, "LAST", out[5000].Symbol)

	assert.Positive(t, resp.Metrics.ParseTime)
	stats := req.Stats()
	assert.Positive(t, stats.ParseTime)
	assert.GreaterOrEqual(t, stats.RequestDuration, stats.ParseTime)
}

func TestDecodeJSONWrapsErrors(t *testing.T) {
	req := newTestRequester(0)
	var out map[string]any
	err := req.DecodeJSON(&Response{Body: []byte("{not json")}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test: decoding response")
}
