package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jwaldner/divvyarb/internal/logger"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond
)

// APIError is a non-2xx response from a data provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsNotFound reports whether err is a 404 from a provider.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// RequesterConfig configures a Requester.
type RequesterConfig struct {
	Name              string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	RetryBackoff      time.Duration
	Headers           map[string]string
	HTTPClient        *http.Client
}

// Requester performs paced GET requests with retries and keeps cumulative
// performance statistics. One Requester is owned by one provider client.
type Requester struct {
	name         string
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxRetries   int
	retryBackoff time.Duration
	headers      map[string]string

	// Performance tracking
	totalRequests    int64
	totalQueueTime   time.Duration
	totalNetworkTime time.Duration
	totalParseTime   time.Duration
	totalBytes       int64
	totalRetries     int64
	rateLimitHits    int64
	statsMutex       sync.RWMutex
}

// NewRequester creates a requester. A zero RequestsPerSecond disables pacing.
func NewRequester(cfg RequesterConfig) *Requester {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	return &Requester{
		name:         cfg.Name,
		httpClient:   client,
		limiter:      rate.NewLimiter(limit, 1),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: backoff,
		headers:      cfg.Headers,
	}
}

// Response is a successful provider response.
type Response struct {
	Body    []byte
	Header  http.Header
	Metrics PerformanceMetrics
}

// Get fetches rawURL with query, waiting on the limiter before every attempt
// and retrying 429 and 5xx responses with jittered exponential backoff.
func (r *Requester) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	fullURL := rawURL
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	metrics := PerformanceMetrics{}
	start := time.Now()

	var lastErr error
	backoff := r.retryBackoff

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			// backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			logger.Debug.Printf("%s: retry %d for %s in %v", r.name, attempt, rawURL, jitter)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
			metrics.RetryAttempts++
		}

		queueStart := time.Now()
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: waiting for rate limiter: %w", r.name, err)
		}
		if waited := time.Since(queueStart); waited > time.Millisecond {
			metrics.QueueTime += waited
			metrics.RateLimitHit = true
		}

		resp, err := r.do(ctx, fullURL, &metrics)
		if err == nil {
			metrics.RequestDuration = time.Since(start)
			r.updateStats(metrics)
			resp.Metrics = metrics
			return resp, nil
		}

		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			metrics.RequestDuration = time.Since(start)
			r.updateStats(metrics)
			return nil, err
		}
		if apiErr.StatusCode == http.StatusTooManyRequests {
			metrics.RateLimitHit = true
		}
	}

	metrics.RequestDuration = time.Since(start)
	r.updateStats(metrics)
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (r *Requester) do(ctx context.Context, fullURL string, metrics *PerformanceMetrics) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	metrics.RequestCount++
	networkStart := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		metrics.NetworkTime += time.Since(networkStart)
		return nil, fmt.Errorf("%s: do request: %w", r.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.NetworkTime += time.Since(networkStart)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", r.name, err)
	}
	metrics.BytesReceived += int64(len(body))

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			Provider:   r.name,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return &Response{Body: body, Header: resp.Header}, nil
}

// DecodeJSON unmarshals resp into out and adds the decode time to both the
// response metrics and the cumulative stats.
func (r *Requester) DecodeJSON(resp *Response, out any) error {
	start := time.Now()
	err := json.Unmarshal(resp.Body, out)
	elapsed := time.Since(start)

	resp.Metrics.ParseTime += elapsed
	r.statsMutex.Lock()
	r.totalParseTime += elapsed
	r.statsMutex.Unlock()

	if err != nil {
		return fmt.Errorf("%s: decoding response: %w", r.name, err)
	}
	return nil
}

// updateStats updates cumulative performance statistics
func (r *Requester) updateStats(metrics PerformanceMetrics) {
	r.statsMutex.Lock()
	defer r.statsMutex.Unlock()

	r.totalRequests += int64(metrics.RequestCount)
	r.totalQueueTime += metrics.QueueTime
	r.totalNetworkTime += metrics.NetworkTime
	r.totalBytes += metrics.BytesReceived
	r.totalRetries += int64(metrics.RetryAttempts)
	if metrics.RateLimitHit {
		r.rateLimitHits++
	}
}

// Stats returns cumulative statistics with per-request averages.
func (r *Requester) Stats() PerformanceMetrics {
	r.statsMutex.RLock()
	defer r.statsMutex.RUnlock()

	avgQueueTime := time.Duration(0)
	avgNetworkTime := time.Duration(0)
	avgParseTime := time.Duration(0)
	if r.totalRequests > 0 {
		avgQueueTime = time.Duration(int64(r.totalQueueTime) / r.totalRequests)
		avgNetworkTime = time.Duration(int64(r.totalNetworkTime) / r.totalRequests)
		avgParseTime = time.Duration(int64(r.totalParseTime) / r.totalRequests)
	}

	return PerformanceMetrics{
		RequestDuration: avgNetworkTime + avgQueueTime + avgParseTime,
		QueueTime:       avgQueueTime,
		NetworkTime:     avgNetworkTime,
		ParseTime:       avgParseTime,
		RequestCount:    int(r.totalRequests),
		BytesReceived:   r.totalBytes,
		RetryAttempts:   int(r.totalRetries),
		RateLimitHit:    r.rateLimitHits > 0,
	}
}
