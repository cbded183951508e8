package providers

import (
	"context"
	"time"

	"github.com/jwaldner/divvyarb/internal/models"
)

// PerformanceMetrics tracks timing and performance data for provider operations
type PerformanceMetrics struct {
	RequestDuration time.Duration `json:"request_duration"`
	QueueTime       time.Duration `json:"queue_time"`   // Time waiting for rate limiter
	NetworkTime     time.Duration `json:"network_time"` // Actual HTTP request time
	ParseTime       time.Duration `json:"parse_time"`   // decode time
	RequestCount    int           `json:"request_count"` // Number of API calls made
	BytesReceived   int64         `json:"bytes_received"`
	RateLimitHit    bool          `json:"rate_limit_hit"` // Did we hit rate limiting?
	RetryAttempts   int           `json:"retry_attempts"`
}

// Provider is the part every data source shares.
type Provider interface {
	// GetProviderName returns the name of the provider (e.g., "iex", "tradier")
	GetProviderName() string

	// GetPerformanceStats returns cumulative performance statistics
	GetPerformanceStats() PerformanceMetrics

	// Close cleans up any resources (connections, rate limiters, etc.)
	Close() error
}

// DividendProvider supplies the dividend calendar, delayed reference quotes
// and currency rates.
type DividendProvider interface {
	Provider

	// UpcomingDividends returns one record per base ticker.
	UpcomingDividends(ctx context.Context) ([]models.DividendRecord, error)

	// ReferenceQuotes returns delayed quotes keyed by ticker. OTC listings
	// and tickers without a price are left out.
	ReferenceQuotes(ctx context.Context, tickers []string) (map[string]models.ReferenceQuote, error)

	// FxRates returns USD<cur> rates for the given currencies.
	FxRates(ctx context.Context, currencies []string) (models.FxRates, error)
}

// OptionsProvider supplies realtime underlying quotes and option chains.
type OptionsProvider interface {
	Provider

	RealtimeQuote(ctx context.Context, ticker string) (models.Quote, error)

	// Expirations returns listed expirations, empty when the ticker has no
	// options.
	Expirations(ctx context.Context, ticker string) ([]time.Time, error)

	// Chain returns standard-size contracts of one expiration.
	Chain(ctx context.Context, ticker string, expiration time.Time) ([]models.OptionQuote, error)
}

// MemoProvider supplies OCC information memos.
type MemoProvider interface {
	Provider

	Memos(ctx context.Context) ([]models.OccMemo, error)
}
