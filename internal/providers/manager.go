package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwaldner/divvyarb/internal/logger"
	"github.com/jwaldner/divvyarb/internal/models"
)

const slowRequestThreshold = 5 * time.Second

// ProviderManager fronts the three data sources with error context and slow
// call logging.
type ProviderManager struct {
	dividends DividendProvider
	options   OptionsProvider
	memos     MemoProvider
}

// NewProviderManager creates a new provider manager
func NewProviderManager(dividends DividendProvider, options OptionsProvider, memos MemoProvider) *ProviderManager {
	return &ProviderManager{
		dividends: dividends,
		options:   options,
		memos:     memos,
	}
}

func logIfSlow(p Provider, op string, start time.Time) {
	if d := time.Since(start); d > slowRequestThreshold {
		logger.Warn.Printf("SLOW REQUEST: %s %s took %v", p.GetProviderName(), op, d)
	}
}

// UpcomingDividends is a convenience wrapper that adds logging
func (pm *ProviderManager) UpcomingDividends(ctx context.Context) ([]models.DividendRecord, error) {
	defer logIfSlow(pm.dividends, "upcoming dividends", time.Now())

	records, err := pm.dividends.UpcomingDividends(ctx)
	if err != nil {
		return nil, fmt.Errorf("provider %s failed to get upcoming dividends: %w", pm.dividends.GetProviderName(), err)
	}
	return records, nil
}

// ReferenceQuotes is a convenience wrapper that adds logging
func (pm *ProviderManager) ReferenceQuotes(ctx context.Context, tickers []string) (map[string]models.ReferenceQuote, error) {
	defer logIfSlow(pm.dividends, fmt.Sprintf("reference quotes (%d)", len(tickers)), time.Now())

	quotes, err := pm.dividends.ReferenceQuotes(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("provider %s failed to get reference quotes: %w", pm.dividends.GetProviderName(), err)
	}
	return quotes, nil
}

// FxRates is a convenience wrapper that adds logging
func (pm *ProviderManager) FxRates(ctx context.Context, currencies []string) (models.FxRates, error) {
	if len(currencies) == 0 {
		return models.FxRates{}, nil
	}
	defer logIfSlow(pm.dividends, "fx rates", time.Now())

	rates, err := pm.dividends.FxRates(ctx, currencies)
	if err != nil {
		return nil, fmt.Errorf("provider %s failed to get fx rates: %w", pm.dividends.GetProviderName(), err)
	}
	return rates, nil
}

// RealtimeQuote is a convenience wrapper that adds logging
func (pm *ProviderManager) RealtimeQuote(ctx context.Context, ticker string) (models.Quote, error) {
	defer logIfSlow(pm.options, "quote "+ticker, time.Now())

	quote, err := pm.options.RealtimeQuote(ctx, ticker)
	if err != nil {
		return models.Quote{}, fmt.Errorf("provider %s failed to get quote for %s: %w", pm.options.GetProviderName(), ticker, err)
	}
	return quote, nil
}

// Expirations is a convenience wrapper that adds logging
func (pm *ProviderManager) Expirations(ctx context.Context, ticker string) ([]time.Time, error) {
	defer logIfSlow(pm.options, "expirations "+ticker, time.Now())

	exps, err := pm.options.Expirations(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("provider %s failed to get expirations for %s: %w", pm.options.GetProviderName(), ticker, err)
	}
	return exps, nil
}

// Chain is a convenience wrapper that adds logging
func (pm *ProviderManager) Chain(ctx context.Context, ticker string, expiration time.Time) ([]models.OptionQuote, error) {
	exp := expiration.Format(models.DateLayout)
	defer logIfSlow(pm.options, "chain "+ticker+" "+exp, time.Now())

	chain, err := pm.options.Chain(ctx, ticker, expiration)
	if err != nil {
		return nil, fmt.Errorf("provider %s failed to get %s chain for %s: %w", pm.options.GetProviderName(), exp, ticker, err)
	}
	return chain, nil
}

// Memos is a convenience wrapper that adds logging
func (pm *ProviderManager) Memos(ctx context.Context) ([]models.OccMemo, error) {
	defer logIfSlow(pm.memos, "memos", time.Now())

	memos, err := pm.memos.Memos(ctx)
	if err != nil {
		return nil, fmt.Errorf("provider %s failed to get memos: %w", pm.memos.GetProviderName(), err)
	}
	return memos, nil
}

func (pm *ProviderManager) all() []Provider {
	return []Provider{pm.dividends, pm.options, pm.memos}
}

// GetPerformanceReport returns a detailed performance report
func (pm *ProviderManager) GetPerformanceReport() string {
	var b strings.Builder
	for _, p := range pm.all() {
		stats := p.GetPerformanceStats()
		fmt.Fprintf(&b, `
Provider Performance Report (%s)
=====================================
Requests Made:      %d
Average Queue Time: %v
Average Network:    %v
Average Parse:      %v
Bytes Received:     %d
Rate Limit Hits:    %v
Retry Attempts:     %d
`,
			p.GetProviderName(),
			stats.RequestCount,
			stats.QueueTime,
			stats.NetworkTime,
			stats.ParseTime,
			stats.BytesReceived,
			stats.RateLimitHit,
			stats.RetryAttempts,
		)
	}
	return b.String()
}

// Close cleans up every provider
func (pm *ProviderManager) Close() error {
	var errs []error
	for _, p := range pm.all() {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
