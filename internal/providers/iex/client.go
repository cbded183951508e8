package iex

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwaldner/divvyarb/internal/logger"
	"github.com/jwaldner/divvyarb/internal/models"
	"github.com/jwaldner/divvyarb/internal/providers"
	"github.com/jwaldner/divvyarb/internal/utils"
)

// MaxBatchSize is the IEX limit on symbols per batch quote call.
const MaxBatchSize = 100

// Config configures an IEX Cloud client.
type Config struct {
	BaseURL           string
	Token             string
	RequestsPerSecond float64
	Timeout           time.Duration
	MaxRetries        int
	BatchSize         int
}

// Client implements providers.DividendProvider against IEX Cloud.
type Client struct {
	baseURL   string
	token     string
	batchSize int
	requester *providers.Requester
}

// NewClient creates a new IEX Cloud client
func NewClient(cfg Config) *Client {
	batch := cfg.BatchSize
	if batch <= 0 || batch > MaxBatchSize {
		batch = MaxBatchSize
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		batchSize: batch,
		requester: providers.NewRequester(providers.RequesterConfig{
			Name:              "iex",
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			MaxRetries:        cfg.MaxRetries,
			Headers:           map[string]string{"Accept": "application/json"},
		}),
	}
}

// GetProviderName returns the provider name
func (c *Client) GetProviderName() string { return "iex" }

// GetPerformanceStats returns cumulative performance statistics
func (c *Client) GetPerformanceStats() providers.PerformanceMetrics { return c.requester.Stats() }

// Close cleans up resources
func (c *Client) Close() error { return nil }

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.token)
	query.Set("format", "json")

	resp, err := c.requester.Get(ctx, c.baseURL+path, query)
	if err != nil {
		return err
	}

	if err := c.requester.DecodeJSON(resp, out); err != nil {
		return fmt.Errorf("iex %s: %w", path, err)
	}
	return nil
}

type dividendResponse struct {
	Symbol     string          `json:"symbol"`
	ExDate     string          `json:"exDate"`
	RecordDate string          `json:"recordDate"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}

// UpcomingDividends fetches the whole upcoming dividend calendar. Class
// suffixes are dropped (CWEN.A becomes CWEN) and the first record seen for a
// base symbol wins.
func (c *Client) UpcomingDividends(ctx context.Context) ([]models.DividendRecord, error) {
	var raw []dividendResponse
	if err := c.get(ctx, "/stock/market/upcoming-dividends", nil, &raw); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(raw))
	records := make([]models.DividendRecord, 0, len(raw))

	for _, item := range raw {
		ticker := utils.BaseSymbol(item.Symbol)
		if ticker == "" {
			continue
		}
		if seen[ticker] {
			logger.Debug.Printf("iex: duplicate dividend for %s (%s) ignored", ticker, item.Symbol)
			continue
		}

		exDate, err := utils.ParseDate(item.ExDate)
		if err != nil {
			logger.Warn.Printf("iex: %s ex date: %v", item.Symbol, err)
			continue
		}
		recordDate, err := utils.ParseDate(item.RecordDate)
		if err != nil {
			logger.Warn.Printf("iex: %s record date: %v", item.Symbol, err)
			continue
		}

		seen[ticker] = true
		records = append(records, models.DividendRecord{
			Ticker:     ticker,
			ExDate:     exDate,
			RecordDate: recordDate,
			Amount:     item.Amount,
			Currency:   strings.ToUpper(strings.TrimSpace(item.Currency)),
		})
	}

	logger.Info.Printf("iex: %d upcoming dividends", len(records))
	return records, nil
}

type quoteResponse struct {
	Symbol          string              `json:"symbol"`
	LatestPrice     decimal.NullDecimal `json:"latestPrice"`
	PrimaryExchange string              `json:"primaryExchange"`
}

type batchResponse map[string]struct {
	Quote *quoteResponse `json:"quote"`
}

// ReferenceQuotes fetches delayed quotes in batches. OTC listings never have
// listed options and are dropped here.
func (c *Client) ReferenceQuotes(ctx context.Context, tickers []string) (map[string]models.ReferenceQuote, error) {
	quotes := make(map[string]models.ReferenceQuote, len(tickers))

	for _, batch := range chunk(tickers, c.batchSize) {
		query := url.Values{}
		query.Set("symbols", strings.Join(batch, ","))
		query.Set("types", "quote")

		var raw batchResponse
		if err := c.get(ctx, "/stock/market/batch", query, &raw); err != nil {
			// One bad batch should not sink the rest of the calendar.
			logger.Warn.Printf("iex: batch quote for %d symbols failed: %v", len(batch), err)
			continue
		}

		for symbol, entry := range raw {
			if entry.Quote == nil {
				continue
			}
			if strings.Contains(strings.ToUpper(entry.Quote.PrimaryExchange), "OTC") {
				logger.Verbose.Printf("iex: %s is OTC (%s), dropped", symbol, entry.Quote.PrimaryExchange)
				continue
			}
			if !entry.Quote.LatestPrice.Valid {
				continue
			}
			quotes[symbol] = models.ReferenceQuote{
				Ticker:          symbol,
				LatestPrice:     entry.Quote.LatestPrice.Decimal,
				PrimaryExchange: entry.Quote.PrimaryExchange,
			}
		}
	}

	return quotes, nil
}

type fxResponse struct {
	Symbol string              `json:"symbol"`
	Rate   decimal.NullDecimal `json:"rate"`
}

// FxRates fetches the latest USD<cur> rates in one call.
func (c *Client) FxRates(ctx context.Context, currencies []string) (models.FxRates, error) {
	pairs := make([]string, 0, len(currencies))
	for _, cur := range currencies {
		pairs = append(pairs, models.PairFor(cur))
	}
	sort.Strings(pairs)

	query := url.Values{}
	query.Set("symbols", strings.Join(pairs, ","))

	var raw []*fxResponse
	if err := c.get(ctx, "/fx/latest", query, &raw); err != nil {
		return nil, err
	}

	rates := make(models.FxRates, len(raw))
	for _, item := range raw {
		if item == nil || !item.Rate.Valid {
			continue
		}
		rates[item.Symbol] = item.Rate.Decimal
	}
	return rates, nil
}

func chunk(items []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
