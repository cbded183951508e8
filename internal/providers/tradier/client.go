package tradier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwaldner/divvyarb/internal/logger"
	"github.com/jwaldner/divvyarb/internal/models"
	"github.com/jwaldner/divvyarb/internal/providers"
	"github.com/jwaldner/divvyarb/internal/utils"
)

// Config configures a Tradier client.
type Config struct {
	BaseURL           string
	Bearer            string // full Authorization header value, "Bearer ..."
	RequestsPerSecond float64
	Timeout           time.Duration
	MaxRetries        int
}

// Client implements providers.OptionsProvider against the Tradier markets API.
type Client struct {
	baseURL   string
	budget    *RateBudget
	requester *providers.Requester
}

// NewClient creates a new Tradier client. budget must not be nil.
func NewClient(cfg Config, budget *RateBudget) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		budget:  budget,
		requester: providers.NewRequester(providers.RequesterConfig{
			Name:              "tradier",
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			MaxRetries:        cfg.MaxRetries,
			Headers: map[string]string{
				"Accept":        "application/json",
				"Authorization": cfg.Bearer,
			},
		}),
	}
}

// GetProviderName returns the provider name
func (c *Client) GetProviderName() string { return "tradier" }

// GetPerformanceStats returns cumulative performance statistics
func (c *Client) GetPerformanceStats() providers.PerformanceMetrics { return c.requester.Stats() }

// Close cleans up resources
func (c *Client) Close() error { return nil }

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.budget.Throttle(ctx); err != nil {
		return err
	}

	resp, err := c.requester.Get(ctx, c.baseURL+path, query)
	if err != nil {
		return err
	}
	c.budget.Observe(resp.Header)

	if err := c.requester.DecodeJSON(resp, out); err != nil {
		return fmt.Errorf("tradier %s: %w", path, err)
	}
	return nil
}

// oneOrMany decodes Tradier's habit of returning a bare object instead of a
// one-element array, and null instead of an empty one.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*o = nil
		return nil
	case data[0] == '[':
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	default:
		var one T
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*o = []T{one}
		return nil
	}
}

// decimalOrZero substitutes zero for a price Tradier reports as null, which
// it does for strikes nobody is quoting.
func decimalOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

type quoteResponse struct {
	Symbol string              `json:"symbol"`
	Bid    decimal.NullDecimal `json:"bid"`
	Ask    decimal.NullDecimal `json:"ask"`
}

type quotesEnvelope struct {
	Quotes *struct {
		Quote oneOrMany[quoteResponse] `json:"quote"`
	} `json:"quotes"`
}

// RealtimeQuote fetches the live bid/ask of one underlying.
func (c *Client) RealtimeQuote(ctx context.Context, ticker string) (models.Quote, error) {
	query := url.Values{}
	query.Set("symbols", ticker)

	var env quotesEnvelope
	if err := c.get(ctx, "/v1/markets/quotes", query, &env); err != nil {
		return models.Quote{}, err
	}

	if env.Quotes != nil {
		for _, q := range env.Quotes.Quote {
			if strings.EqualFold(q.Symbol, ticker) {
				return models.Quote{
					Ticker: ticker,
					Bid:    decimalOrZero(q.Bid),
					Ask:    decimalOrZero(q.Ask),
				}, nil
			}
		}
	}

	return models.Quote{}, fmt.Errorf("tradier: no quote returned for %s", ticker)
}

type expirationsEnvelope struct {
	Expirations *struct {
		Date oneOrMany[string] `json:"date"`
	} `json:"expirations"`
}

// Expirations lists option expirations across all roots of the ticker.
func (c *Client) Expirations(ctx context.Context, ticker string) ([]time.Time, error) {
	query := url.Values{}
	query.Set("symbol", ticker)
	query.Set("includeAllRoots", "true")
	query.Set("strikes", "false")

	var env expirationsEnvelope
	if err := c.get(ctx, "/v1/markets/options/expirations", query, &env); err != nil {
		return nil, err
	}
	if env.Expirations == nil {
		return nil, nil
	}

	out := make([]time.Time, 0, len(env.Expirations.Date))
	for _, raw := range env.Expirations.Date {
		d, err := utils.ParseDate(raw)
		if err != nil {
			logger.Warn.Printf("tradier: %s expiration: %v", ticker, err)
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

type optionResponse struct {
	Symbol         string              `json:"symbol"`
	Underlying     string              `json:"underlying"`
	Strike         decimal.Decimal     `json:"strike"`
	OptionType     string              `json:"option_type"`
	Bid            decimal.NullDecimal `json:"bid"`
	Ask            decimal.NullDecimal `json:"ask"`
	Volume         int64               `json:"volume"`
	ContractSize   int                 `json:"contract_size"`
	ExpirationDate string              `json:"expiration_date"`
}

type chainEnvelope struct {
	Options *struct {
		Option oneOrMany[optionResponse] `json:"option"`
	} `json:"options"`
}

// Chain fetches one expiration of the ticker's option chain. Adjusted
// (non-100 share) contracts are dropped.
func (c *Client) Chain(ctx context.Context, ticker string, expiration time.Time) ([]models.OptionQuote, error) {
	query := url.Values{}
	query.Set("symbol", ticker)
	query.Set("expiration", expiration.Format(models.DateLayout))
	query.Set("greeks", "false")

	var env chainEnvelope
	if err := c.get(ctx, "/v1/markets/options/chains", query, &env); err != nil {
		return nil, err
	}
	// Ghost expirations come back with a null chain.
	if env.Options == nil {
		return nil, nil
	}

	chain := make([]models.OptionQuote, 0, len(env.Options.Option))
	for _, o := range env.Options.Option {
		if o.ContractSize != models.StandardContractSize {
			logger.Verbose.Printf("tradier: %s contract size %d dropped", o.Symbol, o.ContractSize)
			continue
		}

		var typ models.OptionType
		switch strings.ToLower(o.OptionType) {
		case "put":
			typ = models.OptionTypePut
		case "call":
			typ = models.OptionTypeCall
		default:
			continue
		}

		exp := expiration
		if o.ExpirationDate != "" {
			if d, err := utils.ParseDate(o.ExpirationDate); err == nil {
				exp = d
			}
		}

		chain = append(chain, models.OptionQuote{
			Ticker:       ticker,
			Symbol:       o.Symbol,
			Expiration:   exp,
			Strike:       o.Strike,
			Type:         typ,
			Bid:          decimalOrZero(o.Bid),
			Ask:          decimalOrZero(o.Ask),
			Volume:       o.Volume,
			ContractSize: o.ContractSize,
		})
	}
	return chain, nil
}
