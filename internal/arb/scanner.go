package arb

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwaldner/divvyarb/internal/models"
	"github.com/jwaldner/divvyarb/internal/utils"
)

// SkipReason explains why a ticker produced no candidate.
type SkipReason string

const (
	ReasonZeroDividend     SkipReason = "zero_dividend"
	ReasonInvalidDividend  SkipReason = "invalid_dividend"
	ReasonUnknownCurrency  SkipReason = "unknown_currency"
	ReasonNoReferencePrice SkipReason = "no_reference_price"
	ReasonExDateToday      SkipReason = "ex_date_today"
	ReasonOccMemo          SkipReason = "occ_memo"
	ReasonNoRealtimeQuote  SkipReason = "no_realtime_quote"
	ReasonNoExpiration     SkipReason = "no_expiration"
	ReasonNoChain          SkipReason = "no_chain"
	ReasonNoStrikes        SkipReason = "no_itm_strikes"
	ReasonNotProfitable    SkipReason = "not_profitable"
)

// Skip records one ticker that was dropped during a scan.
type Skip struct {
	Ticker string     `json:"ticker"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// Options configures a Scanner.
type Options struct {
	// Today is the calendar date the scan runs on.
	Today   time.Time
	Fees    Fees
	Pairing PairingMode
}

// Input is the complete, already fetched snapshot a scan runs over.
type Input struct {
	Tickers map[string]models.TickerSnapshot
	FxRates models.FxRates
	Memos   []models.OccMemo
}

// Result holds ranked candidates plus the reasons other tickers fell out.
type Result struct {
	Candidates []models.ArbitrageCandidate
	Skipped    []Skip
	Yields     map[string]models.DividendYield
}

// Scanner finds long conversion arbs across a ticker universe. It performs
// no I/O and is safe for concurrent use.
type Scanner struct {
	opts Options
}

// NewScanner creates a scanner.
func NewScanner(opts Options) *Scanner {
	if opts.Today.IsZero() {
		opts.Today = utils.MarketToday(time.Now())
	}
	return &Scanner{opts: opts}
}

// Scan returns at most one candidate per ticker, ranked by descending
// dividend yield.
func (s *Scanner) Scan(in Input) ([]models.ArbitrageCandidate, error) {
	result, err := s.Run(in)
	if err != nil {
		return nil, err
	}
	return result.Candidates, nil
}

// Run is Scan with the per-ticker skip reasons kept.
func (s *Scanner) Run(in Input) (*Result, error) {
	tickers := make([]string, 0, len(in.Tickers))
	for ticker := range in.Tickers {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	result := &Result{
		Candidates: []models.ArbitrageCandidate{},
		Skipped:    []Skip{},
		Yields:     make(map[string]models.DividendYield),
	}

	// Yields first: a missing FX rate must abort before anything is ranked.
	for _, ticker := range tickers {
		snap := in.Tickers[ticker]
		div := snap.Dividend
		price := snap.ReferenceQuote.LatestPrice

		if reason := yieldApplicability(div.Amount, div.Currency, price); reason != "" {
			result.Skipped = append(result.Skipped, Skip{Ticker: ticker, Reason: reason})
			continue
		}

		y, _, err := ComputeYield(ticker, div.Amount, div.Currency, price, in.FxRates)
		if err != nil {
			return nil, fmt.Errorf("computing yield for %s: %w", ticker, err)
		}
		result.Yields[ticker] = y
	}

	fees := s.opts.Fees.Total()
	for _, ticker := range tickers {
		y, ok := result.Yields[ticker]
		if !ok {
			continue
		}

		candidate, skip := s.evaluateTicker(ticker, in.Tickers[ticker], y, in.Memos, fees)
		if skip != nil {
			result.Skipped = append(result.Skipped, *skip)
			continue
		}
		result.Candidates = append(result.Candidates, *candidate)
	}

	RankCandidates(result.Candidates)
	return result, nil
}

func (s *Scanner) evaluateTicker(ticker string, snap models.TickerSnapshot, y models.DividendYield, memos []models.OccMemo, fees decimal.Decimal) (*models.ArbitrageCandidate, *Skip) {
	skip := func(reason SkipReason, detail string) (*models.ArbitrageCandidate, *Skip) {
		return nil, &Skip{Ticker: ticker, Reason: reason, Detail: detail}
	}

	if utils.SameDay(snap.Dividend.ExDate, s.opts.Today) {
		return skip(ReasonExDateToday, snap.Dividend.ExDate.Format(models.DateLayout))
	}
	if IsFlagged(ticker, memos) {
		return skip(ReasonOccMemo, "")
	}

	expiration, ok := SelectExpiration(snap.Expirations, snap.Dividend.RecordDate)
	if !ok {
		return skip(ReasonNoExpiration, "record date "+snap.Dividend.RecordDate.Format(models.DateLayout))
	}

	ask := snap.Realtime.Ask.Round(2)
	if !ask.IsPositive() {
		return skip(ReasonNoRealtimeQuote, "")
	}

	chain, ok := snap.Chains[expiration.Format(models.DateLayout)]
	if !ok {
		return skip(ReasonNoChain, expiration.Format(models.DateLayout))
	}

	pairs := PairStrikesWithMode(chain, ask, s.opts.Pairing)
	if len(pairs) == 0 {
		return skip(ReasonNoStrikes, "ask "+ask.StringFixed(2))
	}

	pair, eval, ok := BestStrike(pairs, ask, y, fees)
	if !ok {
		return skip(ReasonNotProfitable, fmt.Sprintf("%d strikes, fees %s", len(pairs), fees.StringFixed(2)))
	}

	return &models.ArbitrageCandidate{
		Ticker:            ticker,
		Strike:            pair.Strike,
		UnderlyingPrice:   ask,
		DividendAmount:    y.USDAmount,
		DividendYield:     y.Percent,
		ProfitPerContract: eval.Profit,
		ExDate:            snap.Dividend.ExDate,
		Expiration:        expiration,
		DaysToExpiry:      utils.DaysUntil(s.opts.Today, expiration),
		PutVolume:         pair.PutVolume,
	}, nil
}

// RankCandidates orders candidates by descending yield, then ticker.
func RankCandidates(candidates []models.ArbitrageCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		cmp := candidates[i].DividendYield.Cmp(candidates[j].DividendYield)
		if cmp != 0 {
			return cmp > 0
		}
		return candidates[i].Ticker < candidates[j].Ticker
	})
}
