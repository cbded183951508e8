package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jwaldner/divvyarb/internal/arb"
	"github.com/jwaldner/divvyarb/internal/audit"
	"github.com/jwaldner/divvyarb/internal/config"
	"github.com/jwaldner/divvyarb/internal/logger"
	"github.com/jwaldner/divvyarb/internal/models"
	"github.com/jwaldner/divvyarb/internal/report"
	"github.com/jwaldner/divvyarb/internal/utils"
)

// MarketData is everything the pipeline fetches. providers.ProviderManager
// implements it.
type MarketData interface {
	UpcomingDividends(ctx context.Context) ([]models.DividendRecord, error)
	ReferenceQuotes(ctx context.Context, tickers []string) (map[string]models.ReferenceQuote, error)
	FxRates(ctx context.Context, currencies []string) (models.FxRates, error)
	RealtimeQuote(ctx context.Context, ticker string) (models.Quote, error)
	Expirations(ctx context.Context, ticker string) ([]time.Time, error)
	Chain(ctx context.Context, ticker string, expiration time.Time) ([]models.OptionQuote, error)
	Memos(ctx context.Context) ([]models.OccMemo, error)
}

// UniverseCache stores the day's universe. cache.Cache implements it.
type UniverseCache interface {
	Load(date time.Time) (*models.UniverseSnapshot, bool, error)
	Save(snap *models.UniverseSnapshot) error
}

// ScanOptions overrides configuration for one run. Nil pointers keep the
// configured value.
type ScanOptions struct {
	Tickers         []string
	NoCache         bool
	StrictPairing   *bool
	MaxResults      *int
	PerContractCost *decimal.Decimal
}

// ScanOutcome is the result of one pipeline run.
type ScanOutcome struct {
	RunID          string                      `json:"run_id"`
	ScanDate       time.Time                   `json:"scan_date"`
	StartedAt      time.Time                   `json:"started_at"`
	Duration       time.Duration               `json:"duration"`
	CacheHit       bool                        `json:"cache_hit"`
	UniverseCount  int                         `json:"universe_count"`
	EvaluatedCount int                         `json:"evaluated_count"`
	Candidates     []models.ArbitrageCandidate `json:"candidates"`
	TotalFound     int                         `json:"total_found"`
	Skipped        []arb.Skip                  `json:"skipped"`
	AuditPath      string                      `json:"audit_path,omitempty"`
}

// ScanService runs the fetch, evaluate, rank pipeline.
type ScanService struct {
	data     MarketData
	cache    UniverseCache
	cfg      *config.Config
	progress io.Writer
	now      func() time.Time

	runMu  sync.Mutex
	mu     sync.RWMutex
	latest *ScanOutcome
}

// NewScanService creates the pipeline. cache may be nil.
func NewScanService(data MarketData, cache UniverseCache, cfg *config.Config) *ScanService {
	return &ScanService{
		data:  data,
		cache: cache,
		cfg:   cfg,
		now:   time.Now,
	}
}

// WithProgress draws progress bars for the slow per-ticker stages on w.
func (s *ScanService) WithProgress(w io.Writer) *ScanService {
	s.progress = w
	return s
}

// WithClock replaces the wall clock.
func (s *ScanService) WithClock(now func() time.Time) *ScanService {
	s.now = now
	return s
}

// Latest returns the most recent completed run, if any.
func (s *ScanService) Latest() (*ScanOutcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}

// Run executes one complete batch pass. Runs are serialized so concurrent
// callers share the provider rate budget instead of racing for it.
func (s *ScanService) Run(ctx context.Context, opts ScanOptions) (*ScanOutcome, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	started := s.now()
	runID := uuid.NewString()
	today := utils.MarketToday(started)
	logger.Info.Printf("scan %s: starting for %s", runID, today.Format(models.DateLayout))

	fees := arb.Fees{PerContractCost: s.cfg.Fees.PerContract(), ActionsPerCollar: s.cfg.Fees.ActionsPerCollar}
	if opts.PerContractCost != nil {
		fees.PerContractCost = *opts.PerContractCost
	}
	strict := s.cfg.Scan.StrictPairing
	if opts.StrictPairing != nil {
		strict = *opts.StrictPairing
	}
	pairing := arb.ParsePairingMode(strict)

	trail := s.newRecorder(today, audit.Header{
		RunID:     runID,
		ScanDate:  today.Format(models.DateLayout),
		StartTime: started,
		Fees:      fees.Total().StringFixed(2),
		Pairing:   pairing.String(),
	})
	closed := false
	defer func() {
		if !closed {
			trail.Close(map[string]string{"status": "aborted"})
		}
	}()

	universe, cacheHit, err := s.universe(ctx, today, opts)
	if err != nil {
		return nil, err
	}
	trail.Record("", audit.OutcomeStage, map[string]interface{}{"stage": "universe", "tickers": len(universe.Entries), "cache_hit": cacheHit})

	rates, err := s.data.FxRates(ctx, foreignCurrencies(universe))
	if err != nil {
		return nil, fmt.Errorf("fetching fx rates: %w", err)
	}

	memos, err := s.data.Memos(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching occ memos: %w", err)
	}
	trail.Record("", audit.OutcomeStage, map[string]interface{}{"stage": "reference", "fx_rates": len(rates), "memos": len(memos)})

	snapshots, evaluated := s.fetchMarket(ctx, universe, today, memos)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scanner := arb.NewScanner(arb.Options{Today: today, Fees: fees, Pairing: pairing})
	result, err := scanner.Run(arb.Input{Tickers: snapshots, FxRates: rates, Memos: memos})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", runID, err)
	}

	for _, c := range result.Candidates {
		trail.Record(c.Ticker, audit.OutcomeCandidate, c)
	}
	for _, skip := range result.Skipped {
		trail.Record(skip.Ticker, audit.OutcomeSkipped, skip)
	}

	maxResults := s.cfg.Scan.MaxResults
	if opts.MaxResults != nil {
		maxResults = *opts.MaxResults
	}

	outcome := &ScanOutcome{
		RunID:          runID,
		ScanDate:       today,
		StartedAt:      started,
		CacheHit:       cacheHit,
		UniverseCount:  len(universe.Entries),
		EvaluatedCount: evaluated,
		Candidates:     report.Limit(result.Candidates, maxResults),
		TotalFound:     len(result.Candidates),
		Skipped:        result.Skipped,
	}
	outcome.Duration = s.now().Sub(started)

	closed = true
	path, err := trail.Close(map[string]interface{}{
		"candidates": outcome.TotalFound,
		"skipped":    len(outcome.Skipped),
		"evaluated":  outcome.EvaluatedCount,
	})
	if err != nil {
		logger.Warn.Printf("scan %s: audit trail: %v", runID, err)
	}
	outcome.AuditPath = path

	logger.Always.Printf("scan %s: %d candidates from %d tickers in %v", runID, outcome.TotalFound, outcome.UniverseCount, outcome.Duration)

	s.mu.Lock()
	s.latest = outcome
	s.mu.Unlock()

	return outcome, nil
}

func (s *ScanService) newRecorder(today time.Time, header audit.Header) audit.Recorder {
	if !s.cfg.Audit.Enabled {
		return audit.Nop{}
	}
	return audit.NewTrail(s.cfg.Audit, today, header)
}

// universe returns the day's dividend payers with reference quotes and
// expirations, from cache when possible. Filtered runs never touch the cache.
func (s *ScanService) universe(ctx context.Context, today time.Time, opts ScanOptions) (*models.UniverseSnapshot, bool, error) {
	useCache := s.cache != nil && s.cfg.Cache.Enabled && len(opts.Tickers) == 0

	if useCache && !opts.NoCache {
		snap, ok, err := s.cache.Load(today)
		if err != nil {
			logger.Warn.Printf("cache: %v", err)
		} else if ok {
			logger.Info.Printf("cache: using universe from %s (%d tickers)", snap.Date, len(snap.Entries))
			return snap, true, nil
		}
	}

	snap, err := s.buildUniverse(ctx, today, opts.Tickers)
	if err != nil {
		return nil, false, err
	}

	if useCache {
		if err := s.cache.Save(snap); err != nil {
			logger.Warn.Printf("cache: saving universe: %v", err)
		}
	}
	return snap, false, nil
}

func (s *ScanService) buildUniverse(ctx context.Context, today time.Time, only []string) (*models.UniverseSnapshot, error) {
	dividends, err := s.data.UpcomingDividends(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching dividends: %w", err)
	}

	wanted := make(map[string]bool, len(only))
	for _, t := range only {
		wanted[t] = true
	}

	byTicker := make(map[string]models.DividendRecord, len(dividends))
	for _, d := range dividends {
		if len(wanted) > 0 && !wanted[d.Ticker] {
			continue
		}
		if _, dup := byTicker[d.Ticker]; !dup {
			byTicker[d.Ticker] = d
		}
	}

	tickers := make([]string, 0, len(byTicker))
	for t := range byTicker {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	quotes, err := s.data.ReferenceQuotes(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("fetching reference quotes: %w", err)
	}

	listed := make([]string, 0, len(quotes))
	for _, t := range tickers {
		if _, ok := quotes[t]; ok {
			listed = append(listed, t)
		}
	}
	logger.Info.Printf("universe: %d dividends, %d exchange listed", len(tickers), len(listed))

	var mu sync.Mutex
	entries := make(map[string]models.UniverseEntry, len(listed))
	bar := s.newBar(len(listed), "expirations")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for _, ticker := range listed {
		g.Go(func() error {
			defer bar.Add(1)

			exps, err := s.data.Expirations(gctx, ticker)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn.Printf("%s: %v", ticker, err)
				return nil
			}
			if len(exps) == 0 {
				logger.Verbose.Printf("%s: no listed options", ticker)
				return nil
			}

			mu.Lock()
			entries[ticker] = models.UniverseEntry{
				Dividend:       byTicker[ticker],
				ReferenceQuote: quotes[ticker],
				Expirations:    exps,
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	bar.Finish()

	return &models.UniverseSnapshot{
		Date:      today.Format(models.DateLayout),
		CreatedAt: s.now(),
		Entries:   entries,
	}, nil
}

// fetchMarket pulls the realtime quote and the record-date expiration chain
// for every ticker that can still produce a candidate. Tickers that cannot
// go to the scanner without market data so their skip reason is recorded.
func (s *ScanService) fetchMarket(ctx context.Context, universe *models.UniverseSnapshot, today time.Time, memos []models.OccMemo) (map[string]models.TickerSnapshot, int) {
	snapshots := make(map[string]models.TickerSnapshot, len(universe.Entries))
	var pending []string

	for ticker, entry := range universe.Entries {
		snapshots[ticker] = models.TickerSnapshot{
			Dividend:       entry.Dividend,
			ReferenceQuote: entry.ReferenceQuote,
			Expirations:    entry.Expirations,
		}
		if needsMarketData(ticker, entry, today, memos) {
			pending = append(pending, ticker)
		}
	}
	sort.Strings(pending)

	var mu sync.Mutex
	bar := s.newBar(len(pending), "chains")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for _, ticker := range pending {
		g.Go(func() error {
			defer bar.Add(1)

			entry := universe.Entries[ticker]
			expiration, _ := arb.SelectExpiration(entry.Expirations, entry.Dividend.RecordDate)

			quote, err := s.data.RealtimeQuote(gctx, ticker)
			if err != nil {
				logger.Warn.Printf("%s: %v", ticker, err)
				return nil
			}
			chain, chainErr := s.data.Chain(gctx, ticker, expiration)
			if chainErr != nil {
				logger.Warn.Printf("%s: %v", ticker, chainErr)
			}

			mu.Lock()
			snap := snapshots[ticker]
			snap.Realtime = quote
			if chainErr == nil {
				snap.Chains = map[string][]models.OptionQuote{expiration.Format(models.DateLayout): chain}
			}
			snapshots[ticker] = snap
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	bar.Finish()

	return snapshots, len(pending)
}

func (s *ScanService) concurrency() int {
	if s.cfg.Scan.Concurrency < 1 {
		return 1
	}
	return s.cfg.Scan.Concurrency
}

func needsMarketData(ticker string, entry models.UniverseEntry, today time.Time, memos []models.OccMemo) bool {
	div := entry.Dividend
	if !div.Amount.IsPositive() || div.Currency == "" || !entry.ReferenceQuote.LatestPrice.IsPositive() {
		return false
	}
	if utils.SameDay(div.ExDate, today) || arb.IsFlagged(ticker, memos) {
		return false
	}
	_, ok := arb.SelectExpiration(entry.Expirations, div.RecordDate)
	return ok
}

func foreignCurrencies(universe *models.UniverseSnapshot) []string {
	seen := map[string]bool{}
	var out []string
	for _, entry := range universe.Entries {
		cur := entry.Dividend.Currency
		if cur == "" || cur == arb.USD || !entry.Dividend.Amount.IsPositive() || seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
	}
	sort.Strings(out)
	return out
}

func (s *ScanService) newBar(n int, desc string) *progressbar.ProgressBar {
	w := s.progress
	if w == nil || !s.cfg.Scan.ShowProgress {
		w = io.Discard
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
