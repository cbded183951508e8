package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StandardContractSize is the only contract multiplier the scanner accepts.
const StandardContractSize = 100

// DateLayout is the wire and display format for calendar dates.
const DateLayout = "2006-01-02"

// OptionType is the right of an option contract.
type OptionType string

const (
	OptionTypePut  OptionType = "put"
	OptionTypeCall OptionType = "call"
)

// DividendRecord is one upcoming dividend as reported by the dividend feed.
// Amount is in the currency named by Currency.
type DividendRecord struct {
	Ticker     string          `json:"ticker"`
	ExDate     time.Time       `json:"ex_date"`
	RecordDate time.Time       `json:"record_date"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}

// ReferenceQuote is the delayed quote used to calibrate dividend yield.
type ReferenceQuote struct {
	Ticker          string          `json:"ticker"`
	LatestPrice     decimal.Decimal `json:"latest_price"`
	PrimaryExchange string          `json:"primary_exchange"`
}

// Quote is the realtime underlying quote used for profit calculation.
type Quote struct {
	Ticker string          `json:"ticker"`
	Bid    decimal.Decimal `json:"bid"`
	Ask    decimal.Decimal `json:"ask"`
}

// FxRates maps a currency pair such as "USDCAD" to the number of units of
// the quote currency per US dollar.
type FxRates map[string]decimal.Decimal

// PairFor returns the FX pair symbol used to convert currency into USD.
func PairFor(currency string) string {
	return "USD" + currency
}

// DividendYield is the derived yield of one ticker's upcoming dividend.
type DividendYield struct {
	Ticker    string          `json:"ticker"`
	Percent   decimal.Decimal `json:"percent"`
	USDAmount decimal.Decimal `json:"usd_amount"`
}

// OptionQuote is one leg of an option chain. Bid and Ask are zero when the
// provider reported no quote.
type OptionQuote struct {
	Ticker       string          `json:"ticker"`
	Symbol       string          `json:"symbol"`
	Expiration   time.Time       `json:"expiration"`
	Strike       decimal.Decimal `json:"strike"`
	Type         OptionType      `json:"type"`
	Bid          decimal.Decimal `json:"bid"`
	Ask          decimal.Decimal `json:"ask"`
	Volume       int64           `json:"volume"`
	ContractSize int             `json:"contract_size"`
}

// StrikePair joins the put ask and call bid quoted at one strike.
type StrikePair struct {
	Strike    decimal.Decimal `json:"strike"`
	PutAsk    decimal.Decimal `json:"put_ask"`
	CallBid   decimal.Decimal `json:"call_bid"`
	PutVolume int64           `json:"put_volume"`
	HasPut    bool            `json:"has_put"`
	HasCall   bool            `json:"has_call"`
}

// ArbitrageCandidate is the best profitable long conversion for one ticker.
type ArbitrageCandidate struct {
	Ticker            string          `json:"ticker"`
	Strike            decimal.Decimal `json:"strike"`
	UnderlyingPrice   decimal.Decimal `json:"underlying_price"`
	DividendAmount    decimal.Decimal `json:"dividend_amount"`
	DividendYield     decimal.Decimal `json:"dividend_yield"`
	ProfitPerContract decimal.Decimal `json:"profit_per_contract"`
	ExDate            time.Time       `json:"ex_date"`
	Expiration        time.Time       `json:"expiration"`
	DaysToExpiry      int             `json:"days_to_expiry"`
	PutVolume         int64           `json:"put_volume"`
}

// OccMemo is one OCC information memo description.
type OccMemo struct {
	Description string `json:"description"`
}

// TickerSnapshot bundles everything fetched for one ticker before evaluation.
// Chains is keyed by expiration date in DateLayout.
type TickerSnapshot struct {
	Dividend       DividendRecord           `json:"dividend"`
	ReferenceQuote ReferenceQuote           `json:"reference_quote"`
	Realtime       Quote                    `json:"realtime"`
	Expirations    []time.Time              `json:"expirations"`
	Chains         map[string][]OptionQuote `json:"chains,omitempty"`
}

// UniverseEntry is the cacheable part of a ticker snapshot.
type UniverseEntry struct {
	Dividend       DividendRecord `json:"dividend"`
	ReferenceQuote ReferenceQuote `json:"reference_quote"`
	Expirations    []time.Time    `json:"expirations"`
}

// UniverseSnapshot is the same-day cache blob: optionable, exchange listed
// dividend payers with their reference quotes and expirations.
type UniverseSnapshot struct {
	Date      string                   `json:"date"`
	CreatedAt time.Time                `json:"created_at"`
	Entries   map[string]UniverseEntry `json:"entries"`
}
