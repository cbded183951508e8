// Package fixtures holds a frozen dividend universe shared by tests across
// packages. The numbers are hand-checked; change them only together with
// the expectations that depend on them.
package fixtures

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jwaldner/divvyarb/internal/models"
)

// Today is the scan date every fixture is built around.
var Today = Date("2024-05-10")

// Dec parses a decimal literal and panics on bad input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date parses a YYYY-MM-DD literal and panics on bad input.
func Date(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// Put builds a standard-size put leg.
func Put(ticker, expiration, strike, bid, ask string, volume int64) models.OptionQuote {
	return leg(ticker, expiration, strike, bid, ask, volume, models.OptionTypePut)
}

// Call builds a standard-size call leg.
func Call(ticker, expiration, strike, bid, ask string, volume int64) models.OptionQuote {
	return leg(ticker, expiration, strike, bid, ask, volume, models.OptionTypeCall)
}

func leg(ticker, expiration, strike, bid, ask string, volume int64, typ models.OptionType) models.OptionQuote {
	exp := Date(expiration)
	s := Dec(strike)
	right := "P"
	if typ == models.OptionTypeCall {
		right = "C"
	}
	return models.OptionQuote{
		Ticker:       ticker,
		Symbol:       fmt.Sprintf("%s%s%s%08d", ticker, exp.Format("060102"), right, s.Mul(decimal.NewFromInt(1000)).IntPart()),
		Expiration:   exp,
		Strike:       s,
		Type:         typ,
		Bid:          Dec(bid),
		Ask:          Dec(ask),
		Volume:       volume,
		ContractSize: models.StandardContractSize,
	}
}

// Dividend builds a dividend record.
func Dividend(ticker, exDate, recordDate, amount, currency string) models.DividendRecord {
	return models.DividendRecord{
		Ticker:     ticker,
		ExDate:     Date(exDate),
		RecordDate: Date(recordDate),
		Amount:     Dec(amount),
		Currency:   currency,
	}
}

// Snapshot builds a ticker snapshot with one chain.
func Snapshot(div models.DividendRecord, referencePrice, realtimeAsk string, expirations []string, chain []models.OptionQuote) models.TickerSnapshot {
	exps := make([]time.Time, 0, len(expirations))
	for _, e := range expirations {
		exps = append(exps, Date(e))
	}

	chains := make(map[string][]models.OptionQuote)
	for _, q := range chain {
		key := q.Expiration.Format(models.DateLayout)
		chains[key] = append(chains[key], q)
	}

	return models.TickerSnapshot{
		Dividend: div,
		ReferenceQuote: models.ReferenceQuote{
			Ticker:          div.Ticker,
			LatestPrice:     Dec(referencePrice),
			PrimaryExchange: "NASDAQ",
		},
		Realtime: models.Quote{
			Ticker: div.Ticker,
			Bid:    Dec(realtimeAsk).Sub(Dec("0.02")),
			Ask:    Dec(realtimeAsk),
		},
		Expirations: exps,
		Chains:      chains,
	}
}

// Universe returns the frozen snapshot set:
//
//	PSTX  USD 1.50 on 25.00 ref  -> 6.00%, best strike 25.00, profit 66.00
//	CADX  CAD 0.50 @ 1.25 on 10  -> 4.00%, strike 10.00, profit 36.00
//	ZERO  zero dividend          -> skipped
//	MEMO  named in an OCC memo   -> skipped
//	EXDT  ex-date is Today       -> skipped
//	LOSS  debit too wide         -> skipped, profit -4.00
func Universe() map[string]models.TickerSnapshot {
	return map[string]models.TickerSnapshot{
		"PSTX": Snapshot(
			Dividend("PSTX", "2024-05-14", "2024-05-15", "1.50", "USD"),
			"25.00", "24.90",
			[]string{"2024-05-24", "2024-05-10", "2024-05-17"},
			[]models.OptionQuote{
				Put("PSTX", "2024-05-17", "22.50", "0.05", "0.10", 10),
				Call("PSTX", "2024-05-17", "22.50", "2.45", "2.60", 3),
				Put("PSTX", "2024-05-17", "25.00", "1.10", "1.20", 42),
				Call("PSTX", "2024-05-17", "25.00", "0.30", "0.35", 12),
				Put("PSTX", "2024-05-17", "27.50", "3.00", "3.10", 7),
				Call("PSTX", "2024-05-17", "27.50", "0.05", "0.10", 1),
				Put("PSTX", "2024-05-24", "25.00", "0.90", "0.95", 99),
				Call("PSTX", "2024-05-24", "25.00", "0.60", "0.65", 99),
			},
		),
		"CADX": Snapshot(
			Dividend("CADX", "2024-05-15", "2024-05-16", "0.50", "CAD"),
			"10.00", "9.95",
			[]string{"2024-05-17"},
			[]models.OptionQuote{
				Put("CADX", "2024-05-17", "10.00", "0.15", "0.20", 5),
				Call("CADX", "2024-05-17", "10.00", "0.15", "0.20", 8),
			},
		),
		"ZERO": Snapshot(
			Dividend("ZERO", "2024-05-14", "2024-05-15", "0", "USD"),
			"30.00", "30.00",
			[]string{"2024-05-17"},
			[]models.OptionQuote{
				Put("ZERO", "2024-05-17", "35.00", "0.00", "0.01", 1),
			},
		),
		"MEMO": Snapshot(
			Dividend("MEMO", "2024-05-14", "2024-05-15", "5.00", "USD"),
			"20.00", "19.00",
			[]string{"2024-05-17"},
			[]models.OptionQuote{
				Put("MEMO", "2024-05-17", "20.00", "0.95", "1.00", 1),
				Call("MEMO", "2024-05-17", "20.00", "0.90", "1.00", 1),
			},
		),
		"EXDT": Snapshot(
			Dividend("EXDT", "2024-05-10", "2024-05-13", "2.00", "USD"),
			"40.00", "39.50",
			[]string{"2024-05-17"},
			[]models.OptionQuote{
				Put("EXDT", "2024-05-17", "40.00", "0.45", "0.50", 1),
				Call("EXDT", "2024-05-17", "40.00", "0.45", "0.50", 1),
			},
		),
		"LOSS": Snapshot(
			Dividend("LOSS", "2024-05-14", "2024-05-15", "2.00", "USD"),
			"50.00", "48.00",
			[]string{"2024-05-17"},
			[]models.OptionQuote{
				Put("LOSS", "2024-05-17", "50.00", "4.90", "5.00", 3),
				Call("LOSS", "2024-05-17", "50.00", "1.00", "1.10", 3),
			},
		),
	}
}

// FxRates returns the rates the universe needs.
func FxRates() models.FxRates {
	return models.FxRates{"USDCAD": Dec("1.25")}
}

// Memos returns an OCC feed naming MEMO.
func Memos() []models.OccMemo {
	return []models.OccMemo{
		{Description: "Option Symbol: ABCD  Date: 05/09/24  Subject: Name change"},
		{Description: "Symbol: MEMO  New Symbol: MEMO1  Subject: Special Dividend"},
	}
}
