package arb

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jwaldner/divvyarb/internal/models"
)

// USD is the currency all yields and profits are expressed in.
const USD = "USD"

// ErrMissingFxRate is returned when a dividend needs currency conversion and
// the rate feed did not return its pair. It aborts the whole scan.
var ErrMissingFxRate = errors.New("missing fx rate")

var hundred = decimal.NewFromInt(100)

// NormalizeToUSD converts a dividend amount in currency into US dollars.
// rates holds quote-currency units per dollar keyed by pair ("USDCAD").
func NormalizeToUSD(amount decimal.Decimal, currency string, rates models.FxRates) (decimal.Decimal, error) {
	if currency == USD {
		return amount, nil
	}

	pair := models.PairFor(currency)
	rate, ok := rates[pair]
	if !ok || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingFxRate, pair)
	}

	return amount.Div(rate), nil
}

// yieldApplicability returns the reason a dividend cannot produce a yield,
// or "" when it can.
func yieldApplicability(amount decimal.Decimal, currency string, referencePrice decimal.Decimal) SkipReason {
	switch {
	case amount.IsZero():
		return ReasonZeroDividend
	case amount.IsNegative():
		return ReasonInvalidDividend
	case currency == "":
		return ReasonUnknownCurrency
	case !referencePrice.IsPositive():
		return ReasonNoReferencePrice
	}
	return ""
}

// ComputeYield derives the dividend yield of one ticker against its delayed
// reference price. ok is false when the dividend carries no signal (zero
// amount, unknown currency, no usable price); that is not an error.
func ComputeYield(ticker string, amount decimal.Decimal, currency string, referencePrice decimal.Decimal, rates models.FxRates) (y models.DividendYield, ok bool, err error) {
	if reason := yieldApplicability(amount, currency, referencePrice); reason != "" {
		return models.DividendYield{}, false, nil
	}

	usd, err := NormalizeToUSD(amount, currency, rates)
	if err != nil {
		return models.DividendYield{}, false, err
	}

	return models.DividendYield{
		Ticker:    ticker,
		Percent:   usd.Div(referencePrice).Mul(hundred).Round(2),
		USDAmount: usd,
	}, true, nil
}
