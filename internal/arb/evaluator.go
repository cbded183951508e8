package arb

import (
	"github.com/shopspring/decimal"

	"github.com/jwaldner/divvyarb/internal/models"
)

var contractSize = decimal.NewFromInt(models.StandardContractSize)

// Fees describes the commission cost of putting on and managing one collar.
type Fees struct {
	PerContractCost  decimal.Decimal
	ActionsPerCollar int
}

// DefaultFees assumes a $1 one-lot commission and four contract actions to
// manage the collar without pin risk.
func DefaultFees() Fees {
	return Fees{
		PerContractCost:  decimal.NewFromInt(1),
		ActionsPerCollar: 4,
	}
}

// Total returns the fees paid per long conversion.
func (f Fees) Total() decimal.Decimal {
	return f.PerContractCost.Mul(decimal.NewFromInt(int64(f.ActionsPerCollar)))
}

// Evaluation is the profit breakdown of a long conversion at one strike.
type Evaluation struct {
	SyntheticShortDebit decimal.Decimal
	PutIntrinsicValue   decimal.Decimal
	Profit              decimal.Decimal
}

// Profitable reports whether the conversion clears its fees.
func (e Evaluation) Profitable() bool {
	return e.Profit.IsPositive()
}

// Evaluate prices a long conversion at pair.Strike. Bid and ask are taken at
// face value; a mid fill only improves on it.
func Evaluate(pair models.StrikePair, underlyingAsk decimal.Decimal, dividendYield models.DividendYield, contractFees decimal.Decimal) Evaluation {
	debit := pair.PutAsk.Sub(pair.CallBid)
	intrinsic := pair.Strike.Sub(underlyingAsk.Round(2))

	profit := dividendYield.USDAmount.
		Sub(debit.Sub(intrinsic)).
		Mul(contractSize).
		Sub(contractFees).
		Round(2)

	return Evaluation{
		SyntheticShortDebit: debit,
		PutIntrinsicValue:   intrinsic,
		Profit:              profit,
	}
}

// BestStrike walks pairs in order and returns the profitable strike with the
// highest yield. Only a strictly higher yield replaces the current pick, so
// ties keep the first strike seen. Strikes without a put leg are never priced:
// there is no put to buy.
func BestStrike(pairs []models.StrikePair, underlyingAsk decimal.Decimal, dividendYield models.DividendYield, contractFees decimal.Decimal) (models.StrikePair, Evaluation, bool) {
	var (
		best      models.StrikePair
		bestEval  Evaluation
		bestYield decimal.Decimal
		found     bool
	)

	for _, pair := range pairs {
		if !pair.HasPut {
			continue
		}
		eval := Evaluate(pair, underlyingAsk, dividendYield, contractFees)
		if !eval.Profitable() {
			continue
		}
		if !found || dividendYield.Percent.GreaterThan(bestYield) {
			best, bestEval, bestYield, found = pair, eval, dividendYield.Percent, true
		}
	}

	return best, bestEval, found
}
