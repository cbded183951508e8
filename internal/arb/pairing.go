package arb

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jwaldner/divvyarb/internal/models"
)

// PairingMode controls how puts and calls at one strike are joined.
type PairingMode int

const (
	// PermissivePairing keeps a strike when only one leg is quoted and
	// prices the missing leg at zero.
	PermissivePairing PairingMode = iota
	// StrictPairing keeps only strikes quoted on both legs.
	StrictPairing
)

func (m PairingMode) String() string {
	if m == StrictPairing {
		return "strict"
	}
	return "permissive"
}

// ParsePairingMode maps a config value to a PairingMode.
func ParsePairingMode(strict bool) PairingMode {
	if strict {
		return StrictPairing
	}
	return PermissivePairing
}

// PairStrikes joins same-strike put and call quotes from one expiration,
// keeping only in-the-money put strikes (strike >= underlying ask). Result
// is ordered by ascending strike.
func PairStrikes(chain []models.OptionQuote, underlyingAsk decimal.Decimal) []models.StrikePair {
	return PairStrikesWithMode(chain, underlyingAsk, PermissivePairing)
}

// PairStrikesWithMode is PairStrikes with an explicit join mode.
func PairStrikesWithMode(chain []models.OptionQuote, underlyingAsk decimal.Decimal, mode PairingMode) []models.StrikePair {
	ask := underlyingAsk.Round(2)
	byStrike := make(map[string]*models.StrikePair)

	for _, option := range chain {
		if option.ContractSize != models.StandardContractSize {
			continue
		}
		if option.Type != models.OptionTypePut && option.Type != models.OptionTypeCall {
			continue
		}

		strike := option.Strike.Round(2)
		if strike.LessThan(ask) {
			continue
		}

		key := strike.StringFixed(2)
		pair, ok := byStrike[key]
		if !ok {
			pair = &models.StrikePair{
				Strike:  strike,
				PutAsk:  decimal.Zero,
				CallBid: decimal.Zero,
			}
			byStrike[key] = pair
		}

		switch option.Type {
		case models.OptionTypePut:
			pair.PutAsk = option.Ask.Round(2)
			pair.PutVolume = option.Volume
			pair.HasPut = true
		case models.OptionTypeCall:
			pair.CallBid = option.Bid.Round(2)
			pair.HasCall = true
		}
	}

	pairs := make([]models.StrikePair, 0, len(byStrike))
	for _, pair := range byStrike {
		if mode == StrictPairing && !(pair.HasPut && pair.HasCall) {
			continue
		}
		pairs = append(pairs, *pair)
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Strike.LessThan(pairs[j].Strike) })
	return pairs
}
