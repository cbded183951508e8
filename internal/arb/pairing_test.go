package arb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/divvyarb/internal/fixtures"
	"github.com/jwaldner/divvyarb/internal/models"
)

func TestPairStrikesKeepsOnlyInTheMoneyStrikes(t *testing.T) {
	chain := []models.OptionQuote{
		fixtures.Put("T", "2024-05-17", "45.00", "0.10", "0.20", 1),
		fixtures.Call("T", "2024-05-17", "45.00", "3.10", "3.20", 1),
		fixtures.Put("T", "2024-05-17", "48.00", "0.90", "1.00", 2),
		fixtures.Call("T", "2024-05-17", "48.00", "0.80", "0.85", 2),
		fixtures.Put("T", "2024-05-17", "50.00", "2.40", "2.50", 3),
		fixtures.Call("T", "2024-05-17", "50.00", "0.30", "0.35", 3),
	}

	pairs := PairStrikes(chain, fixtures.Dec("48"))
	require.Len(t, pairs, 2)

	assert.Equal(t, "48.00", pairs[0].Strike.StringFixed(2))
	assert.Equal(t, "1.00", pairs[0].PutAsk.StringFixed(2))
	assert.Equal(t, "0.80", pairs[0].CallBid.StringFixed(2))
	assert.Equal(t, int64(2), pairs[0].PutVolume)
	assert.Equal(t, "50.00", pairs[1].Strike.StringFixed(2))

	for _, p := range pairs {
		assert.False(t, p.Strike.LessThan(fixtures.Dec("48")))
	}
}

func TestPairStrikesPermissiveMissingLegIsZero(t *testing.T) {
	chain := []models.OptionQuote{
		fixtures.Put("T", "2024-05-17", "50.00", "2.40", "2.50", 3),
		fixtures.Call("T", "2024-05-17", "55.00", "0.10", "0.15", 3),
	}

	pairs := PairStrikes(chain, fixtures.Dec("48"))
	require.Len(t, pairs, 2)

	assert.True(t, pairs[0].HasPut)
	assert.False(t, pairs[0].HasCall)
	assert.True(t, pairs[0].CallBid.IsZero())

	assert.False(t, pairs[1].HasPut)
	assert.True(t, pairs[1].PutAsk.IsZero())
	assert.Equal(t, "0.10", pairs[1].CallBid.StringFixed(2))
}

func TestPairStrikesStrictDropsSingleLegs(t *testing.T) {
	chain := []models.OptionQuote{
		fixtures.Put("T", "2024-05-17", "50.00", "2.40", "2.50", 3),
		fixtures.Put("T", "2024-05-17", "52.50", "4.40", "4.50", 3),
		fixtures.Call("T", "2024-05-17", "52.50", "0.05", "0.10", 3),
	}

	pairs := PairStrikesWithMode(chain, fixtures.Dec("48"), StrictPairing)
	require.Len(t, pairs, 1)
	assert.Equal(t, "52.50", pairs[0].Strike.StringFixed(2))
}

func TestPairStrikesSkipsNonStandardContracts(t *testing.T) {
	adjusted := fixtures.Put("T", "2024-05-17", "50.00", "2.40", "2.50", 3)
	adjusted.ContractSize = 10

	pairs := PairStrikes([]models.OptionQuote{adjusted}, fixtures.Dec("48"))
	assert.Empty(t, pairs)
}

func TestPairStrikesRoundsAskBeforeFiltering(t *testing.T) {
	chain := []models.OptionQuote{
		fixtures.Put("T", "2024-05-17", "48.00", "0.90", "1.00", 2),
	}

	// 47.996 rounds to 48.00, so the 48 strike stays in.
	pairs := PairStrikes(chain, fixtures.Dec("47.996"))
	assert.Len(t, pairs, 1)

	pairs = PairStrikes(chain, fixtures.Dec("48.006"))
	assert.Empty(t, pairs)
}

func TestParsePairingMode(t *testing.T) {
	assert.Equal(t, StrictPairing, ParsePairingMode(true))
	assert.Equal(t, PermissivePairing, ParsePairingMode(false))
	assert.Equal(t, "strict", StrictPairing.String())
	assert.Equal(t, "permissive", PermissivePairing.String())
}
