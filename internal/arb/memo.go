package arb

import (
	"strings"

	"github.com/jwaldner/divvyarb/internal/models"
)

// IsFlagged reports whether any OCC memo names the ticker, meaning its
// contract terms are (or will be) adjusted and the arb assumption breaks.
func IsFlagged(ticker string, memos []models.OccMemo) bool {
	needle := "Symbol: " + strings.ToUpper(ticker)
	for _, memo := range memos {
		if strings.Contains(memo.Description, needle) {
			return true
		}
	}
	return false
}
