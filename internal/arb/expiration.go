package arb

import (
	"sort"
	"time"

	"github.com/jwaldner/divvyarb/internal/utils"
)

// SelectExpiration returns the earliest expiration on or after the dividend
// record date. Later expirations are never considered even when they might
// also carry an arb.
func SelectExpiration(expirations []time.Time, recordDate time.Time) (time.Time, bool) {
	sorted := make([]time.Time, len(expirations))
	copy(sorted, expirations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	record := utils.DateOnly(recordDate)
	for _, expiration := range sorted {
		if !utils.DateOnly(expiration).Before(record) {
			return expiration, true
		}
	}

	return time.Time{}, false
}
