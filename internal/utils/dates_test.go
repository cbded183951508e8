package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-05-17")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("05/17/2024")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestMarketTodayUsesExchangeCalendar(t *testing.T) {
	if marketLocation == time.UTC {
		t.Skip("tzdata not available")
	}
	// 02:00 UTC on the 11th is still the 10th in New York.
	now := time.Date(2024, 5, 11, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), MarketToday(now))
}

func TestSameDayAndDaysUntil(t *testing.T) {
	a := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	b := time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC)
	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, b.AddDate(0, 0, 1)))

	assert.Equal(t, 7, DaysUntil(a, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, DaysUntil(a, time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)))
	// Time of day never shortens the count.
	monday := time.Date(2024, 5, 13, 15, 45, 0, 0, time.UTC)
	assert.Equal(t, 4, DaysUntil(monday, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 4, DaysUntil(monday.Add(-15*time.Hour-45*time.Minute), time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)))
	// DST change in between does not leak a partial day.
	assert.Equal(t, 14, DaysUntil(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
}

func TestFormatExpiration(t *testing.T) {
	assert.Equal(t, "2024-05-17 (12)", FormatExpiration(time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), 12))
}

func TestBaseSymbol(t *testing.T) {
	assert.Equal(t, "CWEN", BaseSymbol("CWEN.A"))
	assert.Equal(t, "BRK", BaseSymbol(" brk.b "))
	assert.Equal(t, "PSTX", BaseSymbol("PSTX"))
	assert.Equal(t, "", BaseSymbol(""))
}
