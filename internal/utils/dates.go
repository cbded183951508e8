package utils

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// marketLocation is the exchange calendar the scanner reasons in. Falls back
// to UTC when tzdata is unavailable.
var marketLocation = loadMarketLocation()

func loadMarketLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DateOnly drops the clock part of t, keeping the calendar date of t's own
// location, and returns it as UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MarketToday returns today's calendar date on the exchange calendar.
func MarketToday(now time.Time) time.Time {
	return DateOnly(now.In(marketLocation))
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// DaysUntil returns the number of calendar days from today to date.
// Negative when date is in the past. The time of day is ignored, so a
// Friday expiration seen at any hour on Monday is 4 days out; counting
// elapsed 24h periods from the current instant would give 3 during the
// session.
func DaysUntil(today, date time.Time) int {
	return int(DateOnly(date).Sub(DateOnly(today)).Hours() / 24)
}

// FormatExpiration renders an expiration with its days-to-expiry annotation,
// e.g. "2024-05-17 (12)".
func FormatExpiration(expiration time.Time, days int) string {
	return fmt.Sprintf("%s (%d)", expiration.Format(dateLayout), days)
}

// BaseSymbol strips a share-class suffix ("CWEN.A" -> "CWEN") and upper-cases
// the result.
func BaseSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.IndexByte(symbol, '.'); i >= 0 {
		symbol = symbol[:i]
	}
	return symbol
}
