package arb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jwaldner/divvyarb/internal/fixtures"
)

func TestSelectExpiration(t *testing.T) {
	exps := []time.Time{
		fixtures.Date("2024-05-24"),
		fixtures.Date("2024-05-10"),
		fixtures.Date("2024-05-17"),
	}

	tests := []struct {
		record string
		want   string
		ok     bool
	}{
		{"2024-05-15", "2024-05-17", true},
		{"2024-05-17", "2024-05-17", true},
		{"2024-05-01", "2024-05-10", true},
		{"2024-05-25", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.record, func(t *testing.T) {
			got, ok := SelectExpiration(exps, fixtures.Date(tt.record))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestSelectExpirationIgnoresClock(t *testing.T) {
	exp := time.Date(2024, 5, 17, 16, 0, 0, 0, time.UTC)
	record := time.Date(2024, 5, 17, 20, 30, 0, 0, time.UTC)

	got, ok := SelectExpiration([]time.Time{exp}, record)
	assert.True(t, ok)
	assert.Equal(t, exp, got)
}

func TestSelectExpirationDoesNotReorderInput(t *testing.T) {
	exps := []time.Time{fixtures.Date("2024-06-01"), fixtures.Date("2024-05-01")}
	SelectExpiration(exps, fixtures.Date("2024-05-02"))
	assert.Equal(t, fixtures.Date("2024-06-01"), exps[0])
}

func TestSelectExpirationEmpty(t *testing.T) {
	_, ok := SelectExpiration(nil, fixtures.Date("2024-05-02"))
	assert.False(t, ok)
}
