package tradier

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/divvyarb/internal/models"
)

func newTestClient(t *testing.T, budget *RateBudget, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	if budget == nil {
		budget = NewRateBudget(20, 0)
	}
	return NewClient(Config{BaseURL: srv.URL, Bearer: "Bearer tok", Timeout: 5 * time.Second}, budget)
}

var may17 = time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)

func TestRealtimeQuoteSingleObject(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/markets/quotes", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "PSTX", r.URL.Query().Get("symbols"))
		w.Header().Set(RateLimitHeader, "87")
		fmt.Fprint(w, `{"quotes":{"quote":{"symbol":"PSTX","bid":24.88,"ask":24.9}}}`)
	})

	q, err := c.RealtimeQuote(context.Background(), "PSTX")
	require.NoError(t, err)
	assert.Equal(t, "24.9", q.Ask.String())
	assert.Equal(t, "24.88", q.Bid.String())
	assert.Equal(t, 87, c.budget.Available())
}

func TestRealtimeQuoteNullPrices(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quotes":{"quote":[{"symbol":"HALT","bid":null,"ask":null}]}}`)
	})

	q, err := c.RealtimeQuote(context.Background(), "HALT")
	require.NoError(t, err)
	assert.True(t, q.Ask.IsZero())
	assert.True(t, q.Bid.IsZero())
}

func TestRealtimeQuoteUnmatched(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quotes":{"unmatched_symbols":{"symbol":"ZZZZ"}}}`)
	})

	_, err := c.RealtimeQuote(context.Background(), "ZZZZ")
	assert.Error(t, err)
}

func TestExpirationsShapes(t *testing.T) {
	tests := map[string]struct {
		body string
		want int
	}{
		"list":   {`{"expirations":{"date":["2024-05-17","2024-05-24","bogus"]}}`, 2},
		"single": {`{"expirations":{"date":"2024-05-17"}}`, 1},
		"null":   {`{"expirations":null}`, 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "true", r.URL.Query().Get("includeAllRoots"))
				fmt.Fprint(w, tt.body)
			})

			exps, err := c.Expirations(context.Background(), "PSTX")
			require.NoError(t, err)
			assert.Len(t, exps, tt.want)
		})
	}
}

func TestChainFiltersAndDefaults(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-05-17", r.URL.Query().Get("expiration"))
		fmt.Fprint(w, `{"options":{"option":[
			{"symbol":"PSTX240517P00025000","strike":25,"option_type":"put","bid":1.1,"ask":1.2,"volume":42,"contract_size":100,"expiration_date":"2024-05-17"},
			{"symbol":"PSTX240517C00025000","strike":25,"option_type":"call","bid":null,"ask":0.35,"volume":0,"contract_size":100,"expiration_date":"2024-05-17"},
			{"symbol":"PSTX1240517P00025000","strike":25,"option_type":"put","bid":1,"ask":1.5,"volume":1,"contract_size":10,"expiration_date":"2024-05-17"},
			{"symbol":"PSTX240517X00025000","strike":25,"option_type":"weird","bid":1,"ask":1.5,"volume":1,"contract_size":100}
		]}}`)
	})

	chain, err := c.Chain(context.Background(), "PSTX", may17)
	require.NoError(t, err)
	require.Len(t, chain, 2)

	put := chain[0]
	assert.Equal(t, models.OptionTypePut, put.Type)
	assert.Equal(t, "1.2", put.Ask.String())
	assert.Equal(t, int64(42), put.Volume)
	assert.Equal(t, may17, put.Expiration)

	call := chain[1]
	assert.Equal(t, models.OptionTypeCall, call.Type)
	assert.True(t, call.Bid.IsZero(), "null bid becomes zero")
}

func TestChainGhostExpiration(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"options":null}`)
	})

	chain, err := c.Chain(context.Background(), "PSTX", may17)
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestClientThrottlesWhenBudgetLow(t *testing.T) {
	budget := NewRateBudget(20, 30*time.Millisecond)
	c := newTestClient(t, budget, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(RateLimitHeader, "5")
		fmt.Fprint(w, `{"expirations":null}`)
	})

	_, err := c.Expirations(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 0, budget.Pauses())

	start := time.Now()
	_, err = c.Expirations(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, 1, budget.Pauses())
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
