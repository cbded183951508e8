// Package report renders ranked candidates as a console table, a CSV file and
// the raw/display rows served by the HTTP API.
package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jwaldner/divvyarb/internal/models"
	"github.com/jwaldner/divvyarb/internal/utils"
)

// Column is one output column, in display order.
type Column struct {
	Key    string
	Header string
	Meta   models.FieldMetadata
}

// Columns lists the candidate columns shared by every output format.
var Columns = []Column{
	{"rank", "#", models.FieldMetadata{DisplayName: "#", Type: "integer", Sortable: true, Alignment: "center"}},
	{"ticker", "ticker", models.FieldMetadata{DisplayName: "Ticker", Type: "text", Sortable: true, Alignment: "left"}},
	{"strike", "strike", models.FieldMetadata{DisplayName: "Strike", Type: "currency", Sortable: true, Alignment: "right"}},
	{"underlying", "underlying", models.FieldMetadata{DisplayName: "Underlying Ask", Type: "currency", Sortable: true, Alignment: "right"}},
	{"div_amount", "div_amount", models.FieldMetadata{DisplayName: "Dividend", Type: "currency", Sortable: true, Alignment: "right"}},
	{"profit_on_longconv", "profit_on_longconv", models.FieldMetadata{DisplayName: "Profit / Contract", Type: "currency", Sortable: true, Alignment: "right"}},
	{"div_yield", "div_yield (%)", models.FieldMetadata{DisplayName: "Yield %", Type: "percentage", Sortable: true, Alignment: "right"}},
	{"ex_date", "ex_date", models.FieldMetadata{DisplayName: "Ex-Date", Type: "date", Sortable: true, Alignment: "center"}},
	{"put_volume", "put_volume", models.FieldMetadata{DisplayName: "Put Volume", Type: "integer", Sortable: true, Alignment: "right"}},
	{"expiration", "expiration", models.FieldMetadata{DisplayName: "Expiration (days)", Type: "text", Sortable: true, Alignment: "center"}},
}

func formatCurrency(value decimal.Decimal) models.FieldValue {
	return models.FieldValue{
		Raw:     value.StringFixed(2),
		Display: "$" + value.StringFixed(2),
		Type:    "currency",
	}
}

// value is already a percentage (6.00 means 6%)
func formatPercentage(value decimal.Decimal) models.FieldValue {
	return models.FieldValue{
		Raw:     value.StringFixed(2),
		Display: value.StringFixed(2) + "%",
		Type:    "percentage",
	}
}

func formatInteger(value int64) models.FieldValue {
	return models.FieldValue{
		Raw:     value,
		Display: fmt.Sprintf("%d", value),
		Type:    "integer",
	}
}

func formatText(value string) models.FieldValue {
	return models.FieldValue{
		Raw:     value,
		Display: value,
		Type:    "text",
	}
}

func formatDate(value string) models.FieldValue {
	return models.FieldValue{
		Raw:     value,
		Display: value,
		Type:    "date",
	}
}

// FormatCandidate converts a candidate into raw/display pairs keyed by
// column. rank is 1-based.
func FormatCandidate(c models.ArbitrageCandidate, rank int) models.FormattedCandidate {
	return models.FormattedCandidate{
		"rank":               formatInteger(int64(rank)),
		"ticker":             formatText(c.Ticker),
		"strike":             formatCurrency(c.Strike),
		"underlying":         formatCurrency(c.UnderlyingPrice),
		"div_amount":         formatCurrency(c.DividendAmount),
		"profit_on_longconv": formatCurrency(c.ProfitPerContract),
		"div_yield":          formatPercentage(c.DividendYield),
		"ex_date":            formatDate(c.ExDate.Format(models.DateLayout)),
		"put_volume":         formatInteger(c.PutVolume),
		"expiration":         formatText(utils.FormatExpiration(c.Expiration, c.DaysToExpiry)),
	}
}

// FormatCandidates formats candidates in their ranked order.
func FormatCandidates(candidates []models.ArbitrageCandidate) []models.FormattedCandidate {
	out := make([]models.FormattedCandidate, 0, len(candidates))
	for i, c := range candidates {
		out = append(out, FormatCandidate(c, i+1))
	}
	return out
}

// FieldMetadata returns metadata for all fields
func FieldMetadata() map[string]models.FieldMetadata {
	meta := make(map[string]models.FieldMetadata, len(Columns))
	for _, col := range Columns {
		meta[col.Key] = col.Meta
	}
	return meta
}

// Limit truncates candidates to max entries. max <= 0 keeps everything.
func Limit(candidates []models.ArbitrageCandidate, max int) []models.ArbitrageCandidate {
	if max <= 0 || len(candidates) <= max {
		return candidates
	}
	return candidates[:max]
}
