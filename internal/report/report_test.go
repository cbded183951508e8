package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/divvyarb/internal/config"
	"github.com/jwaldner/divvyarb/internal/fixtures"
	"github.com/jwaldner/divvyarb/internal/models"
)

func sampleCandidates() []models.ArbitrageCandidate {
	return []models.ArbitrageCandidate{
		{
			Ticker:            "PSTX",
			Strike:            fixtures.Dec("25"),
			UnderlyingPrice:   fixtures.Dec("24.9"),
			DividendAmount:    fixtures.Dec("1.5"),
			DividendYield:     fixtures.Dec("6"),
			ProfitPerContract: fixtures.Dec("66"),
			ExDate:            fixtures.Date("2024-05-14"),
			Expiration:        fixtures.Date("2024-05-17"),
			DaysToExpiry:      7,
			PutVolume:         42,
		},
		{
			Ticker:            "CADX",
			Strike:            fixtures.Dec("10"),
			UnderlyingPrice:   fixtures.Dec("9.95"),
			DividendAmount:    fixtures.Dec("0.4"),
			DividendYield:     fixtures.Dec("4"),
			ProfitPerContract: fixtures.Dec("36"),
			ExDate:            fixtures.Date("2024-05-15"),
			Expiration:        fixtures.Date("2024-05-17"),
			DaysToExpiry:      7,
			PutVolume:         5,
		},
	}
}

func TestFormatCandidate(t *testing.T) {
	row := FormatCandidate(sampleCandidates()[0], 1)

	assert.Equal(t, "$25.00", row["strike"].Display)
	assert.Equal(t, "25.00", row["strike"].Raw)
	assert.Equal(t, "6.00%", row["div_yield"].Display)
	assert.Equal(t, "$66.00", row["profit_on_longconv"].Display)
	assert.Equal(t, "2024-05-17 (7)", row["expiration"].Display)
	assert.Equal(t, int64(42), row["put_volume"].Raw)
	assert.Equal(t, "1", row["rank"].Display)

	for _, col := range Columns {
		assert.Contains(t, row, col.Key)
	}
}

func TestFieldMetadataCoversColumns(t *testing.T) {
	meta := FieldMetadata()
	assert.Len(t, meta, len(Columns))
	assert.Equal(t, "percentage", meta["div_yield"].Type)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleCandidates()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "profit_on_longconv")
	assert.Contains(t, lines[1], "PSTX")
	assert.Contains(t, lines[1], "2024-05-17 (7)")
	assert.Contains(t, lines[2], "CADX")
}

func TestWriteTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, nil))
	assert.Contains(t, buf.String(), "No profitable")
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	cfg := config.CSVConfig{Directory: dir, FilenameFormat: "{date}_arbs_{run_id}.csv"}

	path, err := ExportCSV(cfg, fixtures.Today, "run1", sampleCandidates())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2024-05-10_arbs_run1.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "div_yield (%)", records[0][6])
	assert.Equal(t, []string{"1", "PSTX", "25.00", "24.90", "1.50", "66.00", "6.00", "2024-05-14", "42", "2024-05-17 (7)"}, records[1])
}

func TestLimit(t *testing.T) {
	all := sampleCandidates()
	assert.Len(t, Limit(all, 0), 2)
	assert.Len(t, Limit(all, 1), 1)
	assert.Len(t, Limit(all, 5), 2)
}
