package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4, cfg.Fees.ActionsPerCollar)
	assert.Equal(t, "1.00", cfg.Fees.PerContract().StringFixed(2))
	assert.Equal(t, 20, cfg.Tradier.RateLimitThreshold)
	assert.Equal(t, time.Second, cfg.Tradier.RateLimitPause)
	assert.Equal(t, 100, cfg.IEX.BatchSize)
	assert.False(t, cfg.Scan.StrictPairing)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SCAN_STRICT_PAIRING", "true")
	t.Setenv("SCAN_CONCURRENCY", "8")
	t.Setenv("SCAN_TICKERS", "PSTX, CWEN.A ,,T")
	t.Setenv("TRADIER_RATE_LIMIT_PAUSE", "250ms")

	cfg := Defaults()

	assert.True(t, cfg.Scan.StrictPairing)
	assert.Equal(t, 8, cfg.Scan.Concurrency)
	assert.Equal(t, []string{"PSTX", "CWEN.A", "T"}, cfg.Scan.Tickers)
	assert.Equal(t, 250*time.Millisecond, cfg.Tradier.RateLimitPause)
}

func TestEnvOverrideIgnoresGarbage(t *testing.T) {
	t.Setenv("SCAN_CONCURRENCY", "lots")
	t.Setenv("CACHE_ENABLED", "maybe")

	cfg := Defaults()

	assert.Equal(t, 4, cfg.Scan.Concurrency)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := writeYAML(t, `
fees:
  per_contract_cost: "0.65"
scan:
  strict_pairing: true
  max_results: 25
tradier:
  rate_limit_pause: 2s
logging:
  log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.65", cfg.Fees.PerContract().String())
	assert.Equal(t, 4, cfg.Fees.ActionsPerCollar, "unset keys keep defaults")
	assert.True(t, cfg.Scan.StrictPairing)
	assert.Equal(t, 25, cfg.Scan.MaxResults)
	assert.Equal(t, 2*time.Second, cfg.Tradier.RateLimitPause)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
	assert.Equal(t, "https://api.tradier.com", cfg.Tradier.BaseURL)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeYAML(t, "scan: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"log level":   "logging:\n  log_level: loud\n",
		"fees":        "fees:\n  per_contract_cost: free\n",
		"batch size":  "iex:\n  batch_size: 500\n",
		"concurrency": "scan:\n  concurrency: 0\n",
		"base url":    "tradier:\n  base_url: not a url\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestFormatFilename(t *testing.T) {
	date := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-10_divvyarb_abc.csv", FormatFilename("{date}_divvyarb_{run_id}.csv", date, "abc"))
	assert.Equal(t, "fixed.csv", FormatFilename("fixed.csv", date, "abc"))
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "divvyarb.db", cfg.Cache.Path)
	assert.Equal(t, 2, cfg.OCC.MaxRetries)
	assert.Equal(t, "{date}_{run_id}.json", cfg.Audit.FilenameFormat)
}
