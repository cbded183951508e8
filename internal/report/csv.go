package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jwaldner/divvyarb/internal/config"
	"github.com/jwaldner/divvyarb/internal/models"
)

// WriteCSV writes a header row and one row per candidate using raw values.
func WriteCSV(w io.Writer, candidates []models.ArbitrageCandidate) error {
	cw := csv.NewWriter(w)

	headers := make([]string, len(Columns))
	for i, col := range Columns {
		headers[i] = col.Header
	}
	if err := cw.Write(headers); err != nil {
		return err
	}

	for _, row := range FormatCandidates(candidates) {
		record := make([]string, len(Columns))
		for i, col := range Columns {
			record[i] = fmt.Sprint(row[col.Key].Raw)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV writes candidates to dir using the configured file name template
// and returns the path written.
func ExportCSV(cfg config.CSVConfig, date time.Time, runID string, candidates []models.ArbitrageCandidate) (string, error) {
	dir := cfg.Directory
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating csv directory: %w", err)
	}

	path := filepath.Join(dir, config.FormatFilename(cfg.FilenameFormat, date, runID))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating csv: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, candidates); err != nil {
		return "", fmt.Errorf("writing csv: %w", err)
	}
	return path, f.Close()
}
