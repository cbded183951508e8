package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jwaldner/divvyarb/internal/models"
)

// WriteTable prints candidates as an aligned console table using the display
// form of each field.
func WriteTable(w io.Writer, candidates []models.ArbitrageCandidate) error {
	if len(candidates) == 0 {
		_, err := fmt.Fprintln(w, "No profitable long conversions found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	headers := make([]string, len(Columns))
	for i, col := range Columns {
		headers[i] = col.Header
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t")+"\t")

	for _, row := range FormatCandidates(candidates) {
		cells := make([]string, len(Columns))
		for i, col := range Columns {
			cells[i] = row[col.Key].Display
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}

	return tw.Flush()
}
