package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwaldner/divvyarb/internal/logger"
	"github.com/jwaldner/divvyarb/internal/report"
	"github.com/jwaldner/divvyarb/internal/services"
)

var (
	scanNoCache bool
	scanCSV     bool
	scanTickers []string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan and print the ranked long conversions",
	Long: `Fetches upcoming dividends, reference quotes, FX rates, OCC memos and
option chains, then prints every ticker with a profitable in-the-money long
conversion ranked by dividend yield.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanNoCache, "no-cache", false, "ignore today's cached universe and refetch it")
	scanCmd.Flags().BoolVar(&scanCSV, "csv", false, "also export results as CSV")
	scanCmd.Flags().StringSliceVar(&scanTickers, "tickers", nil, "only scan these tickers (comma separated)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		logger.Error.Printf("❌ %v", err)
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tickers := scanTickers
	if !cmd.Flags().Changed("tickers") {
		tickers = cfg.Scan.Tickers
	}

	opts := services.ScanOptions{
		Tickers: services.CleanTickers(tickers),
		NoCache: scanNoCache,
	}

	outcome, err := a.scans.WithProgress(cmd.ErrOrStderr()).Run(ctx, opts)
	if err != nil {
		logger.Error.Printf("❌ Scan failed: %v", err)
		return err
	}

	out := cmd.OutOrStdout()
	if err := report.WriteTable(out, outcome.Candidates); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d of %d tickers profitable (run %s, %s)\n",
		outcome.TotalFound, outcome.UniverseCount, outcome.RunID, outcome.Duration.Round(time.Millisecond))

	if scanCSV {
		path, err := report.ExportCSV(cfg.CSV, outcome.ScanDate, outcome.RunID, outcome.Candidates)
		if err != nil {
			return fmt.Errorf("exporting csv: %w", err)
		}
		fmt.Fprintf(out, "CSV written to %s\n", path)
	}
	if outcome.AuditPath != "" {
		fmt.Fprintf(out, "Audit trail written to %s\n", outcome.AuditPath)
	}

	return nil
}
