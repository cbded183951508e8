package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// version is overridden at build time with -ldflags "-X main.version=..."
	version = "dev"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "divvyarb",
	Short: "Dividend long conversion arbitrage scanner",
	Long: `divvyarb scans upcoming dividend payers for in-the-money long conversions
(long stock, long put, short call at one strike) whose dividend more than
covers the conversion debit and commissions.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default config.yaml when present)")
	rootCmd.AddCommand(scanCmd, serveCmd, cacheCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
