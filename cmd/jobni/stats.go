package main

import (
	"encoding/json"

	"github.com/jonathan/jobni/internal/observability"
	"github.com/jonathan/jobni/internal/reports"
	"github.com/spf13/cobra"
)

var (
	statsJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print platform-wide statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the counters as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := reports.NewService(store, log).PlatformStats(cmd.Context())
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintAdminStats(stats)
	return nil
}
