package main

import (
	"fmt"

	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/db/memdb"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate up|down",
	Short:     "Apply or roll back the database schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(db.MigrateUp), string(db.MigrateDown)},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == memdb.URL {
		return fmt.Errorf("the in-process store has no schema to migrate")
	}

	direction := db.MigrationDirection(args[0])
	if err := db.Migrate(cfg.DatabaseURL, direction); err != nil {
		return err
	}
	log.WithField("direction", direction).Info("migrations applied")
	fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", direction)
	return nil
}
