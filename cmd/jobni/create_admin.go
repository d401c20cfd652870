package main

import (
	"fmt"

	"github.com/jonathan/jobni/internal/config"
	"github.com/jonathan/jobni/internal/identity"
	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long:  `Create an admin account. Nothing changes if the email is already registered, so the command is safe to run on every deploy.`,
	RunE:  runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email (required)")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password, at least 8 characters (required)")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Admin", "Display name")

	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadEnv()
	if err != nil {
		return err
	}
	passwords, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	// No tokens are issued here.
	users := identity.NewDirectory(store, passwords, nil, log)
	created, err := users.EnsureAdmin(cmd.Context(), adminEmail, adminPassword, adminName)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created\n", adminEmail)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Admin %s already exists, nothing to do\n", adminEmail)
	}
	return nil
}
