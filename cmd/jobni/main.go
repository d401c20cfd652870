// Package main provides the jobni command: the HTTP API server and the
// operator tools around its database.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobni",
	Short: "Jobni job marketplace backend",
	Long:  "Jobni connects employers posting short jobs with job seekers: applications, notifications, chat, ratings and invoices over a REST API.",
	// Errors are printed once by main.
	SilenceErrors: true,
	SilenceUsage:  true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
