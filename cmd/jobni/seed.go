package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/jobni/internal/apperr"
	"github.com/jonathan/jobni/internal/catalog"
	"github.com/jonathan/jobni/internal/config"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/identity"
	"github.com/jonathan/jobni/internal/observability"
	"github.com/jonathan/jobni/internal/schemas"
	"github.com/jonathan/jobni/internal/types"
	"github.com/spf13/cobra"
)

var (
	seedFile string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import users and jobs from a fixture file",
	Long: `Validate a fixture file against the seed schema, then create the users and
jobs it lists. Jobs name their employer by email. Users whose email is already
registered are skipped; jobs whose employer cannot post are reported as
warnings.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to the fixture JSON file (required)")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	fixtures, err := readSeedFile(seedFile)
	if err != nil {
		return err
	}

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

	users := identity.NewDirectory(store, passwords, nil, log)
	jobs := catalog.New(store, log)
	summary, err := seedFixtures(cmd.Context(), users, jobs, fixtures)
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintSeedSummary(summary)
	return nil
}

// readSeedFile loads a fixture file and checks it against the seed schema.
func readSeedFile(path string) (*types.SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	if err := schemas.ValidateSeed(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var fixtures types.SeedFile
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse fixture file: %w", err)
	}
	return &fixtures, nil
}

// seedFixtures creates the users, then the jobs, of a validated fixture file.
// Rejections of single records become warnings; store failures abort.
func seedFixtures(ctx context.Context, users *identity.Directory, jobs *catalog.Catalog, fixtures *types.SeedFile) (*types.SeedSummary, error) {
	summary := &types.SeedSummary{}

	for _, su := range fixtures.Users {
		u := &db.User{
			Email:       su.Email,
			Name:        su.Name,
			Phone:       su.Phone,
			Role:        su.Role,
			CompanyName: su.CompanyName,
			Skills:      db.StringArray(su.Skills),
		}
		err := users.CreateUser(ctx, u, su.Password)
		switch {
		case err == nil:
			summary.UsersCreated++
		case apperr.IsConflict(err):
			summary.UsersSkipped++
		case apperr.IsInvalid(err):
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("user %s: %v", su.Email, err))
		default:
			return nil, err
		}
	}

	for _, sj := range fixtures.Jobs {
		employer, err := users.FindByEmail(ctx, sj.EmployerEmail)
		if err != nil {
			if apperr.IsNotFound(err) {
				summary.Warnings = append(summary.Warnings, fmt.Sprintf("job %q: employer %s is not registered", sj.Title, sj.EmployerEmail))
				continue
			}
			return nil, err
		}

		req := sj.JobRequest
		job, err := jobs.Create(ctx, employer.Caller(), &req)
		if err != nil {
			if apperr.IsForbidden(err) || apperr.IsInvalid(err) {
				summary.Warnings = append(summary.Warnings, fmt.Sprintf("job %q: %v", sj.Title, err))
				continue
			}
			return nil, err
		}
		summary.JobsCreated++

		// Postings are created active; other statuses need an update.
		if req.Status != "" && req.Status != types.JobActive {
			if _, err := jobs.Update(ctx, employer.Caller(), job.ID, &req); err != nil {
				return nil, err
			}
		}
	}

	return summary, nil
}
