package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/jobni/internal/types"
)

// -----------------------------------------------------------------------------
// Application Methods
// -----------------------------------------------------------------------------

const applicationColumns = `id, job_id, applicant_id, employer_id, status, message, applied_date, updated_at`

func scanApplication(row pgx.Row) (*Application, error) {
	var a Application
	err := row.Scan(&a.ID, &a.JobID, &a.ApplicantID, &a.EmployerID, &a.Status, &a.Message,
		&a.AppliedDate, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func statusStrings(statuses []types.ApplicationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// CreateApplication inserts an application. A second application for the
// same job and applicant yields *UniqueViolationError.
func (db *DB) CreateApplication(ctx context.Context, a *Application) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO applications (id, job_id, applicant_id, employer_id, status, message)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING applied_date, updated_at`,
		a.ID, a.JobID, a.ApplicantID, a.EmployerID, a.Status, a.Message,
	).Scan(&a.AppliedDate, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", translateError(err))
	}
	return nil
}

// GetApplication retrieves an application by ID
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	a, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

// FindApplication retrieves the application a user made for a job
func (db *DB) FindApplication(ctx context.Context, jobID, applicantID uuid.UUID) (*Application, error) {
	a, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE job_id = $1 AND applicant_id = $2`,
		jobID, applicantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find application: %w", err)
	}
	return a, nil
}

// FindApplicationBetween retrieves the application for a job where the two
// users are the applicant and the employer, in either order.
func (db *DB) FindApplicationBetween(ctx context.Context, jobID, userA, userB uuid.UUID) (*Application, error) {
	a, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE job_id = $1
		   AND ((applicant_id = $2 AND employer_id = $3) OR (applicant_id = $3 AND employer_id = $2))
		 LIMIT 1`,
		jobID, userA, userB))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find application: %w", err)
	}
	return a, nil
}

func applicationWhere(q ApplicationQuery) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.JobID != uuid.Nil {
		add("job_id = $%d", q.JobID)
	}
	if q.ApplicantID != uuid.Nil {
		add("applicant_id = $%d", q.ApplicantID)
	}
	if q.EmployerID != uuid.Nil {
		add("employer_id = $%d", q.EmployerID)
	}
	if len(q.Statuses) > 0 {
		add("status = ANY($%d)", statusStrings(q.Statuses))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListApplications retrieves applications matching the query, newest first
func (db *DB) ListApplications(ctx context.Context, q ApplicationQuery) ([]Application, error) {
	where, args := applicationWhere(q)
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	args = append(args, limit)
	query := `SELECT ` + applicationColumns + ` FROM applications` + where +
		fmt.Sprintf(` ORDER BY applied_date DESC LIMIT $%d`, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// CountApplications counts applications matching the query
func (db *DB) CountApplications(ctx context.Context, q ApplicationQuery) (int, error) {
	where, args := applicationWhere(q)
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return n, nil
}

// TransitionApplication moves an application to status `to`, but only if
// its current status is one of `from`. It returns nil when no row matched;
// callers re-read to tell a missing application from a stale status.
func (db *DB) TransitionApplication(ctx context.Context, id uuid.UUID, from []types.ApplicationStatus, to types.ApplicationStatus) (*Application, error) {
	a, err := scanApplication(db.pool.QueryRow(ctx,
		`UPDATE applications SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND status = ANY($3)
		 RETURNING `+applicationColumns,
		id, to, statusStrings(from)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to transition application: %w", err)
	}
	return a, nil
}

// SumEarnings totals the salary of every job whose application by the user
// was accepted or completed.
func (db *DB) SumEarnings(ctx context.Context, applicantID uuid.UUID) (float64, error) {
	var total float64
	err := db.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(j.salary), 0)
		 FROM applications a JOIN jobs j ON j.id = a.job_id
		 WHERE a.applicant_id = $1 AND a.status = ANY($2)`,
		applicantID, statusStrings(EarningStatuses)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum earnings: %w", err)
	}
	return total, nil
}
