package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Job Methods
// -----------------------------------------------------------------------------

const jobColumns = `id, employer_id, title, description, company_name, location, duration_type,
	duration_value, salary, category, requirements, deadline, status, views, posted_date`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.EmployerID, &j.Title, &j.Description, &j.CompanyName, &j.Location,
		&j.DurationType, &j.DurationValue, &j.Salary, &j.Category, &j.Requirements, &j.Deadline,
		&j.Status, &j.Views, &j.PostedDate)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// CreateJob inserts a new job posting
func (db *DB) CreateJob(ctx context.Context, j *Job) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, employer_id, title, description, company_name, location, duration_type,
		                   duration_value, salary, category, requirements, deadline, status, views)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING posted_date`,
		j.ID, j.EmployerID, j.Title, j.Description, j.CompanyName, j.Location, j.DurationType,
		j.DurationValue, j.Salary, j.Category, j.Requirements, j.Deadline, j.Status, j.Views,
	).Scan(&j.PostedDate)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", translateError(err))
	}
	return nil
}

// GetJob retrieves a job by ID
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	j, err := scanJob(db.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// IncrementJobViews atomically bumps the view counter and returns the updated job
func (db *DB) IncrementJobViews(ctx context.Context, id uuid.UUID) (*Job, error) {
	j, err := scanJob(db.pool.QueryRow(ctx,
		`UPDATE jobs SET views = views + 1 WHERE id = $1 RETURNING `+jobColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to increment job views: %w", err)
	}
	return j, nil
}

// jobWhere builds the WHERE clause and arguments for a job query.
func jobWhere(q JobQuery) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.EmployerID != uuid.Nil {
		add("employer_id = $%d", q.EmployerID)
	}
	if q.Status != "" {
		add("status = $%d", q.Status)
	}
	if q.Category != "" {
		add("category = $%d", q.Category)
	}
	if q.DurationType != "" {
		add("duration_type = $%d", q.DurationType)
	}
	if q.Location != "" {
		add("location ILIKE '%%' || $%d || '%%'", q.Location)
	}
	if q.Search != "" {
		args = append(args, q.Search)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%' OR company_name ILIKE '%%' || $%d || '%%')",
			n, n, n))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListJobs retrieves jobs matching the query, newest first
func (db *DB) ListJobs(ctx context.Context, q JobQuery) ([]Job, error) {
	where, args := jobWhere(q)
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	args = append(args, limit)
	query := `SELECT ` + jobColumns + ` FROM jobs` + where +
		fmt.Sprintf(` ORDER BY posted_date DESC LIMIT $%d`, len(args))

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// CountJobs counts jobs matching the query
func (db *DB) CountJobs(ctx context.Context, q JobQuery) (int, error) {
	where, args := jobWhere(q)
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return n, nil
}

// UpdateJob overwrites the mutable fields of a job
func (db *DB) UpdateJob(ctx context.Context, j *Job) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE jobs SET title = $2, description = $3, company_name = $4, location = $5,
		                 duration_type = $6, duration_value = $7, salary = $8, category = $9,
		                 requirements = $10, deadline = $11, status = $12
		 WHERE id = $1`,
		j.ID, j.Title, j.Description, j.CompanyName, j.Location, j.DurationType, j.DurationValue,
		j.Salary, j.Category, j.Requirements, j.Deadline, j.Status)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("job %s: %w", j.ID, ErrNotFound)
	}
	return nil
}

// DeleteJob removes a job. It reports whether a row was deleted.
func (db *DB) DeleteJob(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete job: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
