package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateSavedJob bookmarks a job for a user. Saving the same job twice
// yields *UniqueViolationError.
func (db *DB) CreateSavedJob(ctx context.Context, s *SavedJob) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO saved_jobs (id, user_id, job_id) VALUES ($1, $2, $3) RETURNING saved_date`,
		s.ID, s.UserID, s.JobID,
	).Scan(&s.SavedDate)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", translateError(err))
	}
	return nil
}

// DeleteSavedJob removes a bookmark. It reports whether one existed.
func (db *DB) DeleteSavedJob(ctx context.Context, userID, jobID uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM saved_jobs WHERE user_id = $1 AND job_id = $2`, userID, jobID)
	if err != nil {
		return false, fmt.Errorf("failed to delete saved job: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListSavedJobs retrieves a user's bookmarks, newest first
func (db *DB) ListSavedJobs(ctx context.Context, userID uuid.UUID) ([]SavedJob, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, job_id, saved_date FROM saved_jobs
		 WHERE user_id = $1 ORDER BY saved_date DESC LIMIT $2`,
		userID, DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved jobs: %w", err)
	}
	defer rows.Close()

	saved := []SavedJob{}
	for rows.Next() {
		var s SavedJob
		if err := rows.Scan(&s.ID, &s.UserID, &s.JobID, &s.SavedDate); err != nil {
			return nil, fmt.Errorf("failed to scan saved job: %w", err)
		}
		saved = append(saved, s)
	}
	return saved, rows.Err()
}
