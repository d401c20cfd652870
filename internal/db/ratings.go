package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateRating inserts a rating. A repeated (job, rater, rated) triple
// yields *UniqueViolationError.
func (db *DB) CreateRating(ctx context.Context, r *Rating) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO ratings (id, job_id, rater_id, rated_id, rating, comment)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		r.ID, r.JobID, r.RaterID, r.RatedID, r.Rating, r.Comment,
	).Scan(&r.Date)
	if err != nil {
		return fmt.Errorf("failed to create rating: %w", translateError(err))
	}
	return nil
}

// ListRatingsForUser retrieves ratings a user received, newest first
func (db *DB) ListRatingsForUser(ctx context.Context, ratedID uuid.UUID) ([]Rating, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, rater_id, rated_id, rating, comment, created_at
		 FROM ratings WHERE rated_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		ratedID, DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	ratings := []Rating{}
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.ID, &r.JobID, &r.RaterID, &r.RatedID, &r.Rating, &r.Comment, &r.Date); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}
