package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// User Methods
// -----------------------------------------------------------------------------

const userColumns = `id, email, name, phone, role, company_name, skills, profile_pic,
	rating, total_ratings, password_hash, password_set, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role, &u.CompanyName, &u.Skills,
		&u.ProfilePic, &u.Rating, &u.TotalRatings, &u.PasswordHash, &u.PasswordSet,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user and fills in its ID and timestamps.
// A duplicate email yields *UniqueViolationError.
func (db *DB) CreateUser(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name, phone, role, company_name, skills, profile_pic,
		                    rating, total_ratings, password_hash, password_set)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at, updated_at`,
		u.ID, u.Email, u.Name, u.Phone, u.Role, u.CompanyName, u.Skills, u.ProfilePic,
		u.Rating, u.TotalRatings, u.PasswordHash, u.PasswordSet,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateError(err))
	}
	return nil
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// ListUsers retrieves all users, newest first
func (db *DB) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1`, DefaultListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user record. It reports whether a row was deleted.
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// UpdatePassword sets a user's password hash and marks the password as set
func (db *DB) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, password_set = TRUE, updated_at = NOW() WHERE id = $2`,
		passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecomputeUserRating recalculates a user's average rating and rating count
// from the ratings collection in a single statement. Returns nil if the user
// does not exist.
func (db *DB) RecomputeUserRating(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`UPDATE users u
		 SET rating = agg.avg_rating, total_ratings = agg.cnt, updated_at = NOW()
		 FROM (SELECT COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) AS cnt
		       FROM ratings WHERE rated_id = $1) agg
		 WHERE u.id = $1
		 RETURNING u.id, u.email, u.name, u.phone, u.role, u.company_name, u.skills, u.profile_pic,
		           u.rating, u.total_ratings, u.password_hash, u.password_set, u.created_at, u.updated_at`,
		id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to recompute rating: %w", err)
	}
	return u, nil
}

// CountUsers counts users, optionally by role
func (db *DB) CountUsers(ctx context.Context, q UserQuery) (int, error) {
	var n int
	var err error
	if q.Role == "" {
		err = db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	} else {
		err = db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, q.Role).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
