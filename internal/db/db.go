// Package db provides PostgreSQL-backed storage for the Jobni collections.
//
// Records are addressed by id only; there are no cascading relations between
// collections. Uniqueness invariants (one application per job and applicant,
// one rating per job/rater/rated triple, one saved job per user and job, one
// conversation per job/candidate/employer triple, unique emails) are enforced
// by unique indexes and surface as *UniqueViolationError.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// ErrNotFound is returned by updates whose target row does not exist.
var ErrNotFound = errors.New("not found")

// UniqueViolationError is returned when an insert would break a uniqueness
// invariant.
type UniqueViolationError struct {
	Constraint string
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique constraint violated: %s", e.Constraint)
}

// IsUniqueViolation reports whether err is (or wraps) a UniqueViolationError.
func IsUniqueViolation(err error) bool {
	var e *UniqueViolationError
	return errors.As(err, &e)
}

// translateError maps driver errors onto package errors.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &UniqueViolationError{Constraint: pgErr.ConstraintName}
	}
	return err
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

var _ Store = (*DB)(nil)

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks database connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
