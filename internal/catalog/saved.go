package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/apperr"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/types"
)

// Save bookmarks a job for the caller. Saving the same job twice conflicts.
func (c *Catalog) Save(ctx context.Context, caller types.Caller, jobID uuid.UUID) error {
	job, err := c.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return apperr.NotFound("job", jobID)
	}

	if err := c.store.CreateSavedJob(ctx, &db.SavedJob{UserID: caller.ID, JobID: jobID}); err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Conflict("saved job", "job already saved")
		}
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// Unsave removes a bookmark. It fails with NotFound when there was none.
func (c *Catalog) Unsave(ctx context.Context, caller types.Caller, jobID uuid.UUID) error {
	deleted, err := c.store.DeleteSavedJob(ctx, caller.ID, jobID)
	if err != nil {
		return fmt.Errorf("failed to unsave job: %w", err)
	}
	if !deleted {
		return apperr.NotFound("saved job", jobID)
	}
	return nil
}

// ListSaved returns the ids of the caller's saved jobs, most recently saved
// first.
func (c *Catalog) ListSaved(ctx context.Context, caller types.Caller) ([]uuid.UUID, error) {
	saved, err := c.store.ListSavedJobs(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved jobs: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(saved))
	for _, s := range saved {
		ids = append(ids, s.JobID)
	}
	return ids, nil
}
