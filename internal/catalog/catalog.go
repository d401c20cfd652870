// Package catalog manages job postings and users' saved jobs.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/apperr"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/types"
	"github.com/sirupsen/logrus"
)

// filterAll is the filter value meaning "do not filter".
const filterAll = "all"

// Catalog provides job posting operations.
type Catalog struct {
	store db.Store
	log   logrus.FieldLogger
}

// New creates a Catalog.
func New(store db.Store, log logrus.FieldLogger) *Catalog {
	return &Catalog{store: store, log: log}
}

// Create posts a job owned by the caller. Only employers and admins may post.
func (c *Catalog) Create(ctx context.Context, caller types.Caller, req *types.JobRequest) (*db.Job, error) {
	if caller.Role != types.RoleEmployer && !caller.IsAdmin() {
		return nil, apperr.Forbidden("only employers can post jobs")
	}
	job, err := jobFromRequest(req)
	if err != nil {
		return nil, err
	}
	job.EmployerID = caller.ID
	job.Status = types.JobActive

	if err := c.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	c.log.WithFields(logrus.Fields{"job_id": job.ID, "user_id": caller.ID}).Info("job posted")
	return job, nil
}

// List returns jobs matching the filter, newest first. Status defaults to
// active; "all" for category and duration type matches everything.
func (c *Catalog) List(ctx context.Context, f types.JobFilter) ([]db.Job, error) {
	jobs, err := c.store.ListJobs(ctx, queryFromFilter(f))
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

func queryFromFilter(f types.JobFilter) db.JobQuery {
	q := db.JobQuery{
		Location: strings.TrimSpace(f.Location),
		Search:   strings.TrimSpace(f.Search),
		Status:   types.JobActive,
		Limit:    db.DefaultListLimit,
	}
	if f.Category != filterAll {
		q.Category = f.Category
	}
	if f.DurationType != filterAll {
		q.DurationType = f.DurationType
	}
	switch f.Status {
	case "":
	case filterAll:
		q.Status = ""
	default:
		q.Status = types.JobStatus(f.Status)
	}
	return q
}

// Get returns a job and counts the view. Concurrent views may lose an
// increment on stores without atomic updates; the count is advisory.
func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (*db.Job, error) {
	job, err := c.store.IncrementJobViews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return nil, apperr.NotFound("job", id)
	}
	return job, nil
}

// Update replaces a job's fields. Only the owner and admins may update; the
// status is kept unless the request sets one.
func (c *Catalog) Update(ctx context.Context, caller types.Caller, id uuid.UUID, req *types.JobRequest) (*db.Job, error) {
	existing, err := c.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	job, err := jobFromRequest(req)
	if err != nil {
		return nil, err
	}
	job.ID = existing.ID
	job.EmployerID = existing.EmployerID
	job.Status = existing.Status
	if req.Status != "" {
		job.Status = req.Status
	}

	// The job may be deleted between the ownership check and the write.
	if err := c.store.UpdateJob(ctx, job); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, apperr.NotFound("job", id)
		}
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	updated, err := c.store.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if updated == nil {
		return nil, apperr.NotFound("job", id)
	}
	return updated, nil
}

// Delete removes a job. Only the owner and admins may delete. Applications
// on the job are kept.
func (c *Catalog) Delete(ctx context.Context, caller types.Caller, id uuid.UUID) error {
	if _, err := c.owned(ctx, caller, id); err != nil {
		return err
	}
	deleted, err := c.store.DeleteJob(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if !deleted {
		return apperr.NotFound("job", id)
	}
	c.log.WithFields(logrus.Fields{"job_id": id, "user_id": caller.ID}).Info("job deleted")
	return nil
}

func (c *Catalog) owned(ctx context.Context, caller types.Caller, id uuid.UUID) (*db.Job, error) {
	job, err := c.store.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return nil, apperr.NotFound("job", id)
	}
	if job.EmployerID != caller.ID && !caller.IsAdmin() {
		return nil, apperr.Forbidden("not authorized")
	}
	return job, nil
}

func jobFromRequest(req *types.JobRequest) (*db.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid("", err.Error())
	}
	deadline, err := db.ParseDate(req.Deadline)
	if err != nil {
		return nil, apperr.Invalid("deadline", "must be a date in YYYY-MM-DD format")
	}
	requirements := db.StringArray(req.Requirements)
	if requirements == nil {
		requirements = db.StringArray{}
	}
	return &db.Job{
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		CompanyName:   strings.TrimSpace(req.CompanyName),
		Location:      strings.TrimSpace(req.Location),
		DurationType:  req.DurationType,
		DurationValue: req.DurationValue,
		Salary:        req.Salary,
		Category:      req.Category,
		Requirements:  requirements,
		Deadline:      deadline,
	}, nil
}
