// Package reports computes statistics and assembles invoices.
package reports

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/apperr"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/rendering"
	"github.com/jonathan/jobni/internal/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Service answers reporting queries.
type Service struct {
	store db.Store
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewService creates a reports Service.
func NewService(store db.Store, log logrus.FieldLogger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// count is one counter query feeding into a statistics field.
type count struct {
	dst *int
	run func(context.Context) (int, error)
}

// runCounts runs the counter queries concurrently and fails on the first
// error.
func runCounts(ctx context.Context, counts []count) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		g.Go(func() error {
			n, err := c.run(ctx)
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) users(q db.UserQuery) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) { return s.store.CountUsers(ctx, q) }
}

func (s *Service) jobs(q db.JobQuery) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) { return s.store.CountJobs(ctx, q) }
}

func (s *Service) applications(q db.ApplicationQuery) func(context.Context) (int, error) {
	return func(ctx context.Context) (int, error) { return s.store.CountApplications(ctx, q) }
}

func pending() []types.ApplicationStatus  { return []types.ApplicationStatus{types.StatusPending} }
func accepted() []types.ApplicationStatus { return []types.ApplicationStatus{types.StatusAccepted} }

// AdminStats returns the platform-wide counters. Admin only.
func (s *Service) AdminStats(ctx context.Context, caller types.Caller) (*types.AdminStats, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("admin access required")
	}
	return s.PlatformStats(ctx)
}

// PlatformStats returns the platform-wide counters without an access check.
// It backs the CLI stats command.
func (s *Service) PlatformStats(ctx context.Context) (*types.AdminStats, error) {
	var st types.AdminStats
	err := runCounts(ctx, []count{
		{&st.TotalUsers, s.users(db.UserQuery{})},
		{&st.Employers, s.users(db.UserQuery{Role: types.RoleEmployer})},
		{&st.JobSeekers, s.users(db.UserQuery{Role: types.RoleJobSeeker})},
		{&st.TotalJobs, s.jobs(db.JobQuery{})},
		{&st.ActiveJobs, s.jobs(db.JobQuery{Status: types.JobActive})},
		{&st.TotalApplications, s.applications(db.ApplicationQuery{})},
		{&st.PendingApplications, s.applications(db.ApplicationQuery{Statuses: pending()})},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute admin stats: %w", err)
	}
	return &st, nil
}

// UserStats returns the caller's own statistics: an EmployerStats for
// employers, a JobSeekerStats for job seekers and an empty object otherwise.
func (s *Service) UserStats(ctx context.Context, caller types.Caller) (any, error) {
	switch caller.Role {
	case types.RoleEmployer:
		var st types.EmployerStats
		byEmployer := func(statuses []types.ApplicationStatus) db.ApplicationQuery {
			return db.ApplicationQuery{EmployerID: caller.ID, Statuses: statuses}
		}
		err := runCounts(ctx, []count{
			{&st.TotalJobs, s.jobs(db.JobQuery{EmployerID: caller.ID})},
			{&st.ActiveJobs, s.jobs(db.JobQuery{EmployerID: caller.ID, Status: types.JobActive})},
			{&st.TotalApplications, s.applications(byEmployer(nil))},
			{&st.PendingApplications, s.applications(byEmployer(pending()))},
			{&st.AcceptedApplications, s.applications(byEmployer(accepted()))},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to compute employer stats: %w", err)
		}
		return &st, nil

	case types.RoleJobSeeker:
		var st types.JobSeekerStats
		byApplicant := func(statuses ...types.ApplicationStatus) db.ApplicationQuery {
			return db.ApplicationQuery{ApplicantID: caller.ID, Statuses: statuses}
		}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return runCounts(gctx, []count{
				{&st.TotalApplications, s.applications(byApplicant())},
				{&st.PendingApplications, s.applications(byApplicant(types.StatusPending))},
				{&st.AcceptedApplications, s.applications(byApplicant(types.StatusAccepted))},
				{&st.CompletedJobs, s.applications(byApplicant(types.StatusCompleted))},
			})
		})
		g.Go(func() error {
			total, err := s.store.SumEarnings(gctx, caller.ID)
			st.TotalEarnings = total
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("failed to compute job seeker stats: %w", err)
		}
		return &st, nil
	}
	return struct{}{}, nil
}

// invoiceStatuses are the application statuses an invoice can be issued for.
var invoiceStatuses = []types.ApplicationStatus{types.StatusAccepted, types.StatusCompleted}

// Invoice renders the PDF invoice for an accepted or completed application.
// The applicant, the employer and admins may request it.
func (s *Service) Invoice(ctx context.Context, caller types.Caller, applicationID uuid.UUID) ([]byte, error) {
	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if app == nil {
		return nil, apperr.NotFound("application", applicationID)
	}
	if caller.ID != app.ApplicantID && caller.ID != app.EmployerID && !caller.IsAdmin() {
		return nil, apperr.Forbidden("not authorized")
	}
	if !slices.Contains(invoiceStatuses, app.Status) {
		return nil, apperr.Invalid("status", "invoice only for accepted/completed jobs")
	}

	job, err := s.store.GetJob(ctx, app.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return nil, apperr.NotFound("job", app.JobID)
	}
	worker, err := s.store.GetUser(ctx, app.ApplicantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if worker == nil {
		return nil, apperr.NotFound("user", app.ApplicantID)
	}

	var buf bytes.Buffer
	err = rendering.RenderInvoice(&rendering.Invoice{
		ApplicationID: app.ID,
		Date:          s.now(),
		JobTitle:      job.Title,
		CompanyName:   job.CompanyName,
		DurationType:  job.DurationType,
		DurationValue: job.DurationValue,
		Location:      job.Location,
		WorkerName:    worker.Name,
		WorkerEmail:   worker.Email,
		WorkerPhone:   worker.Phone,
		Amount:        job.Salary,
		Status:        string(app.Status),
	}, &buf)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"application_id": app.ID, "user_id": caller.ID}).Info("invoice generated")
	return buf.Bytes(), nil
}
