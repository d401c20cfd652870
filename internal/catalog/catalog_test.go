package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/apperr"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/db/memdb"
	"github.com/jonathan/jobni/internal/observability"
	"github.com/jonathan/jobni/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	employer = types.Caller{ID: uuid.New(), Role: types.RoleEmployer, Name: "Acme"}
	admin    = types.Caller{ID: uuid.New(), Role: types.RoleAdmin, Name: "Admin"}
	seeker   = types.Caller{ID: uuid.New(), Role: types.RoleJobSeeker, Name: "Sara"}
)

func jobRequest(title string) *types.JobRequest {
	return &types.JobRequest{
		Title:         title,
		Description:   "Serve coffee to customers",
		CompanyName:   "Acme Cafe",
		Location:      "Riyadh",
		DurationType:  "hours_8",
		DurationValue: "1",
		Salary:        250,
		Category:      "hospitality",
		Requirements:  []string{"friendly"},
	}
}

func newCatalog() *Catalog {
	return New(memdb.New(), observability.DiscardLogger())
}

func TestCreate(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	job, err := c.Create(ctx, employer, jobRequest("Barista"))
	require.NoError(t, err)
	assert.Equal(t, employer.ID, job.EmployerID)
	assert.Equal(t, types.JobActive, job.Status)
	assert.Zero(t, job.Views)

	byAdmin, err := c.Create(ctx, admin, jobRequest("Admin job"))
	require.NoError(t, err)
	assert.Equal(t, admin.ID, byAdmin.EmployerID)

	_, err = c.Create(ctx, seeker, jobRequest("Nope"))
	assert.True(t, apperr.IsForbidden(err))

	bad := jobRequest("Bad")
	bad.DurationType = "fortnight"
	_, err = c.Create(ctx, employer, bad)
	assert.True(t, apperr.IsInvalid(err))

	negative := jobRequest("Negative")
	negative.Salary = -1
	_, err = c.Create(ctx, employer, negative)
	assert.True(t, apperr.IsInvalid(err))

	withDeadline := jobRequest("Deadline")
	withDeadline.Deadline = "2026-12-31"
	job, err = c.Create(ctx, employer, withDeadline)
	require.NoError(t, err)
	require.NotNil(t, job.Deadline)
	assert.Equal(t, 2026, job.Deadline.Year())
}

func TestList(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()

	barista, err := c.Create(ctx, employer, jobRequest("Barista"))
	require.NoError(t, err)

	driverReq := jobRequest("Delivery driver")
	driverReq.Category = "logistics"
	driverReq.Location = "Jeddah"
	driverReq.DurationType = "week"
	driver, err := c.Create(ctx, employer, driverReq)
	require.NoError(t, err)

	closedReq := jobRequest("Closed cashier")
	closed, err := c.Create(ctx, employer, closedReq)
	require.NoError(t, err)
	closedReq.Status = types.JobClosed
	_, err = c.Update(ctx, employer, closed.ID, closedReq)
	require.NoError(t, err)

	ids := func(filter types.JobFilter) []uuid.UUID {
		t.Helper()
		jobs, err := c.List(ctx, filter)
		require.NoError(t, err)
		out := make([]uuid.UUID, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, j.ID)
		}
		return out
	}

	assert.Equal(t, []uuid.UUID{driver.ID, barista.ID}, ids(types.JobFilter{}), "active only, newest first")
	assert.Equal(t, []uuid.UUID{closed.ID, driver.ID, barista.ID}, ids(types.JobFilter{Status: "all"}))
	assert.Equal(t, []uuid.UUID{closed.ID}, ids(types.JobFilter{Status: "closed"}))
	assert.Equal(t, []uuid.UUID{driver.ID}, ids(types.JobFilter{Category: "logistics"}))
	assert.Equal(t, []uuid.UUID{driver.ID, barista.ID}, ids(types.JobFilter{Category: "all", DurationType: "all"}))
	assert.Equal(t, []uuid.UUID{driver.ID}, ids(types.JobFilter{DurationType: "week"}))
	assert.Equal(t, []uuid.UUID{driver.ID}, ids(types.JobFilter{Location: "jed"}))
	assert.Equal(t, []uuid.UUID{barista.ID}, ids(types.JobFilter{Search: "BARISTA"}))
	assert.Equal(t, []uuid.UUID{driver.ID, barista.ID}, ids(types.JobFilter{Search: "acme"}), "search covers company name")
}

func TestGet_CountsViews(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()
	job, err := c.Create(ctx, employer, jobRequest("Barista"))
	require.NoError(t, err)

	got, err := c.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(ctx, job.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err = c.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(22), got.Views)

	_, err = c.Get(ctx, uuid.New())
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpdateAndDelete(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()
	job, err := c.Create(ctx, employer, jobRequest("Barista"))
	require.NoError(t, err)
	_, err = c.Get(ctx, job.ID)
	require.NoError(t, err)

	req := jobRequest("Head barista")
	req.Salary = 400
	updated, err := c.Update(ctx, employer, job.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Head barista", updated.Title)
	assert.Equal(t, 400.0, updated.Salary)
	assert.Equal(t, types.JobActive, updated.Status, "status kept when not set")
	assert.Equal(t, int64(1), updated.Views, "views survive updates")

	other := types.Caller{ID: uuid.New(), Role: types.RoleEmployer}
	_, err = c.Update(ctx, other, job.ID, req)
	assert.True(t, apperr.IsForbidden(err))
	assert.True(t, apperr.IsForbidden(c.Delete(ctx, other, job.ID)))

	req.Status = types.JobCompleted
	updated, err = c.Update(ctx, admin, job.ID, req)
	require.NoError(t, err)
	assert.Equal(t, types.JobCompleted, updated.Status)

	require.NoError(t, c.Delete(ctx, employer, job.ID))
	assert.True(t, apperr.IsNotFound(c.Delete(ctx, employer, job.ID)))
	_, err = c.Update(ctx, employer, job.ID, req)
	assert.True(t, apperr.IsNotFound(err))
}

// vanishingJobs deletes the job just before every update reaches the store.
type vanishingJobs struct {
	db.Store
}

func (s vanishingJobs) UpdateJob(ctx context.Context, j *db.Job) error {
	if _, err := s.Store.DeleteJob(ctx, j.ID); err != nil {
		return err
	}
	return s.Store.UpdateJob(ctx, j)
}

func TestUpdate_JobDeletedMidway(t *testing.T) {
	c := New(vanishingJobs{Store: memdb.New()}, observability.DiscardLogger())
	ctx := context.Background()
	job, err := c.Create(ctx, employer, jobRequest("Barista"))
	require.NoError(t, err)

	_, err = c.Update(ctx, employer, job.ID, jobRequest("Head barista"))
	assert.True(t, apperr.IsNotFound(err), "got %v", err)
}

func TestSavedJobs(t *testing.T) {
	c := newCatalog()
	ctx := context.Background()
	first, err := c.Create(ctx, employer, jobRequest("First"))
	require.NoError(t, err)
	second, err := c.Create(ctx, employer, jobRequest("Second"))
	require.NoError(t, err)

	require.NoError(t, c.Save(ctx, seeker, first.ID))
	require.NoError(t, c.Save(ctx, seeker, second.ID))
	assert.True(t, apperr.IsConflict(c.Save(ctx, seeker, first.ID)))
	assert.True(t, apperr.IsNotFound(c.Save(ctx, seeker, uuid.New())))

	ids, err := c.ListSaved(ctx, seeker)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID, first.ID}, ids)

	require.NoError(t, c.Unsave(ctx, seeker, first.ID))
	assert.True(t, apperr.IsNotFound(c.Unsave(ctx, seeker, first.ID)))

	ids, err = c.ListSaved(ctx, seeker)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID}, ids)

	ids, err = c.ListSaved(ctx, admin)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
