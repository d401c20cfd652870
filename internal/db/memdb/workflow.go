package memdb

import (
	"context"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/types"
)

// -----------------------------------------------------------------------------
// Applications
// -----------------------------------------------------------------------------

func applicationMatches(a *db.Application, q db.ApplicationQuery) bool {
	switch {
	case q.JobID != uuid.Nil && a.JobID != q.JobID:
		return false
	case q.ApplicantID != uuid.Nil && a.ApplicantID != q.ApplicantID:
		return false
	case q.EmployerID != uuid.Nil && a.EmployerID != q.EmployerID:
		return false
	case len(q.Statuses) > 0 && !slices.Contains(q.Statuses, a.Status):
		return false
	}
	return true
}

func (s *Store) CreateApplication(_ context.Context, a *db.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.applications {
		if existing.JobID == a.JobID && existing.ApplicantID == a.ApplicantID {
			return violation("applications_job_applicant_key")
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.AppliedDate = s.stamp()
	a.UpdatedAt = a.AppliedDate
	c := *a
	s.applications[a.ID] = &c
	return nil
}

func (s *Store) GetApplication(_ context.Context, id uuid.UUID) (*db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.applications[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, nil
}

func (s *Store) FindApplication(_ context.Context, jobID, applicantID uuid.UUID) (*db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.applications {
		if a.JobID == jobID && a.ApplicantID == applicantID {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) FindApplicationBetween(_ context.Context, jobID, userA, userB uuid.UUID) (*db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.applications {
		if a.JobID != jobID {
			continue
		}
		if (a.ApplicantID == userA && a.EmployerID == userB) || (a.ApplicantID == userB && a.EmployerID == userA) {
			c := *a
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) ListApplications(_ context.Context, q db.ApplicationQuery) ([]db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []db.Application{}
	for _, a := range s.applications {
		if applicationMatches(a, q) {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AppliedDate.After(out[j].AppliedDate) })
	if limit := limitOf(q.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountApplications(_ context.Context, q db.ApplicationQuery) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.applications {
		if applicationMatches(a, q) {
			n++
		}
	}
	return n, nil
}

func (s *Store) TransitionApplication(_ context.Context, id uuid.UUID, from []types.ApplicationStatus, to types.ApplicationStatus) (*db.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok || !slices.Contains(from, a.Status) {
		return nil, nil
	}
	a.Status = to
	a.UpdatedAt = s.stamp()
	c := *a
	return &c, nil
}

func (s *Store) SumEarnings(_ context.Context, applicantID uuid.UUID) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, a := range s.applications {
		if a.ApplicantID != applicantID || !slices.Contains(db.EarningStatuses, a.Status) {
			continue
		}
		if j, ok := s.jobs[a.JobID]; ok {
			total += j.Salary
		}
	}
	return total, nil
}

// -----------------------------------------------------------------------------
// Ratings and saved jobs
// -----------------------------------------------------------------------------

func (s *Store) CreateRating(_ context.Context, r *db.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.ratings {
		if existing.JobID == r.JobID && existing.RaterID == r.RaterID && existing.RatedID == r.RatedID {
			return violation("ratings_job_rater_rated_key")
		}
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.Date = s.stamp()
	c := *r
	s.ratings[r.ID] = &c
	return nil
}

func (s *Store) ListRatingsForUser(_ context.Context, ratedID uuid.UUID) ([]db.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []db.Rating{}
	for _, r := range s.ratings {
		if r.RatedID == ratedID {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) CreateSavedJob(_ context.Context, sj *db.SavedJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.savedJobs {
		if existing.UserID == sj.UserID && existing.JobID == sj.JobID {
			return violation("saved_jobs_user_job_key")
		}
	}
	if sj.ID == uuid.Nil {
		sj.ID = uuid.New()
	}
	sj.SavedDate = s.stamp()
	c := *sj
	s.savedJobs[sj.ID] = &c
	return nil
}

func (s *Store) DeleteSavedJob(_ context.Context, userID, jobID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sj := range s.savedJobs {
		if sj.UserID == userID && sj.JobID == jobID {
			delete(s.savedJobs, id)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListSavedJobs(_ context.Context, userID uuid.UUID) ([]db.SavedJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []db.SavedJob{}
	for _, sj := range s.savedJobs {
		if sj.UserID == userID {
			out = append(out, *sj)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SavedDate.After(out[j].SavedDate) })
	return out, nil
}
