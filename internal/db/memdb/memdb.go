// Package memdb is an in-process implementation of db.Store. It enforces the
// same uniqueness constraints as the PostgreSQL schema and is used by tests
// and by servers started with DATABASE_URL=memory://.
package memdb

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/db"
)

// URL selects the in-memory store in configuration.
const URL = "memory://"

type convKey struct{ job, candidate, employer uuid.UUID }

// Store holds every collection in maps guarded by one mutex.
type Store struct {
	mu   sync.Mutex
	seq  int64
	last time.Time
	now  func() time.Time

	users         map[uuid.UUID]*db.User
	jobs          map[uuid.UUID]*db.Job
	applications  map[uuid.UUID]*db.Application
	ratings       map[uuid.UUID]*db.Rating
	savedJobs     map[uuid.UUID]*db.SavedJob
	notifications map[uuid.UUID]*db.Notification
	conversations map[uuid.UUID]*db.Conversation
	convIndex     map[convKey]uuid.UUID
	messages      map[uuid.UUID][]*db.Message
}

var _ db.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		now:           time.Now,
		users:         map[uuid.UUID]*db.User{},
		jobs:          map[uuid.UUID]*db.Job{},
		applications:  map[uuid.UUID]*db.Application{},
		ratings:       map[uuid.UUID]*db.Rating{},
		savedJobs:     map[uuid.UUID]*db.SavedJob{},
		notifications: map[uuid.UUID]*db.Notification{},
		conversations: map[uuid.UUID]*db.Conversation{},
		convIndex:     map[convKey]uuid.UUID{},
		messages:      map[uuid.UUID][]*db.Message{},
	}
}

func (s *Store) Close() {}

func (s *Store) Ping(context.Context) error { return nil }

// nextSeq returns a strictly increasing sequence number. Caller holds mu.
func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// stamp returns a timestamp strictly after every earlier stamp, so that
// newest-first listings are deterministic. Caller holds mu.
func (s *Store) stamp() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func violation(constraint string) error {
	return fmt.Errorf("memdb: %w", &db.UniqueViolationError{Constraint: constraint})
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func limitOf(n int) int {
	if n <= 0 {
		return db.DefaultListLimit
	}
	return n
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func cloneUser(u *db.User) *db.User {
	c := *u
	c.Skills = slices.Clone(u.Skills)
	return &c
}

func (s *Store) CreateUser(_ context.Context, u *db.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return violation("users_email_key")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Skills == nil {
		u.Skills = db.StringArray{}
	}
	u.CreatedAt = s.stamp()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (s *Store) ListUsers(context.Context) ([]db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *cloneUser(u))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteUser(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	delete(s.users, id)
	return ok, nil
}

func (s *Store) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, db.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	u.PasswordSet = true
	u.UpdatedAt = s.stamp()
	return nil
}

func (s *Store) RecomputeUserRating(_ context.Context, id uuid.UUID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	var sum float64
	var count int
	for _, r := range s.ratings {
		if r.RatedID == id {
			sum += r.Rating
			count++
		}
	}
	u.Rating = 0
	if count > 0 {
		u.Rating = sum / float64(count)
	}
	u.TotalRatings = count
	u.UpdatedAt = s.stamp()
	return cloneUser(u), nil
}

func (s *Store) CountUsers(_ context.Context, q db.UserQuery) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.users {
		if q.Role == "" || u.Role == q.Role {
			n++
		}
	}
	return n, nil
}

// -----------------------------------------------------------------------------
// Jobs
// -----------------------------------------------------------------------------

func cloneJob(j *db.Job) *db.Job {
	c := *j
	c.Requirements = slices.Clone(j.Requirements)
	if j.Deadline != nil {
		d := *j.Deadline
		c.Deadline = &d
	}
	return &c
}

func jobMatches(j *db.Job, q db.JobQuery) bool {
	switch {
	case q.EmployerID != uuid.Nil && j.EmployerID != q.EmployerID:
		return false
	case q.Status != "" && j.Status != q.Status:
		return false
	case q.Category != "" && j.Category != q.Category:
		return false
	case q.DurationType != "" && j.DurationType != q.DurationType:
		return false
	case q.Location != "" && !containsFold(j.Location, q.Location):
		return false
	}
	if q.Search != "" {
		return containsFold(j.Title, q.Search) ||
			containsFold(j.Description, q.Search) ||
			containsFold(j.CompanyName, q.Search)
	}
	return true
}

func (s *Store) CreateJob(_ context.Context, j *db.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	if j.Requirements == nil {
		j.Requirements = db.StringArray{}
	}
	j.PostedDate = s.stamp()
	s.jobs[j.ID] = cloneJob(j)
	return nil
}

func (s *Store) GetJob(_ context.Context, id uuid.UUID) (*db.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		return cloneJob(j), nil
	}
	return nil, nil
}

func (s *Store) IncrementJobViews(_ context.Context, id uuid.UUID) (*db.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	j.Views++
	return cloneJob(j), nil
}

func (s *Store) ListJobs(_ context.Context, q db.JobQuery) ([]db.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []db.Job{}
	for _, j := range s.jobs {
		if jobMatches(j, q) {
			out = append(out, *cloneJob(j))
		}
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].PostedDate.After(out[k].PostedDate) })
	if limit := limitOf(q.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountJobs(_ context.Context, q db.JobQuery) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.jobs {
		if jobMatches(j, q) {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateJob(_ context.Context, j *db.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.jobs[j.ID]
	if !ok {
		return fmt.Errorf("job %s: %w", j.ID, db.ErrNotFound)
	}
	updated := cloneJob(j)
	updated.EmployerID = existing.EmployerID
	updated.Views = existing.Views
	updated.PostedDate = existing.PostedDate
	s.jobs[j.ID] = updated
	return nil
}

func (s *Store) DeleteJob(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[id]
	delete(s.jobs, id)
	return ok, nil
}
