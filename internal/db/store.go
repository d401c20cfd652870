package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/types"
)

// JobQuery filters job listings. Location and Search are case-insensitive
// substring matches; Search covers title, description and company name.
type JobQuery struct {
	EmployerID   uuid.UUID
	Category     string
	DurationType string
	Location     string
	Search       string
	Status       types.JobStatus
	Limit        int
}

// ApplicationQuery filters applications. Zero values do not filter.
type ApplicationQuery struct {
	JobID       uuid.UUID
	ApplicantID uuid.UUID
	EmployerID  uuid.UUID
	Statuses    []types.ApplicationStatus
	Limit       int
}

// UserQuery filters user counts.
type UserQuery struct {
	Role types.Role
}

// Store is the full storage contract. It is satisfied by *DB and by the
// in-process memdb implementation.
type Store interface {
	Close()
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	RecomputeUserRating(ctx context.Context, id uuid.UUID) (*User, error)
	CountUsers(ctx context.Context, q UserQuery) (int, error)

	CreateJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	IncrementJobViews(ctx context.Context, id uuid.UUID) (*Job, error)
	ListJobs(ctx context.Context, q JobQuery) ([]Job, error)
	UpdateJob(ctx context.Context, j *Job) error
	DeleteJob(ctx context.Context, id uuid.UUID) (bool, error)
	CountJobs(ctx context.Context, q JobQuery) (int, error)

	CreateApplication(ctx context.Context, a *Application) error
	GetApplication(ctx context.Context, id uuid.UUID) (*Application, error)
	FindApplication(ctx context.Context, jobID, applicantID uuid.UUID) (*Application, error)
	FindApplicationBetween(ctx context.Context, jobID, userA, userB uuid.UUID) (*Application, error)
	ListApplications(ctx context.Context, q ApplicationQuery) ([]Application, error)
	CountApplications(ctx context.Context, q ApplicationQuery) (int, error)
	TransitionApplication(ctx context.Context, id uuid.UUID, from []types.ApplicationStatus, to types.ApplicationStatus) (*Application, error)
	SumEarnings(ctx context.Context, applicantID uuid.UUID) (float64, error)

	CreateRating(ctx context.Context, r *Rating) error
	ListRatingsForUser(ctx context.Context, ratedID uuid.UUID) ([]Rating, error)

	CreateSavedJob(ctx context.Context, s *SavedJob) error
	DeleteSavedJob(ctx context.Context, userID, jobID uuid.UUID) (bool, error)
	ListSavedJobs(ctx context.Context, userID uuid.UUID) ([]SavedJob, error)

	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error)

	GetOrCreateConversation(ctx context.Context, jobID, candidateID, employerID uuid.UUID) (*Conversation, bool, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)
	ListConversationsForUser(ctx context.Context, userID uuid.UUID) ([]Conversation, error)
	CreateMessage(ctx context.Context, m *Message) error
	// CreateFirstMessage appends m unless the conversation already holds a
	// message from m.SenderID. It reports whether m was written.
	CreateFirstMessage(ctx context.Context, m *Message) (bool, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error)
}

// EarningStatuses are the application statuses whose job salary counts
// towards a job seeker's earnings.
var EarningStatuses = []types.ApplicationStatus{types.StatusAccepted, types.StatusCompleted}

// DefaultListLimit caps unbounded listings.
const DefaultListLimit = 1000
