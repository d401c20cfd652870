package types

import "github.com/google/uuid"

// Role is the account type of a user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleEmployer  Role = "employer"
	RoleJobSeeker Role = "job_seeker"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployer, RoleJobSeeker:
		return true
	}
	return false
}

// ApplicationStatus is the life-cycle state of a job application.
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusRejected  ApplicationStatus = "rejected"
	StatusCompleted ApplicationStatus = "completed"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// JobStatus is the publication state of a job posting. It is independent of
// the states of the applications made against the job.
type JobStatus string

const (
	JobActive    JobStatus = "active"
	JobClosed    JobStatus = "closed"
	JobCompleted JobStatus = "completed"
)

// Caller is the authenticated identity on whose behalf an operation runs.
type Caller struct {
	ID   uuid.UUID
	Role Role
	Name string
}

// IsAdmin reports whether the caller has the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}
