package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/types"
)

// Job represents a job posting
type Job struct {
	ID            uuid.UUID       `json:"id"`
	EmployerID    uuid.UUID       `json:"employer_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	CompanyName   string          `json:"company_name"`
	Location      string          `json:"location"`
	DurationType  string          `json:"duration_type"`
	DurationValue string          `json:"duration_value"`
	Salary        float64         `json:"salary"`
	Category      string          `json:"category"`
	Requirements  StringArray     `json:"requirements"`
	Deadline      *Date           `json:"deadline,omitempty"`
	Status        types.JobStatus `json:"status"`
	Views         int64           `json:"views"`
	PostedDate    time.Time       `json:"posted_date"`
}

// Application represents a job seeker's request to be considered for a job.
// EmployerID is copied from the job when the application is created.
type Application struct {
	ID          uuid.UUID               `json:"id"`
	JobID       uuid.UUID               `json:"job_id"`
	ApplicantID uuid.UUID               `json:"applicant_id"`
	EmployerID  uuid.UUID               `json:"employer_id"`
	Status      types.ApplicationStatus `json:"status"`
	Message     string                  `json:"message,omitempty"`
	AppliedDate time.Time               `json:"applied_date"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// Rating is a score one party of a completed job gives the other
type Rating struct {
	ID      uuid.UUID `json:"id"`
	JobID   uuid.UUID `json:"job_id"`
	RaterID uuid.UUID `json:"rater_id"`
	RatedID uuid.UUID `json:"rated_id"`
	Rating  float64   `json:"rating"`
	Comment string    `json:"comment,omitempty"`
	Date    time.Time `json:"date"`
}

// SavedJob is a user's bookmark of a job
type SavedJob struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	JobID     uuid.UUID `json:"job_id"`
	SavedDate time.Time `json:"saved_date"`
}
