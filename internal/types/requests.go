package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// JobRequest is the body of job create and update requests.
// Status is only honoured on update.
type JobRequest struct {
	Title         string    `json:"title" validate:"required"`
	Description   string    `json:"description" validate:"required"`
	CompanyName   string    `json:"company_name" validate:"required"`
	Location      string    `json:"location" validate:"required"`
	DurationType  string    `json:"duration_type" validate:"required,oneof=hour hours_5 hours_8 days_4 week month"`
	DurationValue string    `json:"duration_value" validate:"required"`
	Salary        float64   `json:"salary" validate:"gte=0"`
	Category      string    `json:"category" validate:"required"`
	Requirements  []string  `json:"requirements,omitempty"`
	Deadline      string    `json:"deadline,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status        JobStatus `json:"status,omitempty" validate:"omitempty,oneof=active closed completed"`
}

// JobFilter narrows job listings. Empty fields (and "all" for category and
// duration type) do not filter.
type JobFilter struct {
	Category     string
	DurationType string
	Location     string
	Search       string
	Status       string
}

// ApplicationRequest is the body of an application submission.
type ApplicationRequest struct {
	JobID   uuid.UUID `json:"job_id" validate:"required"`
	Message string    `json:"message,omitempty"`
}

// UpdateApplicationStatusRequest is the body of a status change.
type UpdateApplicationStatusRequest struct {
	Status ApplicationStatus `json:"status" validate:"required"`
}

// RatingRequest is the body of a rating submission.
type RatingRequest struct {
	JobID   uuid.UUID `json:"job_id" validate:"required"`
	RatedID uuid.UUID `json:"rated_id" validate:"required"`
	Rating  float64   `json:"rating" validate:"min=1,max=5"`
	Comment string    `json:"comment,omitempty"`
}

// MessageRequest is the body of a chat message.
type MessageRequest struct {
	MessageText string `json:"message_text" validate:"required"`
}

// Validate validates the JobRequest using the validator.
func (r *JobRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the ApplicationRequest using the validator.
func (r *ApplicationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpdateApplicationStatusRequest using the validator.
func (r *UpdateApplicationStatusRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the RatingRequest using the validator.
func (r *RatingRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the MessageRequest using the validator.
func (r *MessageRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
