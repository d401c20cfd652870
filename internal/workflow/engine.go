// Package workflow runs the life cycle of job applications: submission,
// role-gated status transitions, and the side effects that follow them
// (notifications, conversation provisioning, the welcome message, domain
// events).
package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/apperr"
	"github.com/jonathan/jobni/internal/chat"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/events"
	"github.com/jonathan/jobni/internal/notify"
	"github.com/jonathan/jobni/internal/observability"
	"github.com/jonathan/jobni/internal/types"
	"github.com/sirupsen/logrus"
)

// Side-effect step names, used in logs and metrics.
const (
	stepNotify       = "notify"
	stepConversation = "conversation"
	stepWelcome      = "welcome_message"
	stepEvent        = "event"
)

// StatusChange is the payload of application.status_changed events.
type StatusChange struct {
	ApplicationID uuid.UUID               `json:"application_id"`
	JobID         uuid.UUID               `json:"job_id"`
	ApplicantID   uuid.UUID               `json:"applicant_id"`
	EmployerID    uuid.UUID               `json:"employer_id"`
	From          types.ApplicationStatus `json:"from"`
	To            types.ApplicationStatus `json:"to"`
}

// Engine applies workflow operations against the store.
type Engine struct {
	store     db.Store
	notes     *notify.Sink
	chat      *chat.Service
	messages  *notify.Messages
	publisher events.Publisher
	log       logrus.FieldLogger
}

// NewEngine wires an Engine. publisher may be nil.
func NewEngine(store db.Store, notes *notify.Sink, chatSvc *chat.Service, messages *notify.Messages, publisher events.Publisher, log logrus.FieldLogger) *Engine {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Engine{
		store:     store,
		notes:     notes,
		chat:      chatSvc,
		messages:  messages,
		publisher: publisher,
		log:       log,
	}
}

// Submit creates a pending application for the caller on a job and notifies
// the job's employer. Only job seekers may apply, once per job.
func (e *Engine) Submit(ctx context.Context, caller types.Caller, req *types.ApplicationRequest) (*db.Application, error) {
	if caller.Role != types.RoleJobSeeker {
		return nil, apperr.Forbidden("only job seekers can apply")
	}
	job, err := e.loadJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}

	app := &db.Application{
		JobID:       job.ID,
		ApplicantID: caller.ID,
		EmployerID:  job.EmployerID,
		Status:      types.StatusPending,
		Message:     req.Message,
	}
	// The (job_id, applicant_id) unique constraint is the authority on
	// duplicates; concurrent submissions race to it.
	if err := e.store.CreateApplication(ctx, app); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflict("application", "already applied to this job")
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	log := e.log.WithFields(logrus.Fields{
		"application_id": app.ID,
		"job_id":         job.ID,
		"user_id":        caller.ID,
	})
	log.Info("application submitted")

	if _, err := e.notes.Emit(ctx, job.EmployerID, notify.TypeNewApplication, e.messages.NewApplication(caller.Name, job.Title)); err != nil {
		e.sideEffectFailed(log, stepNotify, err)
	}
	e.publish(ctx, log, events.TopicApplicationSubmitted, app)
	return app, nil
}

// List returns the applications visible to the caller: their own for job
// seekers, those received for employers, every application for admins.
func (e *Engine) List(ctx context.Context, caller types.Caller) ([]db.Application, error) {
	var q db.ApplicationQuery
	switch caller.Role {
	case types.RoleJobSeeker:
		q.ApplicantID = caller.ID
	case types.RoleEmployer:
		q.EmployerID = caller.ID
	case types.RoleAdmin:
	default:
		return nil, apperr.Forbidden("not authorized")
	}
	apps, err := e.store.ListApplications(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// ListForJob returns every application on a job. Only the job's employer and
// admins may see them.
func (e *Engine) ListForJob(ctx context.Context, caller types.Caller, jobID uuid.UUID) ([]db.Application, error) {
	job, err := e.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.EmployerID != caller.ID && !caller.IsAdmin() {
		return nil, apperr.Forbidden("not authorized")
	}
	apps, err := e.store.ListApplications(ctx, db.ApplicationQuery{JobID: jobID})
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// UpdateStatus moves an application to status and runs the side effects:
// the applicant is notified, and on acceptance the conversation between the
// parties is provisioned with a welcome message. The status write is a
// compare-and-set, so concurrent updates serialize in the store. Side
// effects are best effort: failures are logged and counted but the updated
// application is still returned.
func (e *Engine) UpdateStatus(ctx context.Context, caller types.Caller, appID uuid.UUID, status types.ApplicationStatus) (*db.Application, error) {
	if !status.Valid() {
		return nil, apperr.Invalid("status", fmt.Sprintf("unknown status %q", status))
	}

	current, err := e.store.GetApplication(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if current == nil {
		return nil, apperr.NotFound("application", appID)
	}
	if current.EmployerID != caller.ID && !caller.IsAdmin() {
		return nil, apperr.Forbidden("not authorized")
	}
	if !CanTransition(current.Status, status) {
		return nil, invalidTransition(current.Status, status)
	}

	updated, err := e.store.TransitionApplication(ctx, appID, Sources(status), status)
	if err != nil {
		return nil, fmt.Errorf("failed to update application status: %w", err)
	}
	if updated == nil {
		// Lost a race: the application moved or disappeared between the
		// read and the write.
		now, err := e.store.GetApplication(ctx, appID)
		if err != nil {
			return nil, fmt.Errorf("failed to get application: %w", err)
		}
		if now == nil {
			return nil, apperr.NotFound("application", appID)
		}
		return nil, invalidTransition(now.Status, status)
	}

	from := current.Status
	observability.RecordTransition(string(from), string(status))
	log := e.log.WithFields(logrus.Fields{
		"application_id": appID,
		"job_id":         updated.JobID,
		"from":           from,
		"to":             status,
	})
	log.Info("application status updated")

	e.afterTransition(ctx, log, updated, from)
	return updated, nil
}

func (e *Engine) afterTransition(ctx context.Context, log logrus.FieldLogger, app *db.Application, from types.ApplicationStatus) {
	title := app.JobID.String()
	job, err := e.store.GetJob(ctx, app.JobID)
	switch {
	case err != nil:
		log.WithError(err).Warn("failed to load job for side effects")
	case job != nil:
		title = job.Title
	}

	if _, err := e.notes.Emit(ctx, app.ApplicantID, notify.TypeApplicationUpdate, e.messages.StatusUpdate(title, app.Status)); err != nil {
		e.sideEffectFailed(log, stepNotify, err)
	}

	if app.Status == types.StatusAccepted {
		e.provision(ctx, log, app, title)
	}

	e.publish(ctx, log, events.TopicApplicationStatusChanged, StatusChange{
		ApplicationID: app.ID,
		JobID:         app.JobID,
		ApplicantID:   app.ApplicantID,
		EmployerID:    app.EmployerID,
		From:          from,
		To:            app.Status,
	})
}

// provision opens the conversation for an accepted application and makes
// sure it holds the welcome message. Every acceptance runs it, so a welcome
// lost to a failed write is restored on the next one; the store writes at
// most one system message per conversation.
func (e *Engine) provision(ctx context.Context, log logrus.FieldLogger, app *db.Application, jobTitle string) {
	conv, _, err := e.chat.GetOrCreate(ctx, app.JobID, app.ApplicantID, app.EmployerID)
	if err != nil {
		e.sideEffectFailed(log, stepConversation, err)
		return
	}
	if _, _, err := e.chat.EnsureSystemMessage(ctx, conv.ID, e.messages.Welcome(jobTitle)); err != nil {
		e.sideEffectFailed(log.WithField("conversation_id", conv.ID), stepWelcome, err)
	}
}

func (e *Engine) publish(ctx context.Context, log logrus.FieldLogger, topic string, payload any) {
	err := e.publisher.Publish(ctx, topic, payload)
	observability.RecordEvent(topic, err == nil)
	if err != nil {
		e.sideEffectFailed(log.WithField("topic", topic), stepEvent, err)
	}
}

func (e *Engine) sideEffectFailed(log logrus.FieldLogger, step string, err error) {
	observability.RecordSideEffectFailure(step)
	log.WithError(err).WithField("step", step).Warn("workflow side effect failed")
}

func (e *Engine) loadJob(ctx context.Context, id uuid.UUID) (*db.Job, error) {
	job, err := e.store.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return nil, apperr.NotFound("job", id)
	}
	return job, nil
}

func invalidTransition(from, to types.ApplicationStatus) error {
	return apperr.Invalid("status", fmt.Sprintf("cannot change status from %s to %s", from, to))
}
