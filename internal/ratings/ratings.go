// Package ratings records the scores the parties of a completed job give
// each other.
package ratings

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/apperr"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/events"
	"github.com/jonathan/jobni/internal/observability"
	"github.com/jonathan/jobni/internal/types"
	"github.com/sirupsen/logrus"
)

// Aggregator refreshes a user's average rating.
type Aggregator interface {
	RecomputeRating(ctx context.Context, ratedID uuid.UUID) (*db.User, error)
}

// Service creates and lists ratings.
type Service struct {
	store      db.Store
	aggregator Aggregator
	publisher  events.Publisher
	log        logrus.FieldLogger
}

// NewService creates a ratings Service. publisher may be nil.
func NewService(store db.Store, aggregator Aggregator, publisher events.Publisher, log logrus.FieldLogger) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Service{store: store, aggregator: aggregator, publisher: publisher, log: log}
}

// Create records the caller's rating of another party to a job. The two
// must be linked by a completed application on that job, in either
// direction, and each rater may rate a party once per job.
func (s *Service) Create(ctx context.Context, caller types.Caller, req *types.RatingRequest) (*db.Rating, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid("", err.Error())
	}
	if req.RatedID == caller.ID {
		return nil, apperr.Invalid("rated_id", "cannot rate yourself")
	}

	app, err := s.store.FindApplicationBetween(ctx, req.JobID, caller.ID, req.RatedID)
	if err != nil {
		return nil, fmt.Errorf("failed to find application: %w", err)
	}
	if app == nil {
		return nil, &apperr.NotFoundError{Entity: "application"}
	}
	if app.Status != types.StatusCompleted {
		return nil, apperr.Invalid("status", "can only rate completed jobs")
	}

	r := &db.Rating{
		JobID:   req.JobID,
		RaterID: caller.ID,
		RatedID: req.RatedID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := s.store.CreateRating(ctx, r); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflict("rating", "already rated this user for this job")
		}
		return nil, fmt.Errorf("failed to create rating: %w", err)
	}

	log := s.log.WithFields(logrus.Fields{"job_id": r.JobID, "user_id": r.RatedID})
	if _, err := s.aggregator.RecomputeRating(ctx, r.RatedID); err != nil {
		log.WithError(err).Warn("failed to recompute rating")
	}
	err = s.publisher.Publish(ctx, events.TopicRatingCreated, r)
	observability.RecordEvent(events.TopicRatingCreated, err == nil)
	if err != nil {
		log.WithError(err).Warn("failed to publish event")
	}
	return r, nil
}

// ListForUser returns the ratings a user has received, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]db.Rating, error) {
	list, err := s.store.ListRatingsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return list, nil
}
