// Package notify is the notification sink: an append-only per-user log with
// a read flag, mirrored onto the realtime hub for live streams.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/realtime"
	"github.com/sirupsen/logrus"
)

// PageSize caps how many notifications ListFor returns.
const PageSize = 100

// Sink appends notifications and answers queries about them.
type Sink struct {
	store db.Store
	hub   *realtime.Hub
	log   logrus.FieldLogger
}

// NewSink creates a Sink. hub may be nil, in which case nothing is streamed.
func NewSink(store db.Store, hub *realtime.Hub, log logrus.FieldLogger) *Sink {
	return &Sink{store: store, hub: hub, log: log}
}

// Emit appends a notification for userID and publishes it on the user's topic.
func (s *Sink) Emit(ctx context.Context, userID uuid.UUID, typ, text string) (*db.Notification, error) {
	n := &db.Notification{UserID: userID, Type: typ, Message: text}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to emit notification: %w", err)
	}
	if s.hub != nil {
		delivered := s.hub.Publish(realtime.UserTopic(userID), *n)
		s.log.WithFields(logrus.Fields{
			"user_id":   userID,
			"type":      typ,
			"delivered": delivered,
		}).Debug("notification emitted")
	}
	return n, nil
}

// ListFor returns the user's most recent notifications, newest first.
func (s *Sink) ListFor(ctx context.Context, userID uuid.UUID) ([]db.Notification, error) {
	list, err := s.store.ListNotifications(ctx, userID, PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// MarkRead flags one notification as read. Ids that do not exist or belong
// to someone else are ignored without error, so the call never reveals
// whether a notification exists.
func (s *Sink) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.store.MarkNotificationRead(ctx, id, userID); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flags every notification of the user as read and returns how
// many changed.
func (s *Sink) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

// UnreadCount returns how many of the user's notifications are unread.
func (s *Sink) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}
