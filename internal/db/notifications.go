package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateNotification appends a notification to a user's log
func (db *DB) CreateNotification(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO notifications (id, user_id, type, message, read)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING seq, created_at`,
		n.ID, n.UserID, n.Type, n.Message, n.Read,
	).Scan(&n.Seq, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotifications retrieves up to limit notifications for a user, newest first
func (db *DB) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, type, message, read, created_at, seq
		 FROM notifications WHERE user_id = $1
		 ORDER BY seq DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Read, &n.CreatedAt, &n.Seq); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead flags one of the user's notifications as read. It
// reports whether a notification owned by the user matched.
func (db *DB) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// MarkAllNotificationsRead flags every unread notification of the user as
// read and returns how many changed.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected(), nil
}

// CountUnreadNotifications counts a user's unread notifications
func (db *DB) CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}
