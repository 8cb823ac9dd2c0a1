package sqlite

import (
	"context"
	"fmt"

	"github.com/example/room-booking/internal/persistence"
)

// NotificationRepository implements persistence.NotificationRepository using SQLite.
type NotificationRepository struct {
	pool *ConnectionPool
}

// NewNotificationRepository creates a new SQLite notification repository.
func NewNotificationRepository(pool *ConnectionPool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

const notificationColumns = `id, account_id, message, is_read, created_at`

// CreateNotification inserts a notification.
func (r *NotificationRepository) CreateNotification(ctx context.Context, n persistence.Notification) error {
	if n.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.conn(ctx).ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.AccountID, n.Message, n.IsRead, formatTime(n.CreatedAt),
	)
	return mapError(err)
}

// GetNotification retrieves a notification by ID.
func (r *NotificationRepository) GetNotification(ctx context.Context, id string) (persistence.Notification, error) {
	row := r.pool.conn(ctx).QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	return scanNotification(row)
}

// ListNotifications returns an account's notifications, newest first.
func (r *NotificationRepository) ListNotifications(ctx context.Context, accountID string, unreadOnly bool) ([]persistence.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE account_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := r.pool.conn(ctx).QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var notifications []persistence.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return notifications, nil
}

// MarkNotificationRead flags a notification as read.
func (r *NotificationRepository) MarkNotificationRead(ctx context.Context, id string) error {
	result, err := r.pool.conn(ctx).ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

func scanNotification(s scanner) (persistence.Notification, error) {
	var (
		n         persistence.Notification
		createdAt string
	)
	if err := s.Scan(&n.ID, &n.AccountID, &n.Message, &n.IsRead, &createdAt); err != nil {
		return persistence.Notification{}, mapError(err)
	}
	var err error
	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Notification{}, fmt.Errorf("parse notifications.created_at: %w", err)
	}
	return n, nil
}
