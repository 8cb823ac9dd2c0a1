package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// NotificationService stores and serves per-account messages.
type NotificationService struct {
	notifications persistence.NotificationRepository
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewNotificationService constructs a notification service.
func NewNotificationService(notifications persistence.NotificationRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *NotificationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &NotificationService{notifications: notifications, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *NotificationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "NotificationService", operation, attrs...)
}

// Create stores an unread message for accountID.
func (s *NotificationService) Create(ctx context.Context, accountID, message string) (n Notification, err error) {
	logger := s.loggerWith(ctx, "Create", "account_id", accountID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create notification", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("notification_id", n.ID).DebugContext(ctx, "notification created")
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(accountID) == "" {
		vErr.add("account_id", "account is required")
	}
	if strings.TrimSpace(message) == "" {
		vErr.add("message", "message is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	record := persistence.Notification{
		ID:        s.idGenerator(),
		AccountID: accountID,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err = s.notifications.CreateNotification(ctx, record); err != nil {
		err = fmt.Errorf("create notification: %w", err)
		return
	}
	n = notificationFromRecord(record)
	return
}

// ListUnread returns the principal's unread notifications, newest first.
func (s *NotificationService) ListUnread(ctx context.Context, principal Principal) ([]Notification, error) {
	return s.list(ctx, principal, true)
}

// List returns all of the principal's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, principal Principal) ([]Notification, error) {
	return s.list(ctx, principal, false)
}

func (s *NotificationService) list(ctx context.Context, principal Principal, unreadOnly bool) ([]Notification, error) {
	if !principal.Authenticated() {
		return nil, ErrUnauthorized
	}
	records, err := s.notifications.ListNotifications(ctx, principal.AccountID, unreadOnly)
	if err != nil {
		s.loggerWith(ctx, "List", "account_id", principal.AccountID).
			ErrorContext(ctx, "failed to list notifications", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	out := make([]Notification, 0, len(records))
	for _, r := range records {
		out = append(out, notificationFromRecord(r))
	}
	return out, nil
}

// MarkAsRead flags one of the principal's notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, principal Principal, id string) (err error) {
	logger := s.loggerWith(ctx, "MarkAsRead", "account_id", principal.AccountID, "notification_id", id)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "failed to mark notification read", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	var record persistence.Notification
	record, err = s.notifications.GetNotification(ctx, id)
	if errors.Is(err, persistence.ErrNotFound) {
		err = ErrNotFound
		return
	}
	if err != nil {
		return
	}
	if record.AccountID != principal.AccountID && !principal.IsAdmin() {
		// Other accounts' notifications are reported as missing.
		err = ErrNotFound
		return
	}

	if err = s.notifications.MarkNotificationRead(ctx, id); errors.Is(err, persistence.ErrNotFound) {
		err = ErrNotFound
	}
	return
}

func notificationFromRecord(r persistence.Notification) Notification {
	return Notification{
		ID:        r.ID,
		AccountID: r.AccountID,
		Message:   r.Message,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
}
