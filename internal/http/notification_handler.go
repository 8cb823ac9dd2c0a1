package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/room-booking/internal/application"
)

type notificationService interface {
	ListUnread(ctx context.Context, principal application.Principal) ([]application.Notification, error)
	List(ctx context.Context, principal application.Principal) ([]application.Notification, error)
	MarkAsRead(ctx context.Context, principal application.Principal, id string) error
}

type NotificationHandler struct {
	service   notificationService
	responder responder
}

func NewNotificationHandler(service notificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, responder: newResponder(defaultLogger(logger))}
}

// List returns unread notifications, or every notification with ?all=true.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	list := h.service.ListUnread
	if all {
		list = h.service.List
	}

	notifications, err := list(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]notificationDTO, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, notificationDTO{
			ID:        n.ID,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listNotificationsResponse{Notifications: out})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.MarkAsRead(r.Context(), principal, mux.Vars(r)["id"]); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type notificationDTO struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

type listNotificationsResponse struct {
	Notifications []notificationDTO `json:"notifications"`
}
