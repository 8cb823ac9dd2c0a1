package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Bookings      *BookingHandler
	Rooms         *RoomHandler
	Accounts      *AccountHandler
	Notifications *NotificationHandler
	// Middleware wraps every API route, outermost first. /healthz is not wrapped.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/").Subrouter()
	for _, mw := range cfg.Middleware {
		if mw != nil {
			api.Use(mux.MiddlewareFunc(mw))
		}
	}

	if cfg.Bookings != nil {
		api.HandleFunc("/bookings", cfg.Bookings.List).Methods(http.MethodGet)
		api.HandleFunc("/bookings", cfg.Bookings.Create).Methods(http.MethodPost)
		api.HandleFunc("/bookings/{id}", cfg.Bookings.Update).Methods(http.MethodPut)
		api.HandleFunc("/bookings/{id}", cfg.Bookings.Delete).Methods(http.MethodDelete)
		api.HandleFunc("/accounts/{id}/bookings", cfg.Bookings.ListForAccount).Methods(http.MethodGet)
		api.HandleFunc("/availability", cfg.Bookings.Availability).Methods(http.MethodGet)
	}

	if cfg.Rooms != nil {
		api.HandleFunc("/rooms", cfg.Rooms.List).Methods(http.MethodGet)
		api.HandleFunc("/rooms", cfg.Rooms.Create).Methods(http.MethodPost)
		api.HandleFunc("/rooms/{id}", cfg.Rooms.Get).Methods(http.MethodGet)
		api.HandleFunc("/rooms/{id}", cfg.Rooms.Update).Methods(http.MethodPut)
		api.HandleFunc("/rooms/{id}", cfg.Rooms.Delete).Methods(http.MethodDelete)
	}

	if cfg.Accounts != nil {
		api.HandleFunc("/accounts", cfg.Accounts.List).Methods(http.MethodGet)
		api.HandleFunc("/accounts", cfg.Accounts.Create).Methods(http.MethodPost)
		api.HandleFunc("/accounts/{id}", cfg.Accounts.Get).Methods(http.MethodGet)
		api.HandleFunc("/accounts/{id}", cfg.Accounts.Update).Methods(http.MethodPut)
		api.HandleFunc("/accounts/{id}", cfg.Accounts.Delete).Methods(http.MethodDelete)
	}

	if cfg.Notifications != nil {
		api.HandleFunc("/notifications", cfg.Notifications.List).Methods(http.MethodGet)
		api.HandleFunc("/notifications/{id}/read", cfg.Notifications.MarkRead).Methods(http.MethodPost)
	}

	return router
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	newResponder(nil).writeError(r.Context(), w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}
