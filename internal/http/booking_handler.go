package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (booking.Booking, error)
	UpdateBooking(ctx context.Context, params application.UpdateBookingParams) (booking.Booking, error)
	DeleteBooking(ctx context.Context, principal application.Principal, bookingID string) (booking.Booking, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]application.BookingDetails, error)
	ListAccountBookings(ctx context.Context, principal application.Principal, accountID string) ([]application.BookingDetails, error)
	Availability(ctx context.Context, params application.AvailabilityParams) ([]booking.RoomAvailability, error)
}

// BookingHandler serves booking and availability endpoints.
type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	list, err := h.service.ListBookings(r.Context(), application.ListBookingsParams{
		Principal: principal,
		Search:    query.Get("search"),
		Sort:      application.BookingSort(query.Get("sort")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDetailDTOs(list)})
}

func (h *BookingHandler) ListForAccount(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	accountID := mux.Vars(r)["id"]

	list, err := h.service.ListAccountBookings(r.Context(), principal, accountID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDetailDTOs(list)})
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}
	input, vErr := req.toInput()
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	created, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{Principal: principal, Input: input})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(created)})
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	bookingID := mux.Vars(r)["id"]

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "booking_id", bookingID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode booking update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}
	input, vErr := req.toInput()
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	updated, err := h.service.UpdateBooking(r.Context(), application.UpdateBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(updated)})
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	if _, err := h.service.DeleteBooking(r.Context(), principal, mux.Vars(r)["id"]); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Availability answers GET /availability?date=&slot=&category=&smart_board=.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	params, vErr := availabilityParams(r.URL.Query())
	if vErr != nil {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	report, err := h.service.Availability(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]availabilityDTO, 0, len(report))
	for _, ra := range report {
		out = append(out, availabilityDTO{
			Room:        toRoomDTO(ra.Room),
			Count:       ra.Count,
			MaxBookings: ra.MaxBookings,
			Status:      ra.Status.String(),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		Date:      params.Date.Format(time.DateOnly),
		Slot:      int(params.Slot),
		SlotLabel: params.Slot.String(),
		Rooms:     out,
	})
}

func availabilityParams(query url.Values) (application.AvailabilityParams, *application.ValidationError) {
	var params application.AvailabilityParams
	fields := map[string]string{}

	if date, err := time.Parse(time.DateOnly, query.Get("date")); err != nil {
		fields["date"] = "date must be formatted as YYYY-MM-DD"
	} else {
		params.Date = date
	}
	if slot, err := booking.ParseTimeSlot(query.Get("slot")); err != nil {
		fields["slot"] = "slot must be between 0 and 3"
	} else {
		params.Slot = slot
	}
	if raw := query.Get("category"); raw != "" {
		if category, err := booking.ParseCategory(raw); err != nil {
			fields["category"] = "category must be classroom or meeting room"
		} else {
			params.Category = &category
		}
	}
	if raw := query.Get("smart_board"); raw != "" {
		if smart, err := strconv.ParseBool(raw); err != nil {
			fields["smart_board"] = "smart_board must be true or false"
		} else {
			params.HasSmartBoard = &smart
		}
	}

	if len(fields) > 0 {
		return params, &application.ValidationError{FieldErrors: fields}
	}
	return params, nil
}

type bookingRequest struct {
	AccountID   string `json:"account_id"`
	RoomID      string `json:"room_id"`
	Date        string `json:"date"`
	Slot        *int   `json:"slot"`
	Description string `json:"description"`
}

func (r bookingRequest) toInput() (application.BookingInput, *application.ValidationError) {
	input := application.BookingInput{
		AccountID:   strings.TrimSpace(r.AccountID),
		RoomID:      strings.TrimSpace(r.RoomID),
		Description: r.Description,
	}
	fields := map[string]string{}
	if date, err := time.Parse(time.DateOnly, strings.TrimSpace(r.Date)); err != nil {
		fields["date"] = "date must be formatted as YYYY-MM-DD"
	} else {
		input.Date = date
	}
	if r.Slot == nil {
		fields["slot"] = "slot is required"
	} else {
		input.Slot = booking.TimeSlot(*r.Slot)
	}
	if len(fields) > 0 {
		return input, &application.ValidationError{FieldErrors: fields}
	}
	return input, nil
}

type bookingDTO struct {
	ID          string `json:"id"`
	RoomID      string `json:"room_id"`
	RoomName    string `json:"room_name,omitempty"`
	AccountID   string `json:"account_id"`
	Username    string `json:"username,omitempty"`
	Date        string `json:"date"`
	Slot        int    `json:"slot"`
	SlotLabel   string `json:"slot_label"`
	Description string `json:"description,omitempty"`
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type availabilityDTO struct {
	Room        roomDTO `json:"room"`
	Count       int     `json:"count"`
	MaxBookings int     `json:"max_bookings"`
	Status      string  `json:"status"`
}

type availabilityResponse struct {
	Date      string            `json:"date"`
	Slot      int               `json:"slot"`
	SlotLabel string            `json:"slot_label"`
	Rooms     []availabilityDTO `json:"rooms"`
}

func toBookingDTO(b booking.Booking) bookingDTO {
	return bookingDTO{
		ID:          b.ID,
		RoomID:      b.RoomID,
		AccountID:   b.AccountID,
		Date:        b.Date.Format(time.DateOnly),
		Slot:        int(b.Slot),
		SlotLabel:   b.Slot.String(),
		Description: b.Description,
	}
}

func toBookingDetailDTOs(list []application.BookingDetails) []bookingDTO {
	out := make([]bookingDTO, 0, len(list))
	for _, d := range list {
		dto := toBookingDTO(d.Booking)
		dto.Username = d.Username
		dto.RoomName = d.RoomName
		out = append(out, dto)
	}
	return out
}
