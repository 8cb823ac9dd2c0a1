package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/events"
	"github.com/example/room-booking/internal/persistence"
)

// deletedNoticeDateLayout renders dates as dd-MM-yyyy in deletion notices.
const deletedNoticeDateLayout = "02-01-2006"

// BookingService applies authorization around the booking engine, notifies
// owners of deletions and publishes lifecycle events.
type BookingService struct {
	engine        *booking.Engine
	accounts      persistence.AccountRepository
	rooms         persistence.RoomRepository
	notifications *NotificationService
	publisher     events.Publisher
	now           func() time.Time
	logger        *slog.Logger
}

// NewBookingService constructs a booking service. A nil publisher discards events.
func NewBookingService(engine *booking.Engine, accounts persistence.AccountRepository, rooms persistence.RoomRepository, notifications *NotificationService, publisher events.Publisher, now func() time.Time, logger *slog.Logger) *BookingService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		engine:        engine,
		accounts:      accounts,
		rooms:         rooms,
		notifications: notifications,
		publisher:     publisher,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

// CreateBooking books a room slot for the principal, or for another account
// when the principal is an administrator.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (created booking.Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	input := params.Input
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		accountID = params.Principal.AccountID
	}

	logger := s.loggerWith(ctx, "CreateBooking",
		"principal_id", params.Principal.AccountID,
		"account_id", accountID,
		"room_id", input.RoomID,
		"slot", int(input.Slot),
	)
	defer func() {
		if err == nil {
			logger = logger.With("booking_id", created.ID)
		}
		logOutcome(ctx, logger, err, "booking rejected", "booking created")
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthorized
		return
	}
	if accountID != params.Principal.AccountID && !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	if vErr := validateBookingInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	if accountID != params.Principal.AccountID {
		if _, lookupErr := s.accounts.GetAccount(ctx, accountID); lookupErr != nil {
			if errors.Is(lookupErr, persistence.ErrNotFound) {
				vErr := &ValidationError{}
				vErr.add("account_id", "account does not exist")
				err = vErr
				return
			}
			err = lookupErr
			return
		}
	}

	created, err = s.engine.Add(ctx, booking.Booking{
		RoomID:      strings.TrimSpace(input.RoomID),
		AccountID:   accountID,
		Date:        input.Date,
		Slot:        input.Slot,
		Description: strings.TrimSpace(input.Description),
	})
	if err != nil {
		return
	}
	s.publish(ctx, events.BookingCreated, created, params.Principal.AccountID)
	return
}

// UpdateBooking moves a booking to another room, date or slot. The owner or an
// administrator may update it; the notice rule applies to the principal's role.
func (s *BookingService) UpdateBooking(ctx context.Context, params UpdateBookingParams) (updated booking.Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateBooking",
		"principal_id", params.Principal.AccountID,
		"booking_id", params.BookingID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "booking update rejected", "booking updated")
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthorized
		return
	}
	if vErr := validateBookingInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	var existing booking.Booking
	existing, err = s.engine.FindBooking(ctx, params.BookingID)
	if err != nil {
		return
	}
	if existing.AccountID != params.Principal.AccountID && !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	candidate := existing
	candidate.RoomID = strings.TrimSpace(params.Input.RoomID)
	candidate.Date = params.Input.Date
	candidate.Slot = params.Input.Slot
	candidate.Description = strings.TrimSpace(params.Input.Description)

	updated, err = s.engine.Update(ctx, candidate, params.Principal.Role)
	if err != nil {
		return
	}
	s.publish(ctx, events.BookingUpdated, updated, params.Principal.AccountID)
	return
}

// DeleteBooking removes a booking and leaves a notification for its owner.
func (s *BookingService) DeleteBooking(ctx context.Context, principal Principal, bookingID string) (removed booking.Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "DeleteBooking",
		"principal_id", principal.AccountID,
		"booking_id", bookingID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "booking deletion rejected", "booking deleted")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	var existing booking.Booking
	existing, err = s.engine.FindBooking(ctx, bookingID)
	if err != nil {
		return
	}
	if existing.AccountID != principal.AccountID && !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	removed, err = s.engine.Delete(ctx, bookingID, principal.Role)
	if err != nil {
		return
	}

	if s.notifications != nil {
		message := fmt.Sprintf("Your booking at %s has been deleted.", removed.Date.Format(deletedNoticeDateLayout))
		if _, nErr := s.notifications.Create(ctx, removed.AccountID, message); nErr != nil {
			logger.WarnContext(ctx, "failed to notify booking owner", "error", nErr, "account_id", removed.AccountID)
		}
	}
	s.publish(ctx, events.BookingDeleted, removed, principal.AccountID)
	return
}

// ListBookings sweeps expired bookings and returns the remaining ones with
// owner and room names, filtered and ordered as requested.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) (result []BookingDetails, err error) {
	logger := s.loggerWith(ctx, "ListBookings",
		"principal_id", params.Principal.AccountID,
		"search", params.Search,
		"sort", string(params.Sort),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(result)).DebugContext(ctx, "bookings listed")
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthorized
		return
	}
	switch params.Sort {
	case "", SortDateAscending, SortDateDescending:
	default:
		vErr := &ValidationError{}
		vErr.add("sort", "sort must be date or -date")
		err = vErr
		return
	}

	var bookings []booking.Booking
	bookings, err = s.engine.ListBookings(ctx)
	if err != nil {
		return
	}
	result, err = s.withDetails(ctx, bookings)
	if err != nil {
		return
	}

	if search := strings.ToLower(strings.TrimSpace(params.Search)); search != "" {
		filtered := result[:0]
		for _, b := range result {
			if b.Username != "" && strings.Contains(strings.ToLower(b.Username), search) {
				filtered = append(filtered, b)
			}
		}
		result = filtered
	}

	if params.Sort == SortDateDescending {
		sort.SliceStable(result, func(i, j int) bool {
			if !result[i].Date.Equal(result[j].Date) {
				return result[i].Date.After(result[j].Date)
			}
			return result[i].Slot > result[j].Slot
		})
	}
	return
}

// ListAccountBookings returns the current bookings of one account to that
// account or to an administrator.
func (s *BookingService) ListAccountBookings(ctx context.Context, principal Principal, accountID string) ([]BookingDetails, error) {
	if !principal.Authenticated() {
		return nil, ErrUnauthorized
	}
	if principal.AccountID != accountID && !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}

	bookings, err := s.engine.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	var mine []booking.Booking
	for _, b := range bookings {
		if b.AccountID == accountID {
			mine = append(mine, b)
		}
	}
	return s.withDetails(ctx, mine)
}

// Availability reports per-room occupancy for a date and slot.
func (s *BookingService) Availability(ctx context.Context, params AvailabilityParams) ([]booking.RoomAvailability, error) {
	vErr := &ValidationError{}
	if params.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if !params.Slot.Valid() {
		vErr.add("slot", "slot must be between 0 and 3")
	}
	if params.Category != nil && !params.Category.Valid() {
		vErr.add("category", "category must be classroom or meeting room")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return s.engine.GetRoomAvailability(ctx, params.Date, params.Slot, booking.Filter{
		Category:      params.Category,
		HasSmartBoard: params.HasSmartBoard,
	})
}

// SweepExpired deletes bookings dated before today and returns how many were removed.
func (s *BookingService) SweepExpired(ctx context.Context) (int, error) {
	logger := s.loggerWith(ctx, "SweepExpired")
	n, err := s.engine.DeleteExpiredBookings(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to sweep expired bookings", "error", err, "error_kind", ErrorKind(err))
		return 0, err
	}
	logger.InfoContext(ctx, "expired bookings swept", "deleted", n)
	return n, nil
}

func (s *BookingService) withDetails(ctx context.Context, bookings []booking.Booking) ([]BookingDetails, error) {
	accounts, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	usernames := make(map[string]string, len(accounts))
	for _, a := range accounts {
		usernames[a.ID] = a.Username
	}

	rooms, err := s.rooms.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	roomNames := make(map[string]string, len(rooms))
	for _, r := range rooms {
		roomNames[r.ID] = r.Name
	}

	out := make([]BookingDetails, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, BookingDetails{Booking: b, Username: usernames[b.AccountID], RoomName: roomNames[b.RoomID]})
	}
	return out, nil
}

// publish is best effort: the booking change is already committed.
func (s *BookingService) publish(ctx context.Context, eventType events.Type, b booking.Booking, actorID string) {
	event := events.Event{
		Type:       eventType,
		BookingID:  b.ID,
		RoomID:     b.RoomID,
		AccountID:  b.AccountID,
		Date:       b.Date.Format(time.DateOnly),
		Slot:       int(b.Slot),
		SlotLabel:  b.Slot.String(),
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.loggerWith(ctx, "publish", "event_type", string(eventType), "booking_id", b.ID).
			WarnContext(ctx, "failed to publish booking event", "error", err)
	}
}

func validateBookingInput(input BookingInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}
	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	if !input.Slot.Valid() {
		vErr.add("slot", "slot must be between 0 and 3")
	}
	return vErr
}
