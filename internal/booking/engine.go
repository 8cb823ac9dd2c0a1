package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RoomStore is the read side of the room collaborator the engine consults.
type RoomStore interface {
	FindRoom(ctx context.Context, id string) (Room, bool, error)
	ListRooms(ctx context.Context) ([]Room, error)
}

// BookingStore persists bookings on behalf of the engine.
type BookingStore interface {
	AddBooking(ctx context.Context, b Booking) error
	UpdateBooking(ctx context.Context, b Booking) error
	DeleteBooking(ctx context.Context, id string) error
	FindBooking(ctx context.Context, id string) (Booking, bool, error)
	ListBookings(ctx context.Context) ([]Booking, error)
}

// Transactor runs fn so that the snapshot it reads and the writes it makes
// are not interleaved with another mutation on the same store.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type passthrough struct{}

func (passthrough) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Engine evaluates the booking rules against fresh store snapshots.
type Engine struct {
	rooms    RoomStore
	bookings BookingStore
	tx       Transactor
	now      func() time.Time
	newID    func() string
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the time source used to derive "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator sets the generator used for bookings admitted without an id.
// The default is uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithTransactor overrides transaction detection on the booking store.
func WithTransactor(tx Transactor) Option {
	return func(e *Engine) {
		if tx != nil {
			e.tx = tx
		}
	}
}

// NewEngine builds an engine. When the booking store implements Transactor it
// is used to serialise mutations.
func NewEngine(rooms RoomStore, bookings BookingStore, opts ...Option) *Engine {
	e := &Engine{
		rooms:    rooms,
		bookings: bookings,
		tx:       passthrough{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	if tx, ok := bookings.(Transactor); ok {
		e.tx = tx
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) today() time.Time {
	return DateOf(e.now())
}

// Add validates a new booking and stores it. Checks run in a fixed order and
// the first failure is returned.
func (e *Engine) Add(ctx context.Context, candidate Booking) (Booking, error) {
	candidate.Date = DateOf(candidate.Date)
	if !candidate.Slot.Valid() {
		return Booking{}, fmt.Errorf("booking: invalid time slot %d", candidate.Slot)
	}

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if candidate.Date.Before(e.today()) {
			return pastDateError()
		}

		room, ok, err := e.rooms.FindRoom(ctx, candidate.RoomID)
		if err != nil {
			return err
		}
		if !ok {
			return roomNotFoundError(candidate.RoomID)
		}
		capacity := Capacity(room.Category)

		snapshot, err := e.bookings.ListBookings(ctx)
		if err != nil {
			return err
		}
		if HasAccountSlot(snapshot, candidate.AccountID, candidate.Date, candidate.Slot) {
			return duplicateUserSlotError()
		}
		if CountForAccount(snapshot, candidate.AccountID) >= MaxBookingsPerAccount {
			return bookingLimitError()
		}
		if CountInSlot(snapshot, candidate.RoomID, candidate.Date, candidate.Slot, "") >= capacity {
			return roomSlotFullError(room.Category)
		}

		if candidate.ID == "" {
			candidate.ID = e.newID()
		}
		return e.bookings.AddBooking(ctx, candidate)
	})
	if err != nil {
		return Booking{}, err
	}
	return candidate, nil
}

// Update re-validates a modified booking on behalf of an actor with the given
// role. Only notice, room existence and slot capacity are checked; the
// per-account duplicate and limit rules of Add are not re-applied.
func (e *Engine) Update(ctx context.Context, updated Booking, role Role) (Booking, error) {
	updated.Date = DateOf(updated.Date)
	if !updated.Slot.Valid() {
		return Booking{}, fmt.Errorf("booking: invalid time slot %d", updated.Slot)
	}

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := checkNotice(role, updated.Date, e.today()); err != nil {
			return err
		}

		room, ok, err := e.rooms.FindRoom(ctx, updated.RoomID)
		if err != nil {
			return err
		}
		if !ok {
			return roomNotFoundError(updated.RoomID)
		}

		snapshot, err := e.bookings.ListBookings(ctx)
		if err != nil {
			return err
		}
		if CountInSlot(snapshot, updated.RoomID, updated.Date, updated.Slot, updated.ID) >= Capacity(room.Category) {
			return roomSlotFullError(room.Category)
		}
		return e.bookings.UpdateBooking(ctx, updated)
	})
	if err != nil {
		return Booking{}, err
	}
	return updated, nil
}

// Delete removes a booking, applying the notice rule for restricted roles.
// The removed booking is returned so callers can notify its owner.
func (e *Engine) Delete(ctx context.Context, id string, role Role) (Booking, error) {
	var removed Booking
	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, ok, err := e.bookings.FindBooking(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return bookingNotFoundError(id)
		}
		if err := checkNotice(role, existing.Date, e.today()); err != nil {
			return err
		}
		if err := e.bookings.DeleteBooking(ctx, id); err != nil {
			return err
		}
		removed = existing
		return nil
	})
	if err != nil {
		return Booking{}, err
	}
	return removed, nil
}

// FindBooking returns the booking with the given id or a KindBookingNotFound error.
func (e *Engine) FindBooking(ctx context.Context, id string) (Booking, error) {
	b, ok, err := e.bookings.FindBooking(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	if !ok {
		return Booking{}, bookingNotFoundError(id)
	}
	return b, nil
}

// GetRoomAvailability reports occupancy for every room matching filter on the
// given date and slot. Nothing is cached between calls.
func (e *Engine) GetRoomAvailability(ctx context.Context, date time.Time, slot TimeSlot, filter Filter) ([]RoomAvailability, error) {
	if !slot.Valid() {
		return nil, fmt.Errorf("booking: invalid time slot %d", slot)
	}
	rooms, err := e.rooms.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := e.bookings.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	return Availability(rooms, bookings, date, slot, filter), nil
}

// DeleteExpiredBookings removes every booking dated before today and returns
// how many were deleted.
func (e *Engine) DeleteExpiredBookings(ctx context.Context) (int, error) {
	deleted := 0
	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		snapshot, err := e.bookings.ListBookings(ctx)
		if err != nil {
			return err
		}
		for _, b := range Expired(snapshot, e.today()) {
			if err := e.bookings.DeleteBooking(ctx, b.ID); err != nil {
				return fmt.Errorf("delete expired booking %s: %w", b.ID, err)
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ListBookings sweeps expired bookings and then returns the remaining ones
// ordered by date and slot.
func (e *Engine) ListBookings(ctx context.Context) ([]Booking, error) {
	if _, err := e.DeleteExpiredBookings(ctx); err != nil {
		return nil, err
	}
	bookings, err := e.bookings.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	SortByDate(bookings)
	return bookings, nil
}
