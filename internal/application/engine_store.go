package application

import (
	"context"
	"errors"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
)

// EngineStore exposes a persistence.Store through the booking engine's
// RoomStore, BookingStore and Transactor interfaces.
type EngineStore struct {
	store persistence.Store
	now   func() time.Time
}

var (
	_ booking.RoomStore    = (*EngineStore)(nil)
	_ booking.BookingStore = (*EngineStore)(nil)
	_ booking.Transactor   = (*EngineStore)(nil)
)

// NewEngineStore adapts store. now stamps created and updated times.
func NewEngineStore(store persistence.Store, now func() time.Time) *EngineStore {
	if now == nil {
		now = time.Now
	}
	return &EngineStore{store: store, now: now}
}

// NewEngine builds a booking engine over store sharing its clock and id generator.
func NewEngine(store persistence.Store, now func() time.Time, idGenerator func() string) *booking.Engine {
	adapter := NewEngineStore(store, now)
	opts := []booking.Option{booking.WithClock(adapter.now)}
	if idGenerator != nil {
		opts = append(opts, booking.WithIDGenerator(idGenerator))
	}
	return booking.NewEngine(adapter, adapter, opts...)
}

func (s *EngineStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.store.WithinTransaction(ctx, fn)
}

func (s *EngineStore) FindRoom(ctx context.Context, id string) (booking.Room, bool, error) {
	record, err := s.store.GetRoom(ctx, id)
	if errors.Is(err, persistence.ErrNotFound) {
		return booking.Room{}, false, nil
	}
	if err != nil {
		return booking.Room{}, false, err
	}
	return roomFromRecord(record), true, nil
}

func (s *EngineStore) ListRooms(ctx context.Context) ([]booking.Room, error) {
	records, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make([]booking.Room, 0, len(records))
	for _, r := range records {
		rooms = append(rooms, roomFromRecord(r))
	}
	return rooms, nil
}

func (s *EngineStore) AddBooking(ctx context.Context, b booking.Booking) error {
	now := s.now().UTC()
	record := bookingToRecord(b)
	record.CreatedAt, record.UpdatedAt = now, now
	return s.store.CreateBooking(ctx, record)
}

// UpdateBooking keeps the original creation time of the stored booking.
func (s *EngineStore) UpdateBooking(ctx context.Context, b booking.Booking) error {
	existing, err := s.store.GetBooking(ctx, b.ID)
	if err != nil {
		return err
	}
	record := bookingToRecord(b)
	record.CreatedAt = existing.CreatedAt
	record.UpdatedAt = s.now().UTC()
	return s.store.UpdateBooking(ctx, record)
}

func (s *EngineStore) DeleteBooking(ctx context.Context, id string) error {
	return s.store.DeleteBooking(ctx, id)
}

func (s *EngineStore) FindBooking(ctx context.Context, id string) (booking.Booking, bool, error) {
	record, err := s.store.GetBooking(ctx, id)
	if errors.Is(err, persistence.ErrNotFound) {
		return booking.Booking{}, false, nil
	}
	if err != nil {
		return booking.Booking{}, false, err
	}
	return bookingFromRecord(record), true, nil
}

func (s *EngineStore) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	records, err := s.store.ListBookings(ctx, persistence.BookingFilter{})
	if err != nil {
		return nil, err
	}
	return bookingsFromRecords(records), nil
}

func roomFromRecord(r persistence.Room) booking.Room {
	return booking.Room{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		Location:      r.Location,
		Category:      booking.Category(r.Category),
		HasSmartBoard: r.HasSmartBoard,
	}
}

func bookingFromRecord(r persistence.Booking) booking.Booking {
	b := booking.Booking{
		ID:        r.ID,
		RoomID:    r.RoomID,
		AccountID: r.AccountID,
		Date:      booking.DateOf(r.Date),
		Slot:      booking.TimeSlot(r.TimeSlot),
	}
	if r.Description != nil {
		b.Description = *r.Description
	}
	return b
}

func bookingsFromRecords(records []persistence.Booking) []booking.Booking {
	out := make([]booking.Booking, 0, len(records))
	for _, r := range records {
		out = append(out, bookingFromRecord(r))
	}
	return out
}

func bookingToRecord(b booking.Booking) persistence.Booking {
	record := persistence.Booking{
		ID:        b.ID,
		RoomID:    b.RoomID,
		AccountID: b.AccountID,
		Date:      booking.DateOf(b.Date),
		TimeSlot:  int(b.Slot),
	}
	if b.Description != "" {
		desc := b.Description
		record.Description = &desc
	}
	return record
}
