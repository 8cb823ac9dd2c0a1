package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

var referenceNow = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

type fakeStore struct {
	rooms    []Room
	bookings []Booking

	listErr   error
	addErr    error
	txCalls   int
	updated   []Booking
	deleted   []string
	idCounter int
}

func (s *fakeStore) FindRoom(ctx context.Context, id string) (Room, bool, error) {
	for _, r := range s.rooms {
		if r.ID == id {
			return r, true, nil
		}
	}
	return Room{}, false, nil
}

func (s *fakeStore) ListRooms(ctx context.Context) ([]Room, error) {
	out := make([]Room, len(s.rooms))
	copy(out, s.rooms)
	return out, nil
}

func (s *fakeStore) AddBooking(ctx context.Context, b Booking) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.bookings = append(s.bookings, b)
	return nil
}

func (s *fakeStore) UpdateBooking(ctx context.Context, b Booking) error {
	for i := range s.bookings {
		if s.bookings[i].ID == b.ID {
			s.bookings[i] = b
			s.updated = append(s.updated, b)
			return nil
		}
	}
	return fmt.Errorf("booking %s missing", b.ID)
}

func (s *fakeStore) DeleteBooking(ctx context.Context, id string) error {
	for i := range s.bookings {
		if s.bookings[i].ID == id {
			s.bookings = append(s.bookings[:i], s.bookings[i+1:]...)
			s.deleted = append(s.deleted, id)
			return nil
		}
	}
	return fmt.Errorf("booking %s missing", id)
}

func (s *fakeStore) FindBooking(ctx context.Context, id string) (Booking, bool, error) {
	for _, b := range s.bookings {
		if b.ID == id {
			return b, true, nil
		}
	}
	return Booking{}, false, nil
}

func (s *fakeStore) ListBookings(ctx context.Context) ([]Booking, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Booking, len(s.bookings))
	copy(out, s.bookings)
	return out, nil
}

func (s *fakeStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txCalls++
	return fn(ctx)
}

func (s *fakeStore) nextID() string {
	s.idCounter++
	return fmt.Sprintf("booking-%d", s.idCounter)
}

func newTestEngine(store *fakeStore) *Engine {
	return NewEngine(store, store,
		WithClock(func() time.Time { return referenceNow }),
		WithIDGenerator(store.nextID),
	)
}

func standardRooms() []Room {
	return []Room{
		{ID: "1", Name: "A1.01", Category: ClassRoom},
		{ID: "2", Name: "M2.01", Category: MeetingRoom},
		{ID: "3", Name: "A1.02", Category: ClassRoom, HasSmartBoard: true},
	}
}

func TestEngine_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects past dates before any other check", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms()}
		engine := newTestEngine(store)

		_, err := engine.Add(ctx, Booking{RoomID: "missing", AccountID: "a1", Date: day(-1), Slot: Slot08To10})
		if !errors.Is(err, ErrPastDate) {
			t.Fatalf("expected ErrPastDate, got %v", err)
		}
		if len(store.bookings) != 0 {
			t.Fatalf("expected no booking stored, got %d", len(store.bookings))
		}
	})

	t.Run("assigns distinct ids without an injected generator", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms()}
		engine := NewEngine(store, store, WithClock(func() time.Time { return referenceNow }))

		first, err := engine.Add(ctx, Booking{RoomID: "1", AccountID: "a1", Date: day(1), Slot: Slot08To10})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		second, err := engine.Add(ctx, Booking{RoomID: "1", AccountID: "a2", Date: day(1), Slot: Slot08To10})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if first.ID == "" || second.ID == "" || first.ID == second.ID {
			t.Fatalf("expected two distinct ids, got %q and %q", first.ID, second.ID)
		}
	})

	t.Run("accepts bookings for today", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms()}
		engine := newTestEngine(store)

		got, err := engine.Add(ctx, Booking{RoomID: "1", AccountID: "a1", Date: referenceNow, Slot: Slot14To16})
		if err != nil {
			t.Fatalf("expected booking for today to be accepted, got %v", err)
		}
		if !got.Date.Equal(day(0)) {
			t.Fatalf("expected date truncated to %v, got %v", day(0), got.Date)
		}
		if got.ID != "booking-1" {
			t.Fatalf("expected generated id booking-1, got %q", got.ID)
		}
	})

	t.Run("rejects unknown rooms", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms()}
		engine := newTestEngine(store)

		_, err := engine.Add(ctx, Booking{RoomID: "99", AccountID: "a1", Date: day(1), Slot: Slot08To10})
		if !errors.Is(err, ErrRoomNotFound) {
			t.Fatalf("expected ErrRoomNotFound, got %v", err)
		}
	})

	t.Run("rejects a second booking by the same account in the same slot of another room", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms(), bookings: []Booking{
			{ID: "b1", RoomID: "1", AccountID: "a1", Date: day(1), Slot: Slot08To10},
		}}
		engine := newTestEngine(store)

		_, err := engine.Add(ctx, Booking{RoomID: "3", AccountID: "a1", Date: day(1), Slot: Slot08To10})
		if !errors.Is(err, ErrDuplicateUserSlot) {
			t.Fatalf("expected ErrDuplicateUserSlot, got %v", err)
		}
	})

	t.Run("rejects the sixth booking of an account", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms()}
		engine := newTestEngine(store)

		for i := 0; i < MaxBookingsPerAccount; i++ {
			slot := TimeSlots()[i%len(TimeSlots())]
			if _, err := engine.Add(ctx, Booking{RoomID: "1", AccountID: "a1", Date: day(1 + i), Slot: slot}); err != nil {
				t.Fatalf("booking %d: unexpected error %v", i+1, err)
			}
		}

		_, err := engine.Add(ctx, Booking{RoomID: "2", AccountID: "a1", Date: day(30), Slot: Slot12To14})
		if !errors.Is(err, ErrBookingLimitExceeded) {
			t.Fatalf("expected ErrBookingLimitExceeded, got %v", err)
		}
	})

	t.Run("classroom accepts two bookings and rejects the third", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms()}
		engine := newTestEngine(store)

		for _, account := range []string{"1", "2"} {
			if _, err := engine.Add(ctx, Booking{RoomID: "1", AccountID: account, Date: day(5), Slot: Slot08To10}); err != nil {
				t.Fatalf("account %s: unexpected error %v", account, err)
			}
		}

		_, err := engine.Add(ctx, Booking{RoomID: "1", AccountID: "3", Date: day(5), Slot: Slot08To10})
		if !errors.Is(err, ErrRoomSlotFull) {
			t.Fatalf("expected ErrRoomSlotFull, got %v", err)
		}
		var ruleErr *Error
		if !errors.As(err, &ruleErr) || ruleErr.Category != ClassRoom {
			t.Fatalf("expected slot-full error to carry ClassRoom, got %#v", err)
		}
	})

	t.Run("meeting room accepts one booking", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms(), bookings: []Booking{
			{ID: "b1", RoomID: "2", AccountID: "1", Date: day(5), Slot: Slot10To12},
		}}
		engine := newTestEngine(store)

		_, err := engine.Add(ctx, Booking{RoomID: "2", AccountID: "2", Date: day(5), Slot: Slot10To12})
		if !errors.Is(err, ErrRoomSlotFull) {
			t.Fatalf("expected ErrRoomSlotFull for a different user, got %v", err)
		}
		var ruleErr *Error
		if !errors.As(err, &ruleErr) || ruleErr.Category != MeetingRoom {
			t.Fatalf("expected slot-full error to carry MeetingRoom, got %#v", err)
		}

		_, err = engine.Add(ctx, Booking{RoomID: "2", AccountID: "1", Date: day(5), Slot: Slot10To12})
		if !errors.Is(err, ErrDuplicateUserSlot) {
			t.Fatalf("expected ErrDuplicateUserSlot for the same user, got %v", err)
		}
	})

	t.Run("passes storage errors through", func(t *testing.T) {
		boom := errors.New("disk full")
		store := &fakeStore{rooms: standardRooms(), addErr: boom}
		engine := newTestEngine(store)

		_, err := engine.Add(ctx, Booking{RoomID: "1", AccountID: "a1", Date: day(1), Slot: Slot08To10})
		if !errors.Is(err, boom) {
			t.Fatalf("expected storage error, got %v", err)
		}
		var ruleErr *Error
		if errors.As(err, &ruleErr) {
			t.Fatalf("storage error must not be reported as a rule error, got %v", ruleErr)
		}
	})

	t.Run("runs inside the store transaction", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms()}
		engine := newTestEngine(store)

		if _, err := engine.Add(ctx, Booking{RoomID: "1", AccountID: "a1", Date: day(1), Slot: Slot08To10}); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if store.txCalls != 1 {
			t.Fatalf("expected 1 transaction, got %d", store.txCalls)
		}
	})
}

func TestEngine_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("re-saving an unchanged booking does not count against itself", func(t *testing.T) {
		existing := Booking{ID: "b1", RoomID: "2", AccountID: "a1", Date: day(5), Slot: Slot08To10}
		store := &fakeStore{rooms: standardRooms(), bookings: []Booking{existing}}
		engine := newTestEngine(store)

		if _, err := engine.Update(ctx, existing, RoleStudent); err != nil {
			t.Fatalf("expected idempotent update to succeed, got %v", err)
		}
		if len(store.updated) != 1 {
			t.Fatalf("expected one store update, got %d", len(store.updated))
		}
	})

	t.Run("rejects moving into a full slot", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms(), bookings: []Booking{
			{ID: "b1", RoomID: "2", AccountID: "a1", Date: day(5), Slot: Slot08To10},
			{ID: "b2", RoomID: "2", AccountID: "a2", Date: day(5), Slot: Slot10To12},
		}}
		engine := newTestEngine(store)

		_, err := engine.Update(ctx, Booking{ID: "b2", RoomID: "2", AccountID: "a2", Date: day(5), Slot: Slot08To10}, RoleStudent)
		if !errors.Is(err, ErrRoomSlotFull) {
			t.Fatalf("expected ErrRoomSlotFull, got %v", err)
		}
	})

	t.Run("rejects unknown rooms", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms(), bookings: []Booking{
			{ID: "b1", RoomID: "1", AccountID: "a1", Date: day(5), Slot: Slot08To10},
		}}
		engine := newTestEngine(store)

		_, err := engine.Update(ctx, Booking{ID: "b1", RoomID: "404", AccountID: "a1", Date: day(5), Slot: Slot08To10}, RoleAdministrator)
		if !errors.Is(err, ErrRoomNotFound) {
			t.Fatalf("expected ErrRoomNotFound, got %v", err)
		}
	})

	t.Run("does not re-apply the duplicate slot and limit rules of admission", func(t *testing.T) {
		bookings := []Booking{
			{ID: "b1", RoomID: "1", AccountID: "a1", Date: day(4), Slot: Slot08To10},
			{ID: "b2", RoomID: "1", AccountID: "a1", Date: day(5), Slot: Slot08To10},
			{ID: "b3", RoomID: "1", AccountID: "a1", Date: day(6), Slot: Slot08To10},
			{ID: "b4", RoomID: "1", AccountID: "a1", Date: day(7), Slot: Slot08To10},
			{ID: "b5", RoomID: "1", AccountID: "a1", Date: day(8), Slot: Slot08To10},
		}
		store := &fakeStore{rooms: standardRooms(), bookings: bookings}
		engine := newTestEngine(store)

		// b5 moves onto the date and slot of b1 in another room; Add would refuse this.
		moved := Booking{ID: "b5", RoomID: "3", AccountID: "a1", Date: day(4), Slot: Slot08To10}
		if _, err := engine.Update(ctx, moved, RoleStudent); err != nil {
			t.Fatalf("expected update to bypass duplicate and limit checks, got %v", err)
		}

		_, err := engine.Add(ctx, Booking{RoomID: "3", AccountID: "a1", Date: day(4), Slot: Slot08To10})
		if !errors.Is(err, ErrDuplicateUserSlot) {
			t.Fatalf("expected Add to reject the same placement, got %v", err)
		}
	})

	t.Run("notice-restricted role needs three days", func(t *testing.T) {
		cases := []struct {
			name    string
			role    Role
			offset  int
			wantErr bool
		}{
			{"teacher two days ahead", RoleTeacher, 2, true},
			{"teacher three days ahead", RoleTeacher, 3, false},
			{"administrator two days ahead", RoleAdministrator, 2, false},
			{"student two days ahead", RoleStudent, 2, false},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				b := Booking{ID: "b1", RoomID: "1", AccountID: "a1", Date: day(tc.offset), Slot: Slot08To10}
				store := &fakeStore{rooms: standardRooms(), bookings: []Booking{b}}
				engine := newTestEngine(store)

				_, err := engine.Update(ctx, b, tc.role)
				if tc.wantErr && !errors.Is(err, ErrInsufficientNotice) {
					t.Fatalf("expected ErrInsufficientNotice, got %v", err)
				}
				if !tc.wantErr && err != nil {
					t.Fatalf("expected success, got %v", err)
				}
			})
		}
	})
}

func TestEngine_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown booking", func(t *testing.T) {
		engine := newTestEngine(&fakeStore{rooms: standardRooms()})
		_, err := engine.Delete(ctx, "missing", RoleAdministrator)
		if !errors.Is(err, ErrBookingNotFound) {
			t.Fatalf("expected ErrBookingNotFound, got %v", err)
		}
	})

	t.Run("teacher cannot delete two days ahead", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms(), bookings: []Booking{
			{ID: "b1", RoomID: "1", AccountID: "t1", Date: day(2), Slot: Slot08To10},
		}}
		engine := newTestEngine(store)

		_, err := engine.Delete(ctx, "b1", RoleTeacher)
		if !errors.Is(err, ErrInsufficientNotice) {
			t.Fatalf("expected ErrInsufficientNotice, got %v", err)
		}
		if len(store.bookings) != 1 {
			t.Fatal("expected booking to remain after rejected delete")
		}
	})

	t.Run("teacher deletes three days ahead", func(t *testing.T) {
		store := &fakeStore{rooms: standardRooms(), bookings: []Booking{
			{ID: "b1", RoomID: "1", AccountID: "t1", Date: day(3), Slot: Slot08To10},
		}}
		engine := newTestEngine(store)

		removed, err := engine.Delete(ctx, "b1", RoleTeacher)
		if err != nil {
			t.Fatalf("expected delete to succeed, got %v", err)
		}
		if removed.ID != "b1" || len(store.bookings) != 0 {
			t.Fatalf("expected b1 removed, got %+v with %d remaining", removed, len(store.bookings))
		}
	})
}

func TestEngine_FindBooking(t *testing.T) {
	store := &fakeStore{rooms: standardRooms(), bookings: []Booking{
		{ID: "b1", RoomID: "1", AccountID: "s1", Date: day(1), Slot: Slot10To12},
	}}
	engine := newTestEngine(store)

	got, err := engine.FindBooking(context.Background(), "b1")
	if err != nil || got.AccountID != "s1" {
		t.Fatalf("expected b1 for s1, got %+v (%v)", got, err)
	}
	if _, err := engine.FindBooking(context.Background(), "nope"); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestEngine_GetRoomAvailability(t *testing.T) {
	store := &fakeStore{rooms: standardRooms(), bookings: []Booking{
		{ID: "b1", RoomID: "1", AccountID: "a1", Date: day(1), Slot: Slot08To10},
		{ID: "b2", RoomID: "1", AccountID: "a2", Date: day(1), Slot: Slot08To10},
		{ID: "b3", RoomID: "3", AccountID: "a3", Date: day(1), Slot: Slot08To10},
	}}
	engine := newTestEngine(store)

	report, err := engine.GetRoomAvailability(context.Background(), day(1), Slot08To10, Filter{})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want := map[string]AvailabilityStatus{"1": Full, "2": Empty, "3": Partial}
	if len(report) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(report))
	}
	for _, entry := range report {
		if entry.Status != want[entry.Room.ID] {
			t.Fatalf("room %s: expected %v, got %v", entry.Room.ID, want[entry.Room.ID], entry.Status)
		}
	}
}

func TestEngine_DeleteExpiredBookings(t *testing.T) {
	store := &fakeStore{rooms: standardRooms(), bookings: []Booking{
		{ID: "past", RoomID: "1", AccountID: "a1", Date: day(-3), Slot: Slot08To10},
		{ID: "yesterday", RoomID: "1", AccountID: "a1", Date: day(-1), Slot: Slot10To12},
		{ID: "today", RoomID: "1", AccountID: "a1", Date: day(0), Slot: Slot08To10},
		{ID: "future", RoomID: "2", AccountID: "a2", Date: day(9), Slot: Slot08To10},
	}}
	engine := newTestEngine(store)

	t.Run("sweep removes only past bookings", func(t *testing.T) {
		n, err := engine.DeleteExpiredBookings(context.Background())
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if n != 2 {
			t.Fatalf("expected 2 deletions, got %d", n)
		}
		if len(store.bookings) != 2 {
			t.Fatalf("expected 2 remaining bookings, got %d", len(store.bookings))
		}
	})

	t.Run("listing leaves no past bookings in the store", func(t *testing.T) {
		store.bookings = append(store.bookings, Booking{ID: "stale", RoomID: "1", AccountID: "a3", Date: day(-7), Slot: Slot08To10})

		listed, err := engine.ListBookings(context.Background())
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		for _, b := range append(listed, store.bookings...) {
			if b.Date.Before(day(0)) {
				t.Fatalf("expected no past bookings after listing, found %s", b.ID)
			}
		}
		if len(listed) != 2 || listed[0].ID != "today" {
			t.Fatalf("expected [today future], got %+v", listed)
		}
	})

	t.Run("propagates snapshot errors", func(t *testing.T) {
		boom := errors.New("unavailable")
		failing := &fakeStore{listErr: boom}
		_, err := newTestEngine(failing).DeleteExpiredBookings(context.Background())
		if !errors.Is(err, boom) {
			t.Fatalf("expected %v, got %v", boom, err)
		}
	})
}
