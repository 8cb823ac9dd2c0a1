package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/events"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/memory"
)

var serviceNow = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

func serviceDay(offset int) time.Time {
	return time.Date(2024, time.January, 2+offset, 0, 0, 0, 0, time.UTC)
}

type publisherStub struct {
	events []events.Event
	err    error
}

func (p *publisherStub) Publish(ctx context.Context, event events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *publisherStub) Close() error { return nil }

type bookingEnv struct {
	store         *memory.Store
	publisher     *publisherStub
	notifications *NotificationService
	svc           *BookingService
}

var (
	adminPrincipal   = Principal{AccountID: "a-admin", Role: booking.RoleAdministrator}
	teacherPrincipal = Principal{AccountID: "a-teacher", Role: booking.RoleTeacher}
	studentPrincipal = Principal{AccountID: "a-student", Role: booking.RoleStudent}
	otherPrincipal   = Principal{AccountID: "a-other", Role: booking.RoleStudent}
)

func newBookingEnv(t *testing.T) *bookingEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	for _, r := range []persistence.Room{
		{ID: "r-class", Name: "A1.01", Location: "A", Category: int(booking.ClassRoom), CreatedAt: serviceNow, UpdatedAt: serviceNow},
		{ID: "r-meet", Name: "M2.01", Location: "B", Category: int(booking.MeetingRoom), HasSmartBoard: true, CreatedAt: serviceNow, UpdatedAt: serviceNow},
	} {
		if err := store.CreateRoom(ctx, r); err != nil {
			t.Fatalf("seed room: %v", err)
		}
	}
	for _, a := range []persistence.Account{
		{ID: "a-admin", Username: "admin", Role: "administrator"},
		{ID: "a-teacher", Username: "Tina", Role: "teacher"},
		{ID: "a-student", Username: "Sam", Role: "student"},
		{ID: "a-other", Username: "Olga", Role: "student"},
	} {
		if err := store.CreateAccount(ctx, a); err != nil {
			t.Fatalf("seed account: %v", err)
		}
	}

	counter := 0
	ids := func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	}
	now := func() time.Time { return serviceNow }

	publisher := &publisherStub{}
	notifications := NewNotificationService(store, ids, now, nil)
	engine := NewEngine(store, now, ids)
	return &bookingEnv{
		store:         store,
		publisher:     publisher,
		notifications: notifications,
		svc:           NewBookingService(engine, store, store, notifications, publisher, now, nil),
	}
}

func (e *bookingEnv) seedBooking(t *testing.T, id, roomID, accountID string, date time.Time, slot booking.TimeSlot) {
	t.Helper()
	err := e.store.CreateBooking(context.Background(), persistence.Booking{
		ID: id, RoomID: roomID, AccountID: accountID, Date: date, TimeSlot: int(slot),
		CreatedAt: serviceNow.Add(-time.Hour), UpdatedAt: serviceNow.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("seed booking: %v", err)
	}
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("books for the principal and publishes an event", func(t *testing.T) {
		env := newBookingEnv(t)

		created, err := env.svc.CreateBooking(ctx, CreateBookingParams{
			Principal: studentPrincipal,
			Input: BookingInput{
				RoomID:      " r-class ",
				Date:        serviceDay(1).Add(10 * time.Hour),
				Slot:        booking.Slot10To12,
				Description: "  study group ",
			},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if created.AccountID != "a-student" || created.RoomID != "r-class" || created.Description != "study group" {
			t.Fatalf("unexpected booking: %+v", created)
		}
		if !created.Date.Equal(serviceDay(1)) {
			t.Fatalf("expected date truncated to %v, got %v", serviceDay(1), created.Date)
		}

		stored, err := env.store.GetBooking(ctx, created.ID)
		if err != nil {
			t.Fatalf("expected booking persisted, got %v", err)
		}
		if !stored.CreatedAt.Equal(serviceNow) || stored.Description == nil || *stored.Description != "study group" {
			t.Fatalf("unexpected stored record: %+v", stored)
		}

		if len(env.publisher.events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(env.publisher.events))
		}
		ev := env.publisher.events[0]
		if ev.Type != events.BookingCreated || ev.BookingID != created.ID || ev.Date != "2024-01-03" || ev.SlotLabel != "10:00 - 12:00" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	})

	t.Run("requires an authenticated principal", func(t *testing.T) {
		env := newBookingEnv(t)
		_, err := env.svc.CreateBooking(ctx, CreateBookingParams{
			Input: BookingInput{RoomID: "r-class", Date: serviceDay(1)},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("only administrators book for other accounts", func(t *testing.T) {
		env := newBookingEnv(t)
		input := BookingInput{AccountID: "a-other", RoomID: "r-class", Date: serviceDay(1)}

		if _, err := env.svc.CreateBooking(ctx, CreateBookingParams{Principal: studentPrincipal, Input: input}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}

		created, err := env.svc.CreateBooking(ctx, CreateBookingParams{Principal: adminPrincipal, Input: input})
		if err != nil {
			t.Fatalf("expected admin to book for a-other, got %v", err)
		}
		if created.AccountID != "a-other" {
			t.Fatalf("expected booking owned by a-other, got %q", created.AccountID)
		}
	})

	t.Run("administrators cannot book for unknown accounts", func(t *testing.T) {
		env := newBookingEnv(t)
		_, err := env.svc.CreateBooking(ctx, CreateBookingParams{
			Principal: adminPrincipal,
			Input:     BookingInput{AccountID: "ghost", RoomID: "r-class", Date: serviceDay(1)},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["account_id"] == "" {
			t.Fatalf("expected account_id validation error, got %v", err)
		}
	})

	t.Run("validates required fields", func(t *testing.T) {
		env := newBookingEnv(t)
		_, err := env.svc.CreateBooking(ctx, CreateBookingParams{
			Principal: studentPrincipal,
			Input:     BookingInput{Slot: booking.TimeSlot(9)},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"room_id", "date", "slot"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("surfaces rule violations unchanged", func(t *testing.T) {
		env := newBookingEnv(t)
		env.seedBooking(t, "existing", "r-meet", "a-other", serviceDay(2), booking.Slot08To10)

		_, err := env.svc.CreateBooking(ctx, CreateBookingParams{
			Principal: studentPrincipal,
			Input:     BookingInput{RoomID: "r-meet", Date: serviceDay(2), Slot: booking.Slot08To10},
		})
		var ruleErr *booking.Error
		if !errors.As(err, &ruleErr) || ruleErr.Kind != booking.KindRoomSlotFull || ruleErr.Category != booking.MeetingRoom {
			t.Fatalf("expected meeting room slot full error, got %v", err)
		}
		if len(env.publisher.events) != 0 {
			t.Fatalf("expected no events for rejected booking, got %d", len(env.publisher.events))
		}
	})

	t.Run("publisher failures do not fail the booking", func(t *testing.T) {
		env := newBookingEnv(t)
		env.publisher.err = errors.New("broker down")

		if _, err := env.svc.CreateBooking(ctx, CreateBookingParams{
			Principal: studentPrincipal,
			Input:     BookingInput{RoomID: "r-class", Date: serviceDay(1)},
		}); err != nil {
			t.Fatalf("expected success despite publisher error, got %v", err)
		}
	})
}

func TestBookingService_UpdateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("owner moves a booking and keeps its creation time", func(t *testing.T) {
		env := newBookingEnv(t)
		env.seedBooking(t, "b1", "r-class", "a-student", serviceDay(1), booking.Slot08To10)

		updated, err := env.svc.UpdateBooking(ctx, UpdateBookingParams{
			Principal: studentPrincipal,
			BookingID: "b1",
			Input:     BookingInput{RoomID: "r-meet", Date: serviceDay(4), Slot: booking.Slot14To16},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if updated.RoomID != "r-meet" || updated.Slot != booking.Slot14To16 || updated.AccountID != "a-student" {
			t.Fatalf("unexpected update result: %+v", updated)
		}

		stored, _ := env.store.GetBooking(ctx, "b1")
		if !stored.CreatedAt.Equal(serviceNow.Add(-time.Hour)) || !stored.UpdatedAt.Equal(serviceNow) {
			t.Fatalf("expected created_at kept and updated_at refreshed, got %+v", stored)
		}
		if len(env.publisher.events) != 1 || env.publisher.events[0].Type != events.BookingUpdated {
			t.Fatalf("expected booking.updated event, got %+v", env.publisher.events)
		}
	})

	t.Run("other students cannot update", func(t *testing.T) {
		env := newBookingEnv(t)
		env.seedBooking(t, "b1", "r-class", "a-student", serviceDay(1), booking.Slot08To10)

		_, err := env.svc.UpdateBooking(ctx, UpdateBookingParams{
			Principal: otherPrincipal,
			BookingID: "b1",
			Input:     BookingInput{RoomID: "r-class", Date: serviceDay(5)},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("teachers need three days notice", func(t *testing.T) {
		env := newBookingEnv(t)
		env.seedBooking(t, "b1", "r-class", "a-teacher", serviceDay(5), booking.Slot08To10)

		_, err := env.svc.UpdateBooking(ctx, UpdateBookingParams{
			Principal: teacherPrincipal,
			BookingID: "b1",
			Input:     BookingInput{RoomID: "r-class", Date: serviceDay(2)},
		})
		if !errors.Is(err, booking.ErrInsufficientNotice) {
			t.Fatalf("expected ErrInsufficientNotice, got %v", err)
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		env := newBookingEnv(t)
		_, err := env.svc.UpdateBooking(ctx, UpdateBookingParams{
			Principal: adminPrincipal,
			BookingID: "missing",
			Input:     BookingInput{RoomID: "r-class", Date: serviceDay(5)},
		})
		if !errors.Is(err, booking.ErrBookingNotFound) {
			t.Fatalf("expected ErrBookingNotFound, got %v", err)
		}
	})
}

func TestBookingService_DeleteBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("notifies the owner when an administrator deletes", func(t *testing.T) {
		env := newBookingEnv(t)
		env.seedBooking(t, "b1", "r-class", "a-student", serviceDay(3), booking.Slot08To10)

		removed, err := env.svc.DeleteBooking(ctx, adminPrincipal, "b1")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if removed.ID != "b1" {
			t.Fatalf("expected b1 returned, got %+v", removed)
		}
		if _, err := env.store.GetBooking(ctx, "b1"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected booking removed, got %v", err)
		}

		unread, err := env.notifications.ListUnread(ctx, studentPrincipal)
		if err != nil {
			t.Fatalf("ListUnread failed: %v", err)
		}
		if len(unread) != 1 || unread[0].Message != "Your booking at 05-01-2024 has been deleted." {
			t.Fatalf("unexpected notifications: %+v", unread)
		}
		if len(env.publisher.events) != 1 || env.publisher.events[0].Type != events.BookingDeleted || env.publisher.events[0].ActorID != "a-admin" {
			t.Fatalf("expected booking.deleted event by a-admin, got %+v", env.publisher.events)
		}
	})

	t.Run("teacher inside the notice window is rejected", func(t *testing.T) {
		env := newBookingEnv(t)
		env.seedBooking(t, "b1", "r-class", "a-teacher", serviceDay(2), booking.Slot08To10)

		if _, err := env.svc.DeleteBooking(ctx, teacherPrincipal, "b1"); !errors.Is(err, booking.ErrInsufficientNotice) {
			t.Fatalf("expected ErrInsufficientNotice, got %v", err)
		}
		unread, _ := env.notifications.ListUnread(ctx, teacherPrincipal)
		if len(unread) != 0 {
			t.Fatalf("expected no notification for rejected delete, got %+v", unread)
		}
	})

	t.Run("students cannot delete other bookings", func(t *testing.T) {
		env := newBookingEnv(t)
		env.seedBooking(t, "b1", "r-class", "a-student", serviceDay(3), booking.Slot08To10)

		if _, err := env.svc.DeleteBooking(ctx, otherPrincipal, "b1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unknown booking", func(t *testing.T) {
		env := newBookingEnv(t)
		if _, err := env.svc.DeleteBooking(ctx, adminPrincipal, "nope"); !errors.Is(err, booking.ErrBookingNotFound) {
			t.Fatalf("expected ErrBookingNotFound, got %v", err)
		}
	})
}

func TestBookingService_ListBookings(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) *bookingEnv {
		env := newBookingEnv(t)
		env.seedBooking(t, "expired", "r-class", "a-student", serviceDay(-1), booking.Slot08To10)
		env.seedBooking(t, "late", "r-class", "a-student", serviceDay(4), booking.Slot08To10)
		env.seedBooking(t, "early", "r-meet", "a-other", serviceDay(1), booking.Slot12To14)
		env.seedBooking(t, "today", "r-class", "a-teacher", serviceDay(0), booking.Slot14To16)
		return env
	}

	t.Run("sweeps expired bookings and sorts ascending with names", func(t *testing.T) {
		env := seed(t)
		list, err := env.svc.ListBookings(ctx, ListBookingsParams{Principal: studentPrincipal})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		got := bookingIDs(list)
		if want := []string{"today", "early", "late"}; !equalStrings(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		if list[1].Username != "Olga" || list[1].RoomName != "M2.01" {
			t.Fatalf("expected joined names, got %+v", list[1])
		}
		if _, err := env.store.GetBooking(ctx, "expired"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected expired booking swept, got %v", err)
		}
	})

	t.Run("filters by username ignoring case", func(t *testing.T) {
		env := seed(t)
		list, err := env.svc.ListBookings(ctx, ListBookingsParams{Principal: studentPrincipal, Search: "sA"})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got := bookingIDs(list); !equalStrings(got, []string{"late"}) {
			t.Fatalf("expected only Sam's booking, got %v", got)
		}
	})

	t.Run("sorts descending", func(t *testing.T) {
		env := seed(t)
		list, err := env.svc.ListBookings(ctx, ListBookingsParams{Principal: studentPrincipal, Sort: SortDateDescending})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got := bookingIDs(list); !equalStrings(got, []string{"late", "early", "today"}) {
			t.Fatalf("expected descending order, got %v", got)
		}
	})

	t.Run("rejects unknown sort keys", func(t *testing.T) {
		env := seed(t)
		_, err := env.svc.ListBookings(ctx, ListBookingsParams{Principal: studentPrincipal, Sort: "room"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("account listing is limited to self and administrators", func(t *testing.T) {
		env := seed(t)
		if _, err := env.svc.ListAccountBookings(ctx, otherPrincipal, "a-student"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		list, err := env.svc.ListAccountBookings(ctx, adminPrincipal, "a-student")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got := bookingIDs(list); !equalStrings(got, []string{"late"}) {
			t.Fatalf("expected only current bookings of a-student, got %v", got)
		}
	})
}

func TestBookingService_Availability(t *testing.T) {
	ctx := context.Background()
	env := newBookingEnv(t)
	env.seedBooking(t, "b1", "r-class", "a-student", serviceDay(1), booking.Slot08To10)

	report, err := env.svc.Availability(ctx, AvailabilityParams{Date: serviceDay(1), Slot: booking.Slot08To10})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(report))
	}
	for _, ra := range report {
		if ra.Room.ID == "r-class" && (ra.Status != booking.Partial || ra.Count != 1 || ra.MaxBookings != 2) {
			t.Fatalf("expected classroom partial 1/2, got %+v", ra)
		}
	}

	smart := true
	filtered, err := env.svc.Availability(ctx, AvailabilityParams{Date: serviceDay(1), Slot: booking.Slot08To10, HasSmartBoard: &smart})
	if err != nil || len(filtered) != 1 || filtered[0].Room.ID != "r-meet" {
		t.Fatalf("expected only the smart board room, got %+v (%v)", filtered, err)
	}

	bad := booking.Category(7)
	_, err = env.svc.Availability(ctx, AvailabilityParams{Slot: booking.TimeSlot(4), Category: &bad})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || len(vErr.FieldErrors) != 3 {
		t.Fatalf("expected date, slot and category errors, got %v", err)
	}
}

func TestBookingService_SweepExpired(t *testing.T) {
	env := newBookingEnv(t)
	env.seedBooking(t, "old1", "r-class", "a-student", serviceDay(-3), booking.Slot08To10)
	env.seedBooking(t, "old2", "r-meet", "a-other", serviceDay(-1), booking.Slot08To10)
	env.seedBooking(t, "current", "r-meet", "a-other", serviceDay(0), booking.Slot08To10)

	n, err := env.svc.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
}

func bookingIDs(list []BookingDetails) []string {
	out := make([]string, 0, len(list))
	for _, b := range list {
		out = append(out, b.ID)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
