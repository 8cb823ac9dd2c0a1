// Package storetest holds the behavioural contract every persistence.Store
// implementation is expected to satisfy.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// Factory returns a fresh, migrated store for a single subtest.
type Factory func(t *testing.T) persistence.Store

var base = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2024, time.January, 2+offset, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

// Run executes the contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
	t.Run("rooms", func(t *testing.T) { testRooms(t, newStore(t)) })
	t.Run("bookings", func(t *testing.T) { testBookings(t, newStore(t)) })
	t.Run("notifications", func(t *testing.T) { testNotifications(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
}

func seedAccount(t *testing.T, store persistence.Store, id, username string) persistence.Account {
	t.Helper()
	account := persistence.Account{
		ID:           id,
		Username:     username,
		PasswordHash: "hash-" + id,
		Role:         "student",
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	if err := store.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("CreateAccount(%s) failed: %v", id, err)
	}
	return account
}

func seedRoom(t *testing.T, store persistence.Store, id string, category int) persistence.Room {
	t.Helper()
	room := persistence.Room{
		ID:          id,
		Name:        "Room " + id,
		Description: "Seminar room",
		Location:    "Building A",
		Category:    category,
		CreatedAt:   base,
		UpdatedAt:   base,
	}
	if err := store.CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("CreateRoom(%s) failed: %v", id, err)
	}
	return room
}

func testAccounts(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	alice := seedAccount(t, store, "acc-1", "Alice")

	fetched, err := store.GetAccount(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if fetched.Username != "Alice" || fetched.PasswordHash != alice.PasswordHash || fetched.Role != "student" {
		t.Fatalf("unexpected account: %+v", fetched)
	}
	if !fetched.CreatedAt.Equal(base) {
		t.Fatalf("expected CreatedAt %v, got %v", base, fetched.CreatedAt)
	}

	byName, err := store.GetAccountByUsername(ctx, "alice")
	if err != nil || byName.ID != alice.ID {
		t.Fatalf("expected case-insensitive username lookup, got %+v (%v)", byName, err)
	}

	dup := alice
	dup.ID = "acc-2"
	dup.Username = "ALICE"
	if err := store.CreateAccount(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for taken username, got %v", err)
	}

	alice.Role = "teacher"
	alice.UpdatedAt = base.Add(time.Hour)
	if err := store.UpdateAccount(ctx, alice); err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}
	fetched, _ = store.GetAccount(ctx, alice.ID)
	if fetched.Role != "teacher" {
		t.Fatalf("expected role teacher, got %q", fetched.Role)
	}

	seedAccount(t, store, "acc-3", "bob")
	list, err := store.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(list) != 2 || list[0].Username != "Alice" || list[1].Username != "bob" {
		t.Fatalf("expected [Alice bob], got %+v", list)
	}

	if err := store.DeleteAccount(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if _, err := store.GetAccount(ctx, alice.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteAccount(ctx, alice.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func testRooms(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	room := seedRoom(t, store, "room-b", 1)
	seedRoom(t, store, "room-a", 2)

	fetched, err := store.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if fetched.Category != 1 || fetched.Location != "Building A" || fetched.Description != "Seminar room" || fetched.HasSmartBoard {
		t.Fatalf("unexpected room: %+v", fetched)
	}

	room.HasSmartBoard = true
	room.Name = "Room z"
	if err := store.UpdateRoom(ctx, room); err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}
	fetched, _ = store.GetRoom(ctx, room.ID)
	if !fetched.HasSmartBoard {
		t.Fatal("expected smart board flag to persist")
	}

	list, err := store.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "room-a" {
		t.Fatalf("expected rooms ordered by name, got %+v", list)
	}

	missing := room
	missing.ID = "nope"
	if err := store.UpdateRoom(ctx, missing); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating unknown room, got %v", err)
	}
	if err := store.CreateRoom(ctx, room); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate creating room twice, got %v", err)
	}

	seedAccount(t, store, "acc-1", "alice")
	if err := store.CreateBooking(ctx, persistence.Booking{ID: "b1", RoomID: room.ID, AccountID: "acc-1", Date: day(3), CreatedAt: base, UpdatedAt: base}); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}
	if err := store.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	if _, err := store.GetBooking(ctx, "b1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected bookings of a deleted room to be removed, got %v", err)
	}
}

func testBookings(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	seedAccount(t, store, "acc-1", "alice")
	seedAccount(t, store, "acc-2", "bob")
	seedRoom(t, store, "room-1", 1)

	first := persistence.Booking{
		ID: "b-late", RoomID: "room-1", AccountID: "acc-1", Date: day(5), TimeSlot: 2,
		Description: strPtr("exam prep"), CreatedAt: base, UpdatedAt: base,
	}
	second := persistence.Booking{
		ID: "b-early", RoomID: "room-1", AccountID: "acc-2", Date: day(1), TimeSlot: 3,
		CreatedAt: base, UpdatedAt: base,
	}
	for _, b := range []persistence.Booking{first, second} {
		if err := store.CreateBooking(ctx, b); err != nil {
			t.Fatalf("CreateBooking(%s) failed: %v", b.ID, err)
		}
	}

	fetched, err := store.GetBooking(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetBooking failed: %v", err)
	}
	if !fetched.Date.Equal(day(5)) || fetched.TimeSlot != 2 || fetched.Description == nil || *fetched.Description != "exam prep" {
		t.Fatalf("unexpected booking: %+v", fetched)
	}
	if fetched, _ := store.GetBooking(ctx, second.ID); fetched.Description != nil {
		t.Fatalf("expected nil description, got %q", *fetched.Description)
	}

	all, err := store.ListBookings(ctx, persistence.BookingFilter{})
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != "b-early" {
		t.Fatalf("expected bookings ordered by date, got %+v", all)
	}

	mine, err := store.ListBookings(ctx, persistence.BookingFilter{AccountID: "acc-1"})
	if err != nil || len(mine) != 1 || mine[0].ID != first.ID {
		t.Fatalf("expected account filter to return b-late, got %+v (%v)", mine, err)
	}

	first.TimeSlot = 0
	first.Description = nil
	if err := store.UpdateBooking(ctx, first); err != nil {
		t.Fatalf("UpdateBooking failed: %v", err)
	}
	fetched, _ = store.GetBooking(ctx, first.ID)
	if fetched.TimeSlot != 0 || fetched.Description != nil {
		t.Fatalf("expected updated slot and cleared description, got %+v", fetched)
	}

	if err := store.DeleteBooking(ctx, first.ID); err != nil {
		t.Fatalf("DeleteBooking failed: %v", err)
	}
	if err := store.DeleteBooking(ctx, first.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
	if err := store.UpdateBooking(ctx, first); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating deleted booking, got %v", err)
	}
}

func testNotifications(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	seedAccount(t, store, "acc-1", "alice")

	older := persistence.Notification{ID: "n1", AccountID: "acc-1", Message: "first", CreatedAt: base}
	newer := persistence.Notification{ID: "n2", AccountID: "acc-1", Message: "second", CreatedAt: base.Add(time.Minute)}
	for _, n := range []persistence.Notification{older, newer} {
		if err := store.CreateNotification(ctx, n); err != nil {
			t.Fatalf("CreateNotification(%s) failed: %v", n.ID, err)
		}
	}

	unread, err := store.ListNotifications(ctx, "acc-1", true)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(unread) != 2 || unread[0].ID != "n2" {
		t.Fatalf("expected newest first, got %+v", unread)
	}

	if err := store.MarkNotificationRead(ctx, "n2"); err != nil {
		t.Fatalf("MarkNotificationRead failed: %v", err)
	}
	unread, _ = store.ListNotifications(ctx, "acc-1", true)
	if len(unread) != 1 || unread[0].ID != "n1" {
		t.Fatalf("expected only n1 unread, got %+v", unread)
	}
	all, _ := store.ListNotifications(ctx, "acc-1", false)
	if len(all) != 2 {
		t.Fatalf("expected 2 notifications overall, got %d", len(all))
	}

	fetched, err := store.GetNotification(ctx, "n2")
	if err != nil || !fetched.IsRead {
		t.Fatalf("expected n2 to be read, got %+v (%v)", fetched, err)
	}
	if err := store.MarkNotificationRead(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testTransactions(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	seedAccount(t, store, "acc-1", "alice")
	seedRoom(t, store, "room-1", 2)

	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := store.CreateBooking(ctx, persistence.Booking{ID: "tx-1", RoomID: "room-1", AccountID: "acc-1", Date: day(2), CreatedAt: base, UpdatedAt: base}); err != nil {
			return err
		}
		list, err := store.ListBookings(ctx, persistence.BookingFilter{})
		if err != nil {
			return err
		}
		if len(list) != 1 {
			t.Errorf("expected booking visible inside the transaction, got %d", len(list))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithinTransaction failed: %v", err)
	}
	if _, err := store.GetBooking(ctx, "tx-1"); err != nil {
		t.Fatalf("expected committed booking, got %v", err)
	}

	boom := errors.New("boom")
	err = store.WithinTransaction(ctx, func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to be returned, got %v", err)
	}
}
