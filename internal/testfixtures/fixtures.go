package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Well-known fixture values.
const (
	ClassroomID      = "room-classroom"
	MeetingRoomID    = "room-meeting"
	SmartClassroomID = "room-smart"
	AdminID          = "acc-admin"
	TeacherID        = "acc-teacher"
	StudentID        = "acc-student"
	OtherStudentID   = "acc-student-2"
	FixturePassword  = "correct horse battery"
	FixtureLocationA = "Building A"
	FixtureLocationB = "Building B"
)

// RoomOption configures a generated room.
type RoomOption func(*persistence.Room)

// WithSmartBoard marks the room as equipped with a smart board.
func WithSmartBoard() RoomOption {
	return func(r *persistence.Room) { r.HasSmartBoard = true }
}

// NewRoom returns a room record stamped with ReferenceTime.
func NewRoom(id, name string, category booking.Category, opts ...RoomOption) persistence.Room {
	room := persistence.Room{
		ID:        id,
		Name:      name,
		Location:  FixtureLocationA,
		Category:  int(category),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// StandardRooms returns a classroom, a meeting room and a classroom with a smart board.
func StandardRooms() []persistence.Room {
	return []persistence.Room{
		NewRoom(ClassroomID, "A1.01", booking.ClassRoom),
		NewRoom(MeetingRoomID, "M2.01", booking.MeetingRoom, func(r *persistence.Room) { r.Location = FixtureLocationB }),
		NewRoom(SmartClassroomID, "A1.02", booking.ClassRoom, WithSmartBoard()),
	}
}

// NewAccount returns an account record. passwordHash may be empty when the
// test never authenticates.
func NewAccount(id, username string, role booking.Role, passwordHash string) persistence.Account {
	return persistence.Account{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         string(role),
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
}

// StandardAccounts returns one account per interesting role.
func StandardAccounts(passwordHash string) []persistence.Account {
	return []persistence.Account{
		NewAccount(AdminID, "admin", booking.RoleAdministrator, passwordHash),
		NewAccount(TeacherID, "Tina Teacher", booking.RoleTeacher, passwordHash),
		NewAccount(StudentID, "Sam Student", booking.RoleStudent, passwordHash),
		NewAccount(OtherStudentID, "Sasha Student", booking.RoleStudent, passwordHash),
	}
}

// NewBooking returns a booking record for date and slot.
func NewBooking(id, roomID, accountID string, date time.Time, slot booking.TimeSlot) persistence.Booking {
	return persistence.Booking{
		ID:        id,
		RoomID:    roomID,
		AccountID: accountID,
		Date:      booking.DateOf(date),
		TimeSlot:  int(slot),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// Seed inserts rooms, accounts and bookings into store, failing the test on error.
func Seed(tb testing.TB, store persistence.Store, rooms []persistence.Room, accounts []persistence.Account, bookings []persistence.Booking) {
	tb.Helper()
	ctx := context.Background()
	for _, r := range rooms {
		if err := store.CreateRoom(ctx, r); err != nil {
			tb.Fatalf("seed room %s: %v", r.ID, err)
		}
	}
	for _, a := range accounts {
		if err := store.CreateAccount(ctx, a); err != nil {
			tb.Fatalf("seed account %s: %v", a.ID, err)
		}
	}
	for _, b := range bookings {
		if err := store.CreateBooking(ctx, b); err != nil {
			tb.Fatalf("seed booking %s: %v", b.ID, err)
		}
	}
}
