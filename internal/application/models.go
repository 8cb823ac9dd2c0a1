package application

import (
	"time"

	"github.com/example/room-booking/internal/booking"
)

// Principal represents the account invoking a service method.
type Principal struct {
	AccountID string
	Role      booking.Role
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == booking.RoleAdministrator
}

// Authenticated reports whether the principal identifies an account.
func (p Principal) Authenticated() bool {
	return p.AccountID != ""
}

// BookingInput captures caller provided booking fields. AccountID defaults to
// the principal; only administrators may book for another account.
type BookingInput struct {
	AccountID   string
	RoomID      string
	Date        time.Time
	Slot        booking.TimeSlot
	Description string
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// UpdateBookingParams wraps the data required to modify a booking.
type UpdateBookingParams struct {
	Principal Principal
	BookingID string
	Input     BookingInput
}

// BookingSort selects the listing order.
type BookingSort string

const (
	// SortDateAscending lists the earliest bookings first.
	SortDateAscending BookingSort = "date"
	// SortDateDescending lists the latest bookings first.
	SortDateDescending BookingSort = "-date"
)

// ListBookingsParams narrows a booking listing.
type ListBookingsParams struct {
	Principal Principal
	// Search keeps bookings whose owner's username contains it, ignoring case.
	Search string
	Sort   BookingSort
}

// BookingDetails is a booking joined with the names shown to users.
type BookingDetails struct {
	booking.Booking
	Username string
	RoomName string
}

// AvailabilityParams selects the date, slot and optional room filters of an availability report.
type AvailabilityParams struct {
	Date          time.Time
	Slot          booking.TimeSlot
	Category      *booking.Category
	HasSmartBoard *bool
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name          string
	Description   string
	Location      string
	Category      booking.Category
	HasSmartBoard bool
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// Account is the public view of an account. The password hash never leaves the service.
type Account struct {
	ID        string
	Username  string
	Role      booking.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountInput captures caller provided account attributes.
type AccountInput struct {
	Username string
	Password string
	Role     booking.Role
}

// CreateAccountParams wraps the data required to register an account.
type CreateAccountParams struct {
	Principal Principal
	Input     AccountInput
}

// UpdateAccountParams wraps the data required to rename an account or change its role.
type UpdateAccountParams struct {
	Principal Principal
	AccountID string
	Username  string
	Role      booking.Role
}

// Notification is a message addressed to one account.
type Notification struct {
	ID        string
	AccountID string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
