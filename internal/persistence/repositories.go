package persistence

import "context"

// AccountRepository exposes CRUD operations for accounts.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account Account) error
	UpdateAccount(ctx context.Context, account Account) error
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountByUsername(ctx context.Context, username string) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// BookingFilter narrows booking queries. Empty fields do not filter.
type BookingFilter struct {
	AccountID string
	RoomID    string
}

// BookingRepository stores bookings.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) error
	UpdateBooking(ctx context.Context, booking Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// NotificationRepository stores account notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	GetNotification(ctx context.Context, id string) (Notification, error)
	ListNotifications(ctx context.Context, accountID string, unreadOnly bool) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

// Transactor runs fn in a unit of work. Repository calls made with the
// context passed to fn take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is a complete storage backend.
type Store interface {
	AccountRepository
	RoomRepository
	BookingRepository
	NotificationRepository
	Transactor
	Migrate(ctx context.Context) error
	Close() error
}
