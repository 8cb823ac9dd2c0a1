// Package memory provides an in-process implementation of persistence.Store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/example/room-booking/internal/persistence"
)

type txKey struct{}

// txLog collects the undo steps of one transaction, newest last.
type txLog struct {
	undo []func()
}

// remember records how to restore m[key] should the enclosing transaction
// fail. The caller holds s.mu.
func remember[V any](ctx context.Context, m map[string]V, key string) {
	log, ok := ctx.Value(txKey{}).(*txLog)
	if !ok {
		return
	}
	prev, existed := m[key]
	log.undo = append(log.undo, func() {
		if existed {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

// Store keeps every record in maps guarded by a RWMutex. Mutations run through
// WithinTransaction are additionally serialised by txMu.
type Store struct {
	txMu sync.Mutex

	mu            sync.RWMutex
	accounts      map[string]persistence.Account
	rooms         map[string]persistence.Room
	bookings      map[string]persistence.Booking
	notifications map[string]persistence.Notification
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts:      make(map[string]persistence.Account),
		rooms:         make(map[string]persistence.Room),
		bookings:      make(map[string]persistence.Booking),
		notifications: make(map[string]persistence.Notification),
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Migrate is a no-op.
func (s *Store) Migrate(context.Context) error {
	return nil
}

// WithinTransaction serialises fn against other transactions. Nested calls
// join the outer transaction. When fn fails every write it made through the
// store is undone.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txLog); ok {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	log := &txLog{}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		s.mu.Lock()
		for i := len(log.undo) - 1; i >= 0; i-- {
			log.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// --- AccountRepository implementation ---

func (s *Store) CreateAccount(ctx context.Context, account persistence.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.accounts[account.ID]; ok {
		return persistence.ErrDuplicate
	}
	if err := s.ensureUniqueUsernameLocked(account.ID, account.Username); err != nil {
		return err
	}
	remember(ctx, s.accounts, account.ID)
	s.accounts[account.ID] = account
	return nil
}

func (s *Store) UpdateAccount(ctx context.Context, account persistence.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; !ok {
		return persistence.ErrNotFound
	}
	if err := s.ensureUniqueUsernameLocked(account.ID, account.Username); err != nil {
		return err
	}
	remember(ctx, s.accounts, account.ID)
	s.accounts[account.ID] = account
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (persistence.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return persistence.Account{}, persistence.ErrNotFound
	}
	return account, nil
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (persistence.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if strings.EqualFold(account.Username, username) {
			return account, nil
		}
	}
	return persistence.Account{}, persistence.ErrNotFound
}

// ListAccounts returns accounts ordered by username.
func (s *Store) ListAccounts(ctx context.Context) ([]persistence.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]persistence.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return strings.ToLower(accounts[i].Username) < strings.ToLower(accounts[j].Username)
	})
	return accounts, nil
}

// DeleteAccount removes the account together with its bookings and notifications.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return persistence.ErrNotFound
	}
	remember(ctx, s.accounts, id)
	delete(s.accounts, id)
	for bookingID, b := range s.bookings {
		if b.AccountID == id {
			remember(ctx, s.bookings, bookingID)
			delete(s.bookings, bookingID)
		}
	}
	for notificationID, n := range s.notifications {
		if n.AccountID == id {
			remember(ctx, s.notifications, notificationID)
			delete(s.notifications, notificationID)
		}
	}
	return nil
}

func (s *Store) ensureUniqueUsernameLocked(id, username string) error {
	for _, existing := range s.accounts {
		if existing.ID != id && strings.EqualFold(existing.Username, username) {
			return persistence.ErrDuplicate
		}
	}
	return nil
}

// --- RoomRepository implementation ---

func (s *Store) CreateRoom(ctx context.Context, room persistence.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.rooms[room.ID]; ok {
		return persistence.ErrDuplicate
	}
	remember(ctx, s.rooms, room.ID)
	s.rooms[room.ID] = room
	return nil
}

func (s *Store) UpdateRoom(ctx context.Context, room persistence.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[room.ID]; !ok {
		return persistence.ErrNotFound
	}
	remember(ctx, s.rooms, room.ID)
	s.rooms[room.ID] = room
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return room, nil
}

// ListRooms returns rooms ordered by name then id.
func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]persistence.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Name == rooms[j].Name {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].Name < rooms[j].Name
	})
	return rooms, nil
}

// DeleteRoom removes the room and every booking that references it.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	remember(ctx, s.rooms, id)
	delete(s.rooms, id)
	for bookingID, b := range s.bookings {
		if b.RoomID == id {
			remember(ctx, s.bookings, bookingID)
			delete(s.bookings, bookingID)
		}
	}
	return nil
}

// --- BookingRepository implementation ---

func (s *Store) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.bookings[booking.ID]; ok {
		return persistence.ErrDuplicate
	}
	remember(ctx, s.bookings, booking.ID)
	s.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (s *Store) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[booking.ID]; !ok {
		return persistence.ErrNotFound
	}
	remember(ctx, s.bookings, booking.ID)
	s.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return cloneBooking(booking), nil
}

// ListBookings returns matching bookings ordered by date, slot and id.
func (s *Store) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]persistence.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if filter.AccountID != "" && b.AccountID != filter.AccountID {
			continue
		}
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		bookings = append(bookings, cloneBooking(b))
	}
	sort.Slice(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.TimeSlot != b.TimeSlot {
			return a.TimeSlot < b.TimeSlot
		}
		return a.ID < b.ID
	})
	return bookings, nil
}

func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bookings[id]; !ok {
		return persistence.ErrNotFound
	}
	remember(ctx, s.bookings, id)
	delete(s.bookings, id)
	return nil
}

// --- NotificationRepository implementation ---

func (s *Store) CreateNotification(ctx context.Context, notification persistence.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if notification.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.notifications[notification.ID]; ok {
		return persistence.ErrDuplicate
	}
	remember(ctx, s.notifications, notification.ID)
	s.notifications[notification.ID] = notification
	return nil
}

func (s *Store) GetNotification(ctx context.Context, id string) (persistence.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return persistence.Notification{}, persistence.ErrNotFound
	}
	return n, nil
}

// ListNotifications returns an account's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, accountID string, unreadOnly bool) ([]persistence.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.Notification
	for _, n := range s.notifications {
		if n.AccountID != accountID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return persistence.ErrNotFound
	}
	n.IsRead = true
	remember(ctx, s.notifications, id)
	s.notifications[id] = n
	return nil
}

func cloneBooking(b persistence.Booking) persistence.Booking {
	if b.Description != nil {
		description := *b.Description
		b.Description = &description
	}
	return b
}

var _ persistence.Store = (*Store)(nil)
