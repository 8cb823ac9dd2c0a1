package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/events"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/memory"
)

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

// Events returns a copy of the recorded events in publish order.
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Services bundles the application services wired over one store with a
// controllable clock and deterministic ids.
type Services struct {
	Store         persistence.Store
	Clock         *Clock
	IDs           *IDGenerator
	Publisher     *RecordingPublisher
	Engine        *booking.Engine
	Bookings      *application.BookingService
	Rooms         *application.RoomService
	Accounts      *application.AccountService
	Notifications *application.NotificationService
}

// ServicesOption configures NewServices.
type ServicesOption func(*servicesConfig)

type servicesConfig struct {
	store  persistence.Store
	clock  *Clock
	logger *slog.Logger
}

// WithStore replaces the default in-memory store.
func WithStore(store persistence.Store) ServicesOption {
	return func(c *servicesConfig) { c.store = store }
}

// WithClock overrides the clock shared by the services.
func WithClock(clock *Clock) ServicesOption {
	return func(c *servicesConfig) { c.clock = clock }
}

// WithLogger routes service logs to logger instead of discarding them.
func WithLogger(logger *slog.Logger) ServicesOption {
	return func(c *servicesConfig) { c.logger = logger }
}

// NewServices wires every application service. Rooms and accounts from
// StandardRooms and StandardAccounts are seeded; the accounts share the
// hash of FixturePassword.
func NewServices(tb testing.TB, opts ...ServicesOption) *Services {
	tb.Helper()

	cfg := servicesConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = memory.New()
	}
	if cfg.clock == nil {
		cfg.clock = NewClock(time.Time{})
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ids := NewIDGenerator("id")
	publisher := &RecordingPublisher{}
	now := cfg.clock.NowFunc()
	hasher := application.NewArgon2idHasher(FastArgon2idParams)

	engine := application.NewEngine(cfg.store, now, ids.NextFunc())
	notifications := application.NewNotificationService(cfg.store, ids.NextFunc(), now, cfg.logger)

	svc := &Services{
		Store:         cfg.store,
		Clock:         cfg.clock,
		IDs:           ids,
		Publisher:     publisher,
		Engine:        engine,
		Bookings:      application.NewBookingService(engine, cfg.store, cfg.store, notifications, publisher, now, cfg.logger),
		Rooms:         application.NewRoomServiceWithLogger(cfg.store, ids.NextFunc(), now, cfg.logger),
		Accounts:      application.NewAccountService(cfg.store, hasher, nil, ids.NextFunc(), now, cfg.logger),
		Notifications: notifications,
	}

	hash, err := hasher(FixturePassword)
	if err != nil {
		tb.Fatalf("hash fixture password: %v", err)
	}
	Seed(tb, cfg.store, StandardRooms(), StandardAccounts(hash), nil)
	return svc
}

// FastArgon2idParams keeps password hashing cheap in tests.
var FastArgon2idParams = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// Principal returns the principal for one of the standard accounts.
func Principal(accountID string) application.Principal {
	roles := map[string]booking.Role{
		AdminID:        booking.RoleAdministrator,
		TeacherID:      booking.RoleTeacher,
		StudentID:      booking.RoleStudent,
		OtherStudentID: booking.RoleStudent,
	}
	role, ok := roles[accountID]
	if !ok {
		role = booking.RoleGeneric
	}
	return application.Principal{AccountID: accountID, Role: role}
}
