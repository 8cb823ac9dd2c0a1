package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/events"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/memory"
	"github.com/example/room-booking/internal/persistence/postgres"
	"github.com/example/room-booking/internal/persistence/sqlite"
	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

// operator is the principal used by administrative subcommands.
var operator = application.Principal{AccountID: "cli", Role: booking.RoleAdministrator}

// openStore connects to the configured backend and applies its schema.
func (rt *runtime) openStore(ctx context.Context) (persistence.Store, error) {
	var (
		store persistence.Store
		err   error
	)
	switch rt.cfg.Driver {
	case config.DriverSQLite:
		store, err = sqlite.Open(ctx, migration.DefaultSQLiteConfig(rt.cfg.SQLiteDSN), rt.logger)
	case config.DriverPostgres:
		store, err = postgres.Open(ctx, rt.cfg.PostgresDSN, rt.logger)
	case config.DriverMemory:
		store = memory.New()
	default:
		err = fmt.Errorf("unsupported storage driver %q", rt.cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	rt.logger.DebugContext(ctx, "storage ready", "driver", rt.cfg.Driver)
	return store, nil
}

// openPublisher dials RabbitMQ when ROOMBOOKING_AMQP_URL is set and logs events otherwise.
func (rt *runtime) openPublisher() (events.Publisher, error) {
	if rt.cfg.AMQPURL == "" {
		return events.NewLogPublisher(rt.logger), nil
	}
	publisher, err := events.DialAMQP(rt.cfg.AMQPURL, rt.cfg.AMQPExchange)
	if err != nil {
		return nil, err
	}
	rt.logger.Info("publishing booking events", "exchange", rt.cfg.AMQPExchange)
	return publisher, nil
}

type services struct {
	Bookings      *application.BookingService
	Rooms         *application.RoomService
	Accounts      *application.AccountService
	Notifications *application.NotificationService
}

func (rt *runtime) newServices(store persistence.Store, publisher events.Publisher) services {
	now := time.Now
	engine := application.NewEngine(store, now, uuid.NewString)
	notifications := application.NewNotificationService(store, uuid.NewString, now, rt.logger)

	return services{
		Bookings:      application.NewBookingService(engine, store, store, notifications, publisher, now, rt.logger),
		Rooms:         application.NewRoomServiceWithLogger(store, uuid.NewString, now, rt.logger),
		Accounts:      application.NewAccountService(store, application.NewArgon2idHasher(application.DefaultArgon2idParams), nil, uuid.NewString, now, rt.logger),
		Notifications: notifications,
	}
}

// withServices opens storage, runs fn against services publishing to the log and closes storage.
func (rt *runtime) withServices(ctx context.Context, fn func(ctx context.Context, svc services) error) error {
	store, err := rt.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			rt.logger.Error("failed to close storage", "error", cerr)
		}
	}()
	return fn(ctx, rt.newServices(store, events.NewLogPublisher(rt.logger)))
}
