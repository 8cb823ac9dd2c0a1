// Package sqlite implements persistence.Store on top of modernc.org/sqlite.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite/migration"
	"github.com/example/room-booking/internal/persistence/sqlite/migrations"
)

// Store bundles the SQLite repositories behind a single connection pool.
type Store struct {
	*AccountRepository
	*RoomRepository
	*BookingRepository
	*NotificationRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

var _ persistence.Store = (*Store)(nil)

// Open connects to the database described by cfg. The schema is not touched
// until Migrate is called.
func Open(ctx context.Context, cfg migration.SQLiteConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := migration.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pool := NewConnectionPool(db, DefaultRetryConfig())
	return &Store{
		AccountRepository:      NewAccountRepository(pool),
		RoomRepository:         NewRoomRepository(pool),
		BookingRepository:      NewBookingRepository(pool),
		NotificationRepository: NewNotificationRepository(pool),
		pool:                   pool,
		logger:                 logger,
	}, nil
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	manager := migration.NewManager(
		migration.NewScanner(),
		migration.NewExecutor(s.pool.DB()),
		migrations.FS,
		".",
		s.logger,
	)
	if _, err := manager.Run(ctx); err != nil {
		return fmt.Errorf("migrate sqlite: %w", err)
	}
	return nil
}

// WithinTransaction runs fn in a database transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.pool.WithTransaction(ctx, fn)
}

// Close releases the database.
func (s *Store) Close() error {
	return s.pool.Close()
}
