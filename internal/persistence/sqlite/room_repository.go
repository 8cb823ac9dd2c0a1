package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool *ConnectionPool
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

const roomColumns = `id, name, description, location, category, has_smart_board, created_at, updated_at`

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.conn(ctx).ExecContext(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.Name,
		room.Description,
		room.Location,
		room.Category,
		room.HasSmartBoard,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return mapError(err)
}

// UpdateRoom overwrites an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	result, err := r.pool.conn(ctx).ExecContext(ctx, `
		UPDATE rooms
		SET name = ?, description = ?, location = ?, category = ?, has_smart_board = ?, updated_at = ?
		WHERE id = ?`,
		room.Name,
		room.Description,
		room.Location,
		room.Category,
		room.HasSmartBoard,
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

// GetRoom retrieves a room by ID.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	row := r.pool.conn(ctx).QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	return scanRoom(row)
}

// ListRooms returns all rooms ordered by name then ID.
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.pool.conn(ctx).QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room and the bookings that reference it.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	return r.pool.WithTransaction(ctx, func(ctx context.Context) error {
		conn := r.pool.conn(ctx)
		if _, err := conn.ExecContext(ctx, `DELETE FROM bookings WHERE room_id = ?`, id); err != nil {
			return mapError(err)
		}
		result, err := conn.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
		if err != nil {
			return mapError(err)
		}
		return expectAffected(result)
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(s scanner) (persistence.Room, error) {
	var (
		room               persistence.Room
		createdAt, updated string
	)
	if err := s.Scan(
		&room.ID,
		&room.Name,
		&room.Description,
		&room.Location,
		&room.Category,
		&room.HasSmartBoard,
		&createdAt,
		&updated,
	); err != nil {
		return persistence.Room{}, mapError(err)
	}

	var err error
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, fmt.Errorf("parse rooms.created_at: %w", err)
	}
	if room.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Room{}, fmt.Errorf("parse rooms.updated_at: %w", err)
	}
	return room, nil
}

func expectAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

const dateLayout = "2006-01-02"

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func formatDate(t time.Time) string {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(dateLayout)
}

func parseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, time.UTC)
}
