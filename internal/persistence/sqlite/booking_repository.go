package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/room-booking/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
// Room and account references are not enforced with foreign keys; the
// booking rules validate them on every mutation.
type BookingRepository struct {
	pool *ConnectionPool
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, room_id, account_id, booking_date, time_slot, description, created_at, updated_at`

// CreateBooking inserts a new booking.
func (r *BookingRepository) CreateBooking(ctx context.Context, b persistence.Booking) error {
	if b.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.conn(ctx).ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.RoomID,
		b.AccountID,
		formatDate(b.Date),
		b.TimeSlot,
		nullString(b.Description),
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
	)
	return mapError(err)
}

// UpdateBooking overwrites the mutable fields of an existing booking.
func (r *BookingRepository) UpdateBooking(ctx context.Context, b persistence.Booking) error {
	result, err := r.pool.conn(ctx).ExecContext(ctx, `
		UPDATE bookings
		SET room_id = ?, account_id = ?, booking_date = ?, time_slot = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		b.RoomID,
		b.AccountID,
		formatDate(b.Date),
		b.TimeSlot,
		nullString(b.Description),
		formatTime(b.UpdatedAt),
		b.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

// GetBooking retrieves a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	row := r.pool.conn(ctx).QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBooking(row)
}

// ListBookings returns bookings matching filter ordered by date, slot and ID.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		where []string
		args  []any
	)
	if filter.AccountID != "" {
		where = append(where, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.RoomID != "" {
		where = append(where, "room_id = ?")
		args = append(args, filter.RoomID)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY booking_date ASC, time_slot ASC, id ASC"

	rows, err := r.pool.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return bookings, nil
}

// DeleteBooking removes a booking by ID.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	result, err := r.pool.conn(ctx).ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

func scanBooking(s scanner) (persistence.Booking, error) {
	var (
		b                          persistence.Booking
		date, createdAt, updatedAt string
		description                sql.NullString
	)
	if err := s.Scan(
		&b.ID,
		&b.RoomID,
		&b.AccountID,
		&date,
		&b.TimeSlot,
		&description,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Booking{}, mapError(err)
	}

	var err error
	if b.Date, err = parseDate(date); err != nil {
		return persistence.Booking{}, fmt.Errorf("parse bookings.booking_date: %w", err)
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("parse bookings.created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("parse bookings.updated_at: %w", err)
	}
	if description.Valid {
		value := description.String
		b.Description = &value
	}
	return b, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
