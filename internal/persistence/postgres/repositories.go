package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/example/room-booking/internal/persistence"
)

const (
	accountColumns      = `id, username, password_hash, role, created_at, updated_at`
	roomColumns         = `id, name, description, location, category, has_smart_board, created_at, updated_at`
	bookingColumns      = `id, room_id, account_id, booking_date, time_slot, description, created_at, updated_at`
	notificationColumns = `id, account_id, message, is_read, created_at`
)

func (s *Store) CreateAccount(ctx context.Context, a persistence.Account) error {
	if a.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.conn(ctx).Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.Username, a.PasswordHash, a.Role, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	return mapError(err)
}

func (s *Store) UpdateAccount(ctx context.Context, a persistence.Account) error {
	tag, err := s.conn(ctx).Exec(ctx, `
		UPDATE accounts SET username=$2, password_hash=$3, role=$4, updated_at=$5
		WHERE id=$1
	`, a.ID, a.Username, a.PasswordHash, a.Role, a.UpdatedAt.UTC())
	if err != nil {
		return mapError(err)
	}
	return expectAffected(tag)
}

func (s *Store) GetAccount(ctx context.Context, id string) (persistence.Account, error) {
	return scanAccount(s.conn(ctx).QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (persistence.Account, error) {
	return scanAccount(s.conn(ctx).QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE lower(username)=lower($1)`, username))
}

func (s *Store) ListAccounts(ctx context.Context) ([]persistence.Account, error) {
	rows, err := s.conn(ctx).Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY lower(username), id`)
	if err != nil {
		return nil, mapError(err)
	}
	return collect(rows, scanAccount)
}

// DeleteAccount removes an account with its bookings and notifications.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	return s.WithinTransaction(ctx, func(ctx context.Context) error {
		q := s.conn(ctx)
		if _, err := q.Exec(ctx, `DELETE FROM bookings WHERE account_id=$1`, id); err != nil {
			return mapError(err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM notifications WHERE account_id=$1`, id); err != nil {
			return mapError(err)
		}
		tag, err := q.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
		if err != nil {
			return mapError(err)
		}
		return expectAffected(tag)
	})
}

func (s *Store) CreateRoom(ctx context.Context, r persistence.Room) error {
	if r.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.conn(ctx).Exec(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		r.ID, r.Name, r.Description, r.Location, r.Category, r.HasSmartBoard, r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
	)
	return mapError(err)
}

func (s *Store) UpdateRoom(ctx context.Context, r persistence.Room) error {
	tag, err := s.conn(ctx).Exec(ctx, `
		UPDATE rooms SET name=$2, description=$3, location=$4, category=$5, has_smart_board=$6, updated_at=$7
		WHERE id=$1
	`, r.ID, r.Name, r.Description, r.Location, r.Category, r.HasSmartBoard, r.UpdatedAt.UTC())
	if err != nil {
		return mapError(err)
	}
	return expectAffected(tag)
}

func (s *Store) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	return scanRoom(s.conn(ctx).QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id=$1`, id))
}

func (s *Store) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := s.conn(ctx).Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	return collect(rows, scanRoom)
}

// DeleteRoom removes a room and the bookings that reference it.
func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	return s.WithinTransaction(ctx, func(ctx context.Context) error {
		q := s.conn(ctx)
		if _, err := q.Exec(ctx, `DELETE FROM bookings WHERE room_id=$1`, id); err != nil {
			return mapError(err)
		}
		tag, err := q.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, id)
		if err != nil {
			return mapError(err)
		}
		return expectAffected(tag)
	})
}

func (s *Store) CreateBooking(ctx context.Context, b persistence.Booking) error {
	if b.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.conn(ctx).Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		b.ID, b.RoomID, b.AccountID, dateOnly(b.Date), b.TimeSlot, b.Description, b.CreatedAt.UTC(), b.UpdatedAt.UTC(),
	)
	return mapError(err)
}

func (s *Store) UpdateBooking(ctx context.Context, b persistence.Booking) error {
	tag, err := s.conn(ctx).Exec(ctx, `
		UPDATE bookings SET room_id=$2, account_id=$3, booking_date=$4, time_slot=$5, description=$6, updated_at=$7
		WHERE id=$1
	`, b.ID, b.RoomID, b.AccountID, dateOnly(b.Date), b.TimeSlot, b.Description, b.UpdatedAt.UTC())
	if err != nil {
		return mapError(err)
	}
	return expectAffected(tag)
}

func (s *Store) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	return scanBooking(s.conn(ctx).QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
}

func (s *Store) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		where []string
		args  []any
	)
	if filter.AccountID != "" {
		args = append(args, filter.AccountID)
		where = append(where, "account_id=$"+strconv.Itoa(len(args)))
	}
	if filter.RoomID != "" {
		args = append(args, filter.RoomID)
		where = append(where, "room_id=$"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY booking_date, time_slot, id`

	rows, err := s.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return collect(rows, scanBooking)
}

func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(tag)
}

func (s *Store) CreateNotification(ctx context.Context, n persistence.Notification) error {
	if n.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := s.conn(ctx).Exec(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES ($1,$2,$3,$4,$5)`,
		n.ID, n.AccountID, n.Message, n.IsRead, n.CreatedAt.UTC(),
	)
	return mapError(err)
}

func (s *Store) GetNotification(ctx context.Context, id string) (persistence.Notification, error) {
	return scanNotification(s.conn(ctx).QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id=$1`, id))
}

func (s *Store) ListNotifications(ctx context.Context, accountID string, unreadOnly bool) ([]persistence.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE account_id=$1`
	if unreadOnly {
		query += ` AND NOT is_read`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.conn(ctx).Query(ctx, query, accountID)
	if err != nil {
		return nil, mapError(err)
	}
	return collect(rows, scanNotification)
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	tag, err := s.conn(ctx).Exec(ctx, `UPDATE notifications SET is_read=true WHERE id=$1`, id)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(tag)
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func scanAccount(row pgx.Row) (persistence.Account, error) {
	var a persistence.Account
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return persistence.Account{}, mapError(err)
	}
	a.CreatedAt, a.UpdatedAt = a.CreatedAt.UTC(), a.UpdatedAt.UTC()
	return a, nil
}

func scanRoom(row pgx.Row) (persistence.Room, error) {
	var r persistence.Room
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Location, &r.Category, &r.HasSmartBoard, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return persistence.Room{}, mapError(err)
	}
	r.CreatedAt, r.UpdatedAt = r.CreatedAt.UTC(), r.UpdatedAt.UTC()
	return r, nil
}

func scanBooking(row pgx.Row) (persistence.Booking, error) {
	var b persistence.Booking
	if err := row.Scan(&b.ID, &b.RoomID, &b.AccountID, &b.Date, &b.TimeSlot, &b.Description, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return persistence.Booking{}, mapError(err)
	}
	b.Date = dateOnly(b.Date)
	b.CreatedAt, b.UpdatedAt = b.CreatedAt.UTC(), b.UpdatedAt.UTC()
	return b, nil
}

func scanNotification(row pgx.Row) (persistence.Notification, error) {
	var n persistence.Notification
	if err := row.Scan(&n.ID, &n.AccountID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
		return persistence.Notification{}, mapError(err)
	}
	n.CreatedAt = n.CreatedAt.UTC()
	return n, nil
}
