package sqlite

import (
	"context"
	"fmt"

	"github.com/example/room-booking/internal/persistence"
)

// AccountRepository implements persistence.AccountRepository using SQLite.
type AccountRepository struct {
	pool *ConnectionPool
}

// NewAccountRepository creates a new SQLite account repository.
func NewAccountRepository(pool *ConnectionPool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, username, password_hash, role, created_at, updated_at`

// CreateAccount inserts a new account. Usernames are unique regardless of case.
func (r *AccountRepository) CreateAccount(ctx context.Context, a persistence.Account) error {
	if a.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.pool.conn(ctx).ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Username, a.PasswordHash, a.Role, formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	return mapError(err)
}

// UpdateAccount overwrites an existing account.
func (r *AccountRepository) UpdateAccount(ctx context.Context, a persistence.Account) error {
	result, err := r.pool.conn(ctx).ExecContext(ctx, `
		UPDATE accounts
		SET username = ?, password_hash = ?, role = ?, updated_at = ?
		WHERE id = ?`,
		a.Username, a.PasswordHash, a.Role, formatTime(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectAffected(result)
}

// GetAccount retrieves an account by ID.
func (r *AccountRepository) GetAccount(ctx context.Context, id string) (persistence.Account, error) {
	row := r.pool.conn(ctx).QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// GetAccountByUsername retrieves an account by username, ignoring case.
func (r *AccountRepository) GetAccountByUsername(ctx context.Context, username string) (persistence.Account, error) {
	row := r.pool.conn(ctx).QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ? COLLATE NOCASE`, username)
	return scanAccount(row)
}

// ListAccounts returns accounts ordered by username.
func (r *AccountRepository) ListAccounts(ctx context.Context) ([]persistence.Account, error) {
	rows, err := r.pool.conn(ctx).QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY username COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var accounts []persistence.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return accounts, nil
}

// DeleteAccount removes an account with its bookings and notifications.
func (r *AccountRepository) DeleteAccount(ctx context.Context, id string) error {
	return r.pool.WithTransaction(ctx, func(ctx context.Context) error {
		conn := r.pool.conn(ctx)
		for _, stmt := range []string{
			`DELETE FROM bookings WHERE account_id = ?`,
			`DELETE FROM notifications WHERE account_id = ?`,
		} {
			if _, err := conn.ExecContext(ctx, stmt, id); err != nil {
				return mapError(err)
			}
		}
		result, err := conn.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
		if err != nil {
			return mapError(err)
		}
		return expectAffected(result)
	})
}

func scanAccount(s scanner) (persistence.Account, error) {
	var (
		a                    persistence.Account
		createdAt, updatedAt string
	)
	if err := s.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &createdAt, &updatedAt); err != nil {
		return persistence.Account{}, mapError(err)
	}

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Account{}, fmt.Errorf("parse accounts.created_at: %w", err)
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Account{}, fmt.Errorf("parse accounts.updated_at: %w", err)
	}
	return a, nil
}
