package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
)

// AccountService manages accounts and verifies their credentials.
type AccountService struct {
	accounts       persistence.AccountRepository
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	idGenerator    func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewAccountService constructs an account service. A nil hasher or verifier
// selects argon2id with DefaultArgon2idParams.
func NewAccountService(accounts persistence.AccountRepository, hasher PasswordHasher, verifier PasswordVerifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AccountService {
	if hasher == nil {
		hasher = NewArgon2idHasher(DefaultArgon2idParams)
	}
	if verifier == nil {
		verifier = VerifyPassword
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AccountService{
		accounts:       accounts,
		hashPassword:   hasher,
		verifyPassword: verifier,
		idGenerator:    idGenerator,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *AccountService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AccountService", operation, attrs...)
}

// CreateAccount registers a new account. Only administrators may create accounts.
func (s *AccountService) CreateAccount(ctx context.Context, params CreateAccountParams) (account Account, err error) {
	username := strings.TrimSpace(params.Input.Username)
	logger := s.loggerWith(ctx, "CreateAccount",
		"principal_id", params.Principal.AccountID,
		"username", username,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create account", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("account_id", account.ID, "role", string(account.Role)).InfoContext(ctx, "account created")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	role := params.Input.Role
	if role == "" {
		role = booking.RoleGeneric
	}

	vErr := validateAccountFields(username, role)
	if len(params.Input.Password) < MinPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(params.Input.Password)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	now := s.now().UTC()
	record := persistence.Account{
		ID:           s.idGenerator(),
		Username:     username,
		PasswordHash: hash,
		Role:         string(role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = s.accounts.CreateAccount(ctx, record); err != nil {
		err = mapAccountRepoError(err)
		return
	}
	account = accountFromRecord(record)
	return
}

// UpdateAccount renames an account or changes its role. Administrators only.
func (s *AccountService) UpdateAccount(ctx context.Context, params UpdateAccountParams) (account Account, err error) {
	logger := s.loggerWith(ctx, "UpdateAccount",
		"principal_id", params.Principal.AccountID,
		"account_id", params.AccountID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update account", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "account updated")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	username := strings.TrimSpace(params.Username)
	if vErr := validateAccountFields(username, params.Role); vErr.HasErrors() {
		err = vErr
		return
	}

	var record persistence.Account
	record, err = s.accounts.GetAccount(ctx, params.AccountID)
	if err != nil {
		err = mapAccountRepoError(err)
		return
	}
	record.Username = username
	record.Role = string(params.Role)
	record.UpdatedAt = s.now().UTC()

	if err = s.accounts.UpdateAccount(ctx, record); err != nil {
		err = mapAccountRepoError(err)
		return
	}
	account = accountFromRecord(record)
	return
}

// DeleteAccount removes an account together with its bookings and notifications.
func (s *AccountService) DeleteAccount(ctx context.Context, principal Principal, accountID string) error {
	if !principal.IsAdmin() {
		return ErrUnauthorized
	}
	logger := s.loggerWith(ctx, "DeleteAccount", "principal_id", principal.AccountID, "account_id", accountID)
	if err := s.accounts.DeleteAccount(ctx, accountID); err != nil {
		err = mapAccountRepoError(err)
		logger.ErrorContext(ctx, "failed to delete account", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "account deleted")
	return nil
}

// GetAccount returns an account to itself or to an administrator.
func (s *AccountService) GetAccount(ctx context.Context, principal Principal, accountID string) (Account, error) {
	if principal.AccountID != accountID && !principal.IsAdmin() {
		return Account{}, ErrUnauthorized
	}
	record, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return Account{}, mapAccountRepoError(err)
	}
	return accountFromRecord(record), nil
}

// ListAccounts returns every account ordered by username. Administrators only.
func (s *AccountService) ListAccounts(ctx context.Context, principal Principal) ([]Account, error) {
	if !principal.IsAdmin() {
		return nil, ErrUnauthorized
	}
	records, err := s.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(records))
	for _, r := range records {
		out = append(out, accountFromRecord(r))
	}
	return out, nil
}

// Authenticate verifies a username and password. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (account Account, err error) {
	username = strings.TrimSpace(username)
	logger := s.loggerWith(ctx, "Authenticate", "username", username)
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("account_id", account.ID).InfoContext(ctx, "authentication succeeded")
	}()

	if username == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var record persistence.Account
	record, err = s.accounts.GetAccountByUsername(ctx, username)
	if errors.Is(err, persistence.ErrNotFound) {
		err = ErrInvalidCredentials
		return
	}
	if err != nil {
		return
	}

	if verr := s.verifyPassword(record.PasswordHash, password); verr != nil {
		if errors.Is(verr, ErrInvalidCredentials) {
			err = ErrInvalidCredentials
		} else {
			err = fmt.Errorf("verify password: %w", verr)
		}
		return
	}
	account = accountFromRecord(record)
	return
}

// ResolvePrincipal loads the principal for an account id. Unknown accounts are unauthorized.
func (s *AccountService) ResolvePrincipal(ctx context.Context, accountID string) (Principal, error) {
	if strings.TrimSpace(accountID) == "" {
		return Principal{}, ErrUnauthorized
	}
	record, err := s.accounts.GetAccount(ctx, accountID)
	if errors.Is(err, persistence.ErrNotFound) {
		return Principal{}, ErrUnauthorized
	}
	if err != nil {
		return Principal{}, err
	}
	return Principal{AccountID: record.ID, Role: roleFromRecord(record.Role)}, nil
}

func validateAccountFields(username string, role booking.Role) *ValidationError {
	vErr := &ValidationError{}
	if username == "" {
		vErr.add("username", "username is required")
	}
	if !role.Valid() {
		vErr.add("role", "role must be administrator, teacher, student or generic")
	}
	return vErr
}

func accountFromRecord(r persistence.Account) Account {
	return Account{
		ID:        r.ID,
		Username:  r.Username,
		Role:      roleFromRecord(r.Role),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// roleFromRecord treats unknown stored roles as generic.
func roleFromRecord(value string) booking.Role {
	role, err := booking.ParseRole(value)
	if err != nil {
		return booking.RoleGeneric
	}
	return role
}

func mapAccountRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	}
	return err
}
