package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMigrationFile indicates a file that does not follow the naming convention.
	ErrInvalidMigrationFile = errors.New("invalid migration file")
	// ErrDuplicateVersion indicates two files share a version number.
	ErrDuplicateVersion = errors.New("duplicate migration version")
	// ErrChecksumMismatch indicates an applied migration whose file content changed.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
	// ErrEmptyMigration indicates a migration without statements.
	ErrEmptyMigration = errors.New("migration contains no statements")
)

// Error wraps a migration failure with the version, file and step involved.
type Error struct {
	Version   int
	Name      string
	Operation string
	Err       error
}

func (e *Error) Error() string {
	if e.Version > 0 {
		return fmt.Sprintf("migration %03d (%s): %s: %v", e.Version, e.Name, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration %s: %s: %v", e.Name, e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(m Migration, operation string, err error) *Error {
	return &Error{Version: m.Version, Name: m.Name, Operation: operation, Err: err}
}
