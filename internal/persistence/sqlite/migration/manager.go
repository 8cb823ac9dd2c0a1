package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
)

// Manager compares available migrations with the applied ones and runs the rest.
type Manager struct {
	scanner  Scanner
	executor *Executor
	fsys     fs.FS
	dir      string
	logger   *slog.Logger
}

// NewManager wires a manager reading migrations from dir within fsys.
func NewManager(scanner Scanner, executor *Executor, fsys fs.FS, dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{scanner: scanner, executor: executor, fsys: fsys, dir: dir, logger: logger.With("component", "migration")}
}

// Status reports the current version together with applied and pending migrations.
// Applied migrations whose file content changed yield ErrChecksumMismatch.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}
	available, err := m.scanner.Scan(m.fsys, m.dir)
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, err
	}

	byVersion := make(map[int]AppliedMigration, len(applied))
	status := Status{Applied: applied}
	for _, a := range applied {
		byVersion[a.Version] = a
		if a.Version > status.CurrentVersion {
			status.CurrentVersion = a.Version
		}
	}
	for _, mig := range available {
		a, ok := byVersion[mig.Version]
		if !ok {
			status.Pending = append(status.Pending, mig)
			continue
		}
		if a.Checksum != mig.Checksum {
			return Status{}, newError(mig, "verify checksum", ErrChecksumMismatch)
		}
	}
	return status, nil
}

// Run applies every pending migration in version order and returns how many ran.
func (m *Manager) Run(ctx context.Context) (int, error) {
	status, err := m.Status(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to determine migration status", "error", err)
		return 0, err
	}
	if len(status.Pending) == 0 {
		m.logger.DebugContext(ctx, "schema up to date", "version", status.CurrentVersion)
		return 0, nil
	}

	m.logger.InfoContext(ctx, "applying migrations", "current_version", status.CurrentVersion, "pending", len(status.Pending))
	for i, mig := range status.Pending {
		if err := m.executor.Apply(ctx, mig); err != nil {
			m.logger.ErrorContext(ctx, "migration failed", "version", mig.Version, "file", mig.Name, "error", err)
			return i, fmt.Errorf("apply migrations: %w", err)
		}
		m.logger.InfoContext(ctx, "migration applied", "version", mig.Version, "description", mig.Description)
	}
	return len(status.Pending), nil
}
