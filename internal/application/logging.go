package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel, rule and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	}

	var ruleErr *booking.Error
	if errors.As(err, &ruleErr) {
		return ruleErr.Kind.String()
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}

// logOutcome records the result of a service operation at the appropriate level.
// Rule rejections are expected outcomes and are logged as warnings.
func logOutcome(ctx context.Context, logger *slog.Logger, err error, failureMsg, successMsg string) {
	if err == nil {
		logger.InfoContext(ctx, successMsg)
		return
	}
	var ruleErr *booking.Error
	if errors.As(err, &ruleErr) {
		logger.WarnContext(ctx, failureMsg, "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.ErrorContext(ctx, failureMsg, "error", err, "error_kind", ErrorKind(err))
}
