package errx

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// WrapDatabase maps pgx errors to the unified AppError type. Deadline errors
// keep their own message so callers can distinguish timeouts from plain
// execution failures.
func WrapDatabase(err error) *AppError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return New(err, http.StatusGatewayTimeout, DatabaseTimeoutMessage)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return New(err, http.StatusNotFound, DatabaseErrorMessage)
	}

	return New(err, http.StatusBadGateway, DatabaseErrorMessage)
}
