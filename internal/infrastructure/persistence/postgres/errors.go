package postgres

import (
	"errors"
	"fmt"

	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// mapError classifies a driver error. Unique violations and serialization
// failures become ErrConflict, missing rows ErrNotFound, the rest ErrStorage.
func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", domainwf.ErrNotFound, op)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation, pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
			return fmt.Errorf("%w: %s: %s", domainwf.ErrConflict, op, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %s: %w", domainwf.ErrStorage, op, err)
}
