package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	domainwf "github.com/garyjia/supplier-workflow/internal/domain/workflow"
	"github.com/garyjia/supplier-workflow/internal/infrastructure/persistence/sqlite"
)

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// checkVersioned inspects a versioned UPDATE. When no row matched it tells
// a missing row (NotFound) from a stale version (Conflict).
func checkVersioned(ctx context.Context, exec sqlite.Executor, result sql.Result, table string, id, expectedVersion int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return sqlite.MapError("rows affected", err)
	}
	if affected == 1 {
		return nil
	}

	var current int64
	err = exec.QueryRowContext(ctx, `SELECT version FROM `+table+` WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", domainwf.ErrNotFound, table, id)
	}
	if err != nil {
		return sqlite.MapError("read version", err)
	}
	return fmt.Errorf("%w: %s %d is at version %d, expected %d", domainwf.ErrConflict, table, id, current, expectedVersion)
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// limitOrAll maps a non-positive limit to SQLite's "no limit"
func limitOrAll(limit int) int {
	if limit <= 0 {
		return math.MaxInt32
	}
	return limit
}
