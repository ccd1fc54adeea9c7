package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUndefinedTableCode = "42P01"

// ErrMissingTable indicates the schema has not been migrated.
var ErrMissingTable = errors.New("table does not exist")

// MapError translates database errors to domain errors.
// It maps sql.ErrNoRows to notFoundErr and a PostgreSQL undefined table
// error (42P01) or a SQLite "no such table" error to ErrMissingTable.
// Other errors are returned unchanged.
func MapError(err error, notFoundErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTableCode {
		return ErrMissingTable
	}

	if strings.Contains(err.Error(), "no such table") {
		return ErrMissingTable
	}

	return err
}
