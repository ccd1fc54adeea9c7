// Package kv provides a string-keyed value store persisted in the
// review_state table of the configured database.
package kv

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/walacakra/pkg/database"
	"github.com/JaimeStill/walacakra/pkg/lifecycle"
	"github.com/JaimeStill/walacakra/pkg/repository"
)

const schema = `
	CREATE TABLE IF NOT EXISTS review_state (
		state_key   TEXT PRIMARY KEY,
		state_value TEXT NOT NULL,
		updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

// Store reads and writes opaque values by key.
type Store interface {
	// Start registers a startup hook that ensures the backing table exists.
	Start(lc *lifecycle.Coordinator) error
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes the value stored under key, or returns ErrNotFound.
	Delete(ctx context.Context, key string) error
}

type store struct {
	db      *sql.DB
	logger  *slog.Logger
	queries queries
}

type queries struct {
	get    string
	put    string
	delete string
}

// New creates a Store over db. The driver selects the placeholder dialect.
func New(db *sql.DB, driver string, logger *slog.Logger) Store {
	return &store{
		db:      db,
		logger:  logger.With("system", "kv"),
		queries: dialect(driver),
	}
}

func dialect(driver string) queries {
	if driver == database.DriverPostgres {
		return queries{
			get: "SELECT state_value FROM review_state WHERE state_key = $1",
			put: `INSERT INTO review_state (state_key, state_value, updated_at)
				VALUES ($1, $2, CURRENT_TIMESTAMP)
				ON CONFLICT (state_key) DO UPDATE
				SET state_value = excluded.state_value, updated_at = excluded.updated_at`,
			delete: "DELETE FROM review_state WHERE state_key = $1",
		}
	}
	return queries{
		get: "SELECT state_value FROM review_state WHERE state_key = ?",
		put: `INSERT INTO review_state (state_key, state_value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (state_key) DO UPDATE
			SET state_value = excluded.state_value, updated_at = excluded.updated_at`,
		delete: "DELETE FROM review_state WHERE state_key = ?",
	}
}

// Migrate creates the backing table when it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create review_state: %w", err)
	}
	return nil
}

func (s *store) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := Migrate(lc.Context(), s.db); err != nil {
			s.logger.Error("kv schema initialization failed", "error", err)
			return
		}
		s.logger.Info("kv store ready")
	})
	return nil
}

func (s *store) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	value, err := repository.QueryOne(ctx, s.db, s.queries.get, []any{key}, scanValue)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound)
	}
	return []byte(value), nil
}

func (s *store) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}

	if _, err := s.db.ExecContext(ctx, s.queries.put, key, string(value)); err != nil {
		return fmt.Errorf("put %s: %w", key, repository.MapError(err, ErrNotFound))
	}
	return nil
}

func (s *store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := repository.ExecExpectOne(ctx, s.db, s.queries.delete, key); err != nil {
		return repository.MapError(err, ErrNotFound)
	}
	return nil
}

func scanValue(s repository.Scanner) (string, error) {
	var v string
	err := s.Scan(&v)
	return v, err
}
