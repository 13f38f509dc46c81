package history

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// journalVersion is stored in SQLite's user_version header field.
const journalVersion = 1

// ErrSchemaMismatch is returned when the journal was written by a different
// version of autoname.
var ErrSchemaMismatch = errors.New("history journal version mismatch")

// initSchema creates the journal tables in a fresh database (user_version 0)
// and otherwise only checks that the stored version is the one this build
// writes. Entries are an audit trail, so there are no in-place migrations.
func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read journal version: %w", err)
	}
	switch version {
	case journalVersion:
		return nil
	case 0:
		return s.bootstrap(ctx)
	default:
		return fmt.Errorf("%w: %s is version %d, this build writes %d; move it aside to start a new journal",
			ErrSchemaMismatch, s.path, version, journalVersion)
	}
}

func (s *Store) bootstrap(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal bootstrap: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create journal tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", journalVersion)); err != nil {
		return fmt.Errorf("stamp journal version: %w", err)
	}
	return tx.Commit()
}
