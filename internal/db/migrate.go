package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/ayatskii/panel-sub002/internal/db/migrations"
)

// ErrStateTooNew means the state file was migrated by a newer panelctl.
var ErrStateTooNew = errors.New("state file was written by a newer panelctl")

// RunMigrations applies every migration above the file's user_version, one
// transaction per migration. A file already at the latest version is left alone.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("state database is nil")
	}
	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	all := migrations.All()
	if latest := all[len(all)-1].Version; current > latest {
		return fmt.Errorf("%w (schema %d, this build knows %d)", ErrStateTooNew, current, latest)
	}

	for _, m := range all {
		if m.Version <= current {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

// SchemaVersion reports the last migration applied to db.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	v, err := pragma(ctx, db, "user_version")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse user_version %q: %w", v, err)
	}
	return n, nil
}

func apply(ctx context.Context, db *sql.DB, m migrations.Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
	}
	// user_version is part of the database header, so it commits with the schema change.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
		return fmt.Errorf("migration %d (%s): set user_version: %w", m.Version, m.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d (%s): commit: %w", m.Version, m.Name, err)
	}
	return nil
}
