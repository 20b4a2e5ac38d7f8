package store

import (
	"context"
	"embed"
	"fmt"

	"github.com/pkg/errors"
)

//go:embed migration/sqlite/LATEST.sql migration/postgres/LATEST.sql
var migrationFS embed.FS

// Migrate applies the latest schema if the database is uninitialized.
// The schema is a single LATEST.sql per driver; incremental migrations
// are not needed yet.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check database initialization")
	}
	if initialized {
		return nil
	}

	buf, err := migrationFS.ReadFile(fmt.Sprintf("migration/%s/LATEST.sql", s.profile.Driver))
	if err != nil {
		return errors.Wrapf(err, "failed to read latest schema for driver %s", s.profile.Driver)
	}

	if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}
	return nil
}
