package postgres

import (
	"embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	// Necessary to load the postgres driver used by migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationsTable is the table used to keep track of the applied schema migrations.
//
// A dedicated table avoids clashing with other golang-migrate users
// running on the same database.
const MigrationsTable = "eventcore_schema_migrations"

//go:embed migrations/*.sql
var fs embed.FS

func newMigrate(dsn string) (*migrate.Migrate, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid dsn format, %w", err)
	}

	q := u.Query()
	q.Set("x-migrations-table", MigrationsTable)
	u.RawQuery = q.Encode()

	d, err := iofs.New(fs, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations, %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance, %w", err)
	}

	return m, nil
}

// RunMigrations creates or updates the event_streams and events tables
// used by EventStore.
//
// Call it in the entrypoint of your application, before building an EventStore.
func RunMigrations(dsn string) error {
	m, err := newMigrate(dsn)
	if err != nil {
		return fmt.Errorf("postgres.RunMigrations: %w", err)
	}

	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres.RunMigrations: failed to execute migrations, %w", err)
	}

	return nil
}

// DropMigrations rolls back every migration applied by RunMigrations,
// dropping the Event Store tables.
func DropMigrations(dsn string) error {
	m, err := newMigrate(dsn)
	if err != nil {
		return fmt.Errorf("postgres.DropMigrations: %w", err)
	}

	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres.DropMigrations: failed to roll back migrations, %w", err)
	}

	return nil
}
