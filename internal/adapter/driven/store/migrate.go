package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// RunMigrations applies all pending migrations for the DB's dialect.
// It is safe to call on every startup; already-applied migrations are skipped.
// The shared connection pool stays open; any connection taken for the
// migration is returned before RunMigrations does.
func RunMigrations(ctx context.Context, db *DB) (err error) {
	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+string(db.dialect))
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, release, err := migrationDriver(ctx, db)
	if err != nil {
		_ = sourceDriver.Close()
		return err
	}
	defer func() {
		if closeErr := release(sourceDriver); closeErr != nil && err == nil {
			err = fmt.Errorf("close migrator: %w", closeErr)
		}
	}()

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(db.dialect), dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// migrationDriver builds the golang-migrate database driver for db. The
// returned release func closes the source and whatever the driver holds
// without closing db.SQL.
//
// Postgres and MySQL drivers built with WithInstance close the *sql.DB they
// were given, so they get a dedicated *sql.Conn through WithConnection
// instead. The SQLite driver holds no connection of its own and its Close
// would shut the pool, so only the source is closed.
func migrationDriver(ctx context.Context, db *DB) (database.Driver, func(source.Driver) error, error) {
	switch db.dialect {
	case DialectPostgres, DialectMySQL:
		conn, err := db.SQL.Conn(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("acquire migration connection: %w", err)
		}

		var driver database.Driver
		if db.dialect == DialectPostgres {
			driver, err = migratepostgres.WithConnection(ctx, conn, &migratepostgres.Config{})
		} else {
			driver, err = migratemysql.WithConnection(ctx, conn, &migratemysql.Config{})
		}
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("create migration db driver: %w", err)
		}

		release := func(src source.Driver) error {
			return errors.Join(src.Close(), driver.Close())
		}
		return driver, release, nil

	default:
		driver, err := migratesqlite.WithInstance(db.SQL, &migratesqlite.Config{})
		if err != nil {
			return nil, nil, fmt.Errorf("create migration db driver: %w", err)
		}

		release := func(src source.Driver) error {
			return src.Close()
		}
		return driver, release, nil
	}
}
