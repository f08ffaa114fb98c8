// Package store implements the RepoStore port on a relational database using bun.
// The dialect (SQLite, PostgreSQL or MySQL) is chosen from the connection string.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL backend behind a DB.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// Options tunes query logging on a DB.
type Options struct {
	// QueryLog prints every query through bundebug.
	QueryLog bool
	// SlowQueryThreshold logs queries slower than this. Zero disables it.
	SlowQueryThreshold time.Duration
	Logger             *slog.Logger
}

// DB is a bun database handle plus the dialect it was opened with.
type DB struct {
	Bun     *bun.DB
	SQL     *sql.DB
	dialect Dialect
}

// Open connects to the database named by dsn and verifies the connection.
//
// postgres:// and postgresql:// URLs use lib/pq, mysql:// URLs use
// go-sql-driver/mysql, and everything else (sqlite://path, file:path or a bare
// path) is an SQLite file opened with WAL mode, a busy timeout, synchronous
// NORMAL and foreign keys enabled.
func Open(ctx context.Context, dsn string, opts Options) (*DB, error) {
	dialect, driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	var sqldb *sql.DB
	switch dialect {
	case DialectPostgres:
		sqldb, err = sql.Open("postgres", driverDSN)
	case DialectMySQL:
		sqldb, err = sql.Open("mysql", driverDSN)
	default:
		sqldb, err = sql.Open("sqlite", driverDSN)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// A single connection avoids "database is locked" errors on writes.
		sqldb.SetMaxOpenConns(1)
	} else {
		sqldb.SetMaxOpenConns(25)
		sqldb.SetMaxIdleConns(5)
		sqldb.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqldb.PingContext(pingCtx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	return newDB(sqldb, dialect, opts), nil
}

// newDB wraps an open *sql.DB in bun with the dialect and query hooks.
func newDB(sqldb *sql.DB, dialect Dialect, opts Options) *DB {
	var bdb *bun.DB
	switch dialect {
	case DialectPostgres:
		bdb = bun.NewDB(sqldb, pgdialect.New())
	case DialectMySQL:
		bdb = bun.NewDB(sqldb, mysqldialect.New())
	default:
		bdb = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if opts.QueryLog {
		bdb.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}

	if opts.SlowQueryThreshold > 0 {
		logger := opts.Logger
		if logger == nil {
			logger = slog.Default()
		}
		bdb.AddQueryHook(&slowQueryHook{threshold: opts.SlowQueryThreshold, logger: logger})
	}

	return &DB{Bun: bdb, SQL: sqldb, dialect: dialect}
}

// Dialect returns the backend this DB was opened with.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	if err := db.Bun.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// parseDSN maps a connection string to a dialect and the DSN its driver expects.
func parseDSN(dsn string) (Dialect, string, error) {
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("empty database connection string")

	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil

	case strings.HasPrefix(dsn, "mysql://"):
		cfg, err := mysql.ParseDSN(strings.TrimPrefix(dsn, "mysql://"))
		if err != nil {
			return "", "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		return DialectMySQL, cfg.FormatDSN(), nil

	default:
		path := strings.TrimPrefix(dsn, "sqlite://")
		path = strings.TrimPrefix(path, "file:")
		if path == "" {
			return "", "", fmt.Errorf("empty sqlite path in %q", dsn)
		}

		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return DialectSQLite, fmt.Sprintf(
			"file:%s%s_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
			path, sep,
		), nil
	}
}
