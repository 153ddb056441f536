// Package repo implements the data persistence layer for todo lists and
// items, backed by GORM. This file contains database bootstrapping helpers
// for SQLite (pure Go driver) and PostgreSQL (pgx), plus schema migrations.
package repo

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-todo-backend/internal/domain"
)

// Options tunes the connection pool behind an opened database. Zero values
// keep the driver defaults applied by OpenSQLite / OpenPostgres.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	// Tracing installs the OpenTelemetry GORM plugin so every statement
	// becomes a child span of the request.
	Tracing bool
}

// IsPostgresDSN reports whether dsn addresses a PostgreSQL server rather
// than a SQLite file.
func IsPostgresDSN(dsn string) bool {
	d := strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(d, "postgres://") || strings.HasPrefix(d, "postgresql://")
}

// Open connects to the database named by dsn. postgres:// and postgresql://
// URLs go through the pgx driver; anything else is treated as a SQLite path.
func Open(dsn string, opts Options) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	if IsPostgresDSN(dsn) {
		db, err = OpenPostgres(dsn)
	} else {
		db, err = OpenSQLite(dsn)
	}
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		if opts.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxIdleTime > 0 {
			sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
		}
		if opts.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	if opts.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// sqlitePragmas are applied by the driver to every pooled connection, not
// just the first one.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// sqliteDSN appends sqlitePragmas to path as _pragma query parameters.
func sqliteDSN(path string) string {
	var b strings.Builder
	b.WriteString(path)
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	for _, p := range sqlitePragmas {
		b.WriteString(sep)
		b.WriteString("_pragma=")
		b.WriteString(p)
		sep = "&"
	}
	return b.String()
}

// OpenSQLite opens (or creates) a SQLite database file with WAL journaling
// and foreign keys enforced.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)").
	file, _, _ := strings.Cut(path, "?")
	if dir := filepath.Dir(file); dir != "." && !strings.HasPrefix(file, "file:") {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// OpenPostgres connects to PostgreSQL through pgx. The pool defaults mirror
// OpenSQLite so both backends behave alike under load.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the todo_list and todo_item tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.TodoList{},
		&domain.Item{},
	)
}
