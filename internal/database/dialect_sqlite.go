package database

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQLite driver names
const (
	driverSQLiteCgo  = "sqlite3" // github.com/mattn/go-sqlite3
	driverSQLitePure = "sqlite"  // modernc.org/sqlite
)

// SQLiteDialect implements Dialect for SQLite. The same dialect serves the cgo
// driver and the pure Go driver.
type SQLiteDialect struct {
	driver string
}

// NewSQLiteDialect creates a SQLite dialect using the cgo driver
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{driver: driverSQLiteCgo}
}

// NewPureSQLiteDialect creates a SQLite dialect using the pure Go driver, for
// builds without cgo
func NewPureSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{driver: driverSQLitePure}
}

func (d *SQLiteDialect) DriverName() string {
	return d.driver
}

func (d *SQLiteDialect) DSN(config DialectConfig) string {
	return config.Path
}

func (d *SQLiteDialect) RewriteQuery(query string) string {
	// SQLite uses ? placeholders, no rewrite needed
	return query
}

func (d *SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	// A single writer avoids SQLITE_BUSY between the store's concurrent fetches
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return err
	}
	return nil
}

func (d *SQLiteDialect) MigrationsSubdir() string {
	return "sqlite"
}

func (d *SQLiteDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT UNIQUE NOT NULL,
			executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *SQLiteDialect) UpsertSettings() string {
	return `INSERT INTO settings (owner_id, name, value) VALUES (?, ?, ?)
		ON CONFLICT (owner_id, name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`
}
