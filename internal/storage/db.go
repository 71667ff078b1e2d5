package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DB wraps a SQL connection together with its dialect.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// Open connects to driver and runs migrations. For SQLite dsn is a file
// path; its directory is created if needed.
func Open(driver, dsn string) (*DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("open storage: unsupported driver %q", driver)
	}

	var conn *sql.DB
	var err error
	switch driver {
	case DriverSQLite:
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
		conn, err = sql.Open("sqlite", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite only supports one writer
		conn.SetMaxOpenConns(1)
	default:
		if driver == DriverMySQL {
			if dsn, err = mysqlDSN(dsn); err != nil {
				return nil, err
			}
		}
		conn, err = sql.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", driver, err)
		}
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(10 * time.Minute)
	}

	db := &DB{conn: conn, dialect: d}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the driver name the database was opened with.
func (db *DB) Driver() string {
	return db.dialect.name
}

// ─── Dialects ───

type dialect struct {
	name       string
	numbered   bool // $1, $2 placeholders instead of ?
	migrations []string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name: DriverSQLite,
		migrations: []string{
			`CREATE TABLE IF NOT EXISTS documents (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL DEFAULT '',
				body TEXT NOT NULL DEFAULT '{}',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at)`,
		},
	},
	DriverPostgres: {
		name:     DriverPostgres,
		numbered: true,
		migrations: []string{
			`CREATE TABLE IF NOT EXISTS documents (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL DEFAULT '',
				body TEXT NOT NULL DEFAULT '{}',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at)`,
		},
	},
	DriverMySQL: {
		name: DriverMySQL,
		migrations: []string{
			`CREATE TABLE IF NOT EXISTS documents (
				id VARCHAR(64) PRIMARY KEY,
				title VARCHAR(512) NOT NULL DEFAULT '',
				body LONGTEXT NOT NULL,
				created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
				updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
				INDEX idx_documents_updated (updated_at)
			)`,
		},
	},
}

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(q string) string {
	if !d.numbered {
		return q
	}
	var sb strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (db *DB) migrate() error {
	for _, m := range db.dialect.migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", firstLine(m), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// mysqlDSN forces parseTime so DATETIME columns scan into time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
