package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/mrz1836/lockgate/internal/store/migrations"
)

// sqliteOpTimeout bounds each statement so a locked database cannot hang
// the caller.
const sqliteOpTimeout = 5 * time.Second

// SQLiteBackend keeps records in a lock_kv table.
type SQLiteBackend struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteBackend opens (or creates) the database at dsn and applies the
// embedded migrations. A plain file path gets its directory created.
func NewSQLiteBackend(ctx context.Context, dsn string) (*SQLiteBackend, error) {
	if dsn == "" {
		return nil, errors.New("sqlite dsn is empty")
	}
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), stateDirPerm); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases and write ordering consistent.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteBackend{db: db, now: time.Now}, nil
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("preparing migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Name returns "sqlite".
func (b *SQLiteBackend) Name() string { return "sqlite" }

// Get reads a record row.
func (b *SQLiteBackend) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()

	var value []byte
	err := b.db.QueryRowContext(ctx, `SELECT value FROM lock_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get lock_kv[%s]: %w", key, err)
	}
	return value, true, nil
}

// Put upserts a record row.
func (b *SQLiteBackend) Put(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()

	_, err := b.db.ExecContext(ctx, `
		INSERT INTO lock_kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, b.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set lock_kv[%s]: %w", key, err)
	}
	return nil
}

// Delete removes a record row.
func (b *SQLiteBackend) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()

	if _, err := b.db.ExecContext(ctx, `DELETE FROM lock_kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete lock_kv[%s]: %w", key, err)
	}
	return nil
}

// UpdatedAt reports when a record was last written.
func (b *SQLiteBackend) UpdatedAt(key string) (time.Time, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()

	var secs int64
	err := b.db.QueryRowContext(ctx, `SELECT updated_at FROM lock_kv WHERE key = ?`, key).Scan(&secs)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get lock_kv[%s].updated_at: %w", key, err)
	}
	return time.Unix(secs, 0), true, nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
