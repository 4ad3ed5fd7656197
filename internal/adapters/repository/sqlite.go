package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/pkg/logger"
)

// SQLiteStore persists documents as JSON text in a single sqlite table.
type SQLiteStore struct {
	db     *sql.DB
	table  string
	logger logger.Logger
	closed atomic.Bool

	getSQL    string
	setSQL    string
	deleteSQL string
}

// NewSQLiteStore opens (and migrates) the database at path. Use ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := newOptions(opts)

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d", path, o.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %s: %w", ErrUnavailable, path, err)
	}
	db.SetMaxOpenConns(o.maxOpenConns)
	if path == ":memory:" {
		// each connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{
		db:        db,
		table:     o.table,
		logger:    o.logger,
		getSQL:    fmt.Sprintf(`SELECT body FROM %s WHERE collection = ? AND key = ?`, o.table),
		setSQL:    fmt.Sprintf(`INSERT INTO %s (collection, key, body, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(collection, key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`, o.table),
		deleteSQL: fmt.Sprintf(`DELETE FROM %s WHERE collection = ? AND key = ?`, o.table),
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.logger.Info(ctx, "sqlite store ready", logger.String("path", path), logger.String("table", s.table))
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		collection TEXT NOT NULL,
		key TEXT NOT NULL,
		body TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (collection, key)
	)`, s.table)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return s.classify(fmt.Errorf("migrate sqlite: %w", err))
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, collection, key string) (model.Document, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrUnavailable
	}
	var body string
	err := s.db.QueryRowContext(ctx, s.getSQL, collection, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.classify(fmt.Errorf("get %s/%s: %w", collection, key, err))
	}
	doc, err := decode([]byte(body))
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Set implements Store.
func (s *SQLiteStore) Set(ctx context.Context, collection, key string, doc model.Document) error {
	if s.closed.Load() {
		return ErrUnavailable
	}
	b, err := encode(doc)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.setSQL, collection, key, string(b), time.Now().UTC()); err != nil {
		return s.classify(fmt.Errorf("set %s/%s: %w", collection, key, err))
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, collection, key string) error {
	if s.closed.Load() {
		return ErrUnavailable
	}
	if _, err := s.db.ExecContext(ctx, s.deleteSQL, collection, key); err != nil {
		return s.classify(fmt.Errorf("delete %s/%s: %w", collection, key, err))
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// classify marks errors that mean the database file itself cannot be used.
// Busy and locked errors stay retryable.
func (s *SQLiteStore) classify(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.Code {
		case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrCorrupt, sqlite3.ErrReadonly:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
	}
	return err
}
