package repository

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okian/bizboard/internal/domain/model"
	"github.com/okian/bizboard/pkg/logger"
)

// PostgresStore persists documents as JSONB rows behind a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	table  string
	logger logger.Logger
	closed atomic.Bool
}

// NewPostgresStore connects to dsn, verifies the connection and migrates the documents table.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	o := newOptions(opts)

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.MaxConns = int32(o.maxOpenConns) //nolint:gosec // bounded by config validation

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: connect postgres: %w", ErrUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", ErrUnavailable, err)
	}

	s := &PostgresStore{pool: pool, table: o.table, logger: o.logger}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s.logger.Info(ctx, "postgres store ready", logger.String("table", s.table))
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		collection TEXT NOT NULL,
		key TEXT NOT NULL,
		body JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (collection, key)
	)`, s.table)
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return classifyPg(fmt.Errorf("migrate postgres: %w", err))
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, collection, key string) (model.Document, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrUnavailable
	}
	var body []byte
	q := fmt.Sprintf(`SELECT body FROM %s WHERE collection = $1 AND key = $2`, s.table)
	err := s.pool.QueryRow(ctx, q, collection, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classifyPg(fmt.Errorf("get %s/%s: %w", collection, key, err))
	}
	doc, err := decode(body)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Set implements Store.
func (s *PostgresStore) Set(ctx context.Context, collection, key string, doc model.Document) error {
	if s.closed.Load() {
		return ErrUnavailable
	}
	b, err := encode(doc)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO %s (collection, key, body, updated_at) VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (collection, key) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`, s.table)
	if _, err := s.pool.Exec(ctx, q, collection, key, string(b)); err != nil {
		return classifyPg(fmt.Errorf("set %s/%s: %w", collection, key, err))
	}
	return nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, collection, key string) error {
	if s.closed.Load() {
		return ErrUnavailable
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE collection = $1 AND key = $2`, s.table)
	if _, err := s.pool.Exec(ctx, q, collection, key); err != nil {
		return classifyPg(fmt.Errorf("delete %s/%s: %w", collection, key, err))
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	if !s.closed.Swap(true) {
		s.pool.Close()
	}
	return nil
}

// classifyPg marks connection failures as ErrUnavailable. Statement errors stay retryable.
func classifyPg(err error) error {
	var ce *pgconn.ConnectError
	if errors.As(err, &ce) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
