package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresPersister stores snapshots as JSONB rows.
type PostgresPersister struct {
	pool pgxPool
}

const createAppStateTable = `CREATE TABLE IF NOT EXISTS app_state (
	key TEXT PRIMARY KEY,
	value JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func NewPostgresPersister(ctx context.Context, url string) (*PostgresPersister, error) {
	pool, err := connectDB(ctx, url)
	if err != nil {
		return nil, err
	}
	p, err := newPostgresPersister(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func newPostgresPersister(ctx context.Context, pool pgxPool) (*PostgresPersister, error) {
	if _, err := pool.Exec(ctx, createAppStateTable); err != nil {
		return nil, fmt.Errorf("create app_state: %w", err)
	}
	return &PostgresPersister{pool: pool}, nil
}

func connectDB(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

func (p *PostgresPersister) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM app_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return value, nil
}

func (p *PostgresPersister) Save(ctx context.Context, key string, blob []byte) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO app_state (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, string(blob))
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (p *PostgresPersister) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresPersister) Close() error {
	p.pool.Close()
	return nil
}
