package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultOpTimeout       = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

// Store оборачивает SQL-подключение к PostgreSQL.
type Store struct {
	db        *sql.DB
	opTimeout time.Duration
}

type storeOptions struct {
	maxOpenConns int
	maxIdleConns int
	opTimeout    time.Duration
}

// Option настраивает подключение.
type Option func(*storeOptions)

// WithPoolSize ограничивает размер пула соединений.
func WithPoolSize(maxOpen, maxIdle int) Option {
	return func(o *storeOptions) {
		if maxOpen > 0 {
			o.maxOpenConns = maxOpen
		}
		if maxIdle > 0 {
			o.maxIdleConns = maxIdle
		}
	}
}

// WithOpTimeout задаёт верхнюю границу длительности одной операции репозитория.
func WithOpTimeout(d time.Duration) Option {
	return func(o *storeOptions) {
		if d > 0 {
			o.opTimeout = d
		}
	}
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	cfg := storeOptions{
		maxOpenConns: defaultMaxOpenConns,
		maxIdleConns: defaultMaxIdleConns,
		opTimeout:    defaultOpTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.maxOpenConns)
	db.SetMaxIdleConns(cfg.maxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db, opTimeout: cfg.opTimeout}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// OpTimeout возвращает таймаут операций репозитория.
func (s *Store) OpTimeout() time.Duration {
	if s == nil || s.opTimeout <= 0 {
		return defaultOpTimeout
	}
	return s.opTimeout
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
