package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool — создаёт пул соединений к Postgres на базе DSN.
// Если maxConns > 0 — переопределяем размер пула.
// В конце выполняем Ping для fail-fast.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	// Жизненный цикл соединений — помогает избегать переполнение пула соединений.
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if connErr := pool.Ping(ctx); connErr != nil {
		pool.Close()
		return nil, connErr
	}

	return pool, nil
}

// OpenOffsetStore — пул, миграции (при autoMigrate) и OffsetStore поверх пула.
// Возвращённый пул закрывает вызывающий.
func OpenOffsetStore(ctx context.Context, dsn string, maxConns int32, autoMigrate bool) (*OffsetStore, *pgxpool.Pool, error) {
	if autoMigrate {
		if err := Migrate(ctx, dsn); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	pool, err := NewPool(ctx, dsn, maxConns)
	if err != nil {
		return nil, nil, err
	}
	return NewOffsetStore(pool), pool, nil
}
