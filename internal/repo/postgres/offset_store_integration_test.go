//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	pgrepo "github.com/Gunvolt24/eventpipe/internal/repo/postgres"
	"github.com/Gunvolt24/eventpipe/internal/testutil"
)

func startStore(t *testing.T) (*pgrepo.OffsetStore, context.Context) {
	t.Helper()

	// длинный контекст — только на подъём контейнера
	ctxStart, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelStart()

	pg, stopPG, err := testutil.StartPostgresTC(ctxStart)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stopPG(context.Background()) })

	// миграции
	require.NoError(t, testutil.ApplyMigrationsGoose(pg.DSN))

	// короткий контекст — на сами БД-операции
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	pool, err := pgxpool.New(ctx, pg.DSN)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pgrepo.NewOffsetStore(pool), ctx
}

// 1) Монотонность и идемпотентность коммита
func TestOffsetStore_MonotonicCommit_TC(t *testing.T) {
	t.Parallel()

	store, ctx := startStore(t)

	_, ok, err := store.Get(ctx, "g1", "events", 0)
	require.NoError(t, err)
	require.False(t, ok)

	rec := domain.CommitRecord{Group: "g1", Topic: "events", Partition: 0, Offset: 10}
	require.NoError(t, store.Commit(ctx, rec))
	require.NoError(t, store.Commit(ctx, rec))

	rec.Offset = 4
	require.NoError(t, store.Commit(ctx, rec))

	off, ok, err := store.Get(ctx, "g1", "events", 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(10), off)

	rec.Offset = 11
	require.NoError(t, store.Commit(ctx, rec))
	off, _, err = store.Get(ctx, "g1", "events", 0)
	require.NoError(t, err)
	require.Equal(t, int64(11), off)

	rec.Offset = -1
	require.ErrorIs(t, store.Commit(ctx, rec), domain.ErrInvalidOffset)
}

// 2) Конкурентные коммиты оставляют максимум
func TestOffsetStore_ConcurrentCommits_TC(t *testing.T) {
	t.Parallel()

	store, ctx := startStore(t)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(off int64) {
			defer wg.Done()
			_ = store.Commit(ctx, domain.CommitRecord{Group: "g1", Topic: "events", Partition: 2, Offset: off})
		}(int64(i))
	}
	wg.Wait()

	off, ok, err := store.Get(ctx, "g1", "events", 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(20), off)

	_, ok, err = store.Get(ctx, "g2", "events", 2)
	require.NoError(t, err)
	require.False(t, ok)
}
