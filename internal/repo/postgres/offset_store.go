package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
)

// Проверка, что OffsetStore удовлетворяет интерфейсу OffsetStore.
var _ ports.OffsetStore = (*OffsetStore)(nil)

// OffsetStore — закоммиченные оффсеты групп в Postgres (pgxpool).
type OffsetStore struct {
	pool *pgxpool.Pool
}

// NewOffsetStore - конструктор OffsetStore.
func NewOffsetStore(pool *pgxpool.Pool) *OffsetStore { return &OffsetStore{pool: pool} }

func (s *OffsetStore) Get(ctx context.Context, group, topic string, partition int) (int64, bool, error) {
	var off int64
	err := s.pool.QueryRow(ctx, `
		SELECT next_offset FROM consumer_offsets
		WHERE group_id = $1 AND topic = $2 AND partition_id = $3
	`, group, topic, partition).Scan(&off)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get offset %s/%s/%d: %w", group, topic, partition, classify(err))
	}
	return off, true, nil
}

// Commit — upsert, который обновляет строку только при росте оффсета:
// повтор и коммит меньшего значения ничего не меняют.
func (s *OffsetStore) Commit(ctx context.Context, rec domain.CommitRecord) error {
	if rec.Offset < 0 {
		return fmt.Errorf("commit %s/%s/%d offset=%d: %w", rec.Group, rec.Topic, rec.Partition, rec.Offset, domain.ErrInvalidOffset)
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO consumer_offsets (group_id, topic, partition_id, next_offset, committed_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (group_id, topic, partition_id) DO UPDATE SET
			next_offset = EXCLUDED.next_offset,
			committed_at = EXCLUDED.committed_at
		WHERE consumer_offsets.next_offset < EXCLUDED.next_offset
	`, rec.Group, rec.Topic, rec.Partition, rec.Offset); err != nil {
		return fmt.Errorf("commit offset %s/%s/%d: %w", rec.Group, rec.Topic, rec.Partition, classify(err))
	}
	return nil
}

// classify — таймауты и сетевые сбои Postgres считаются временными.
func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	case pgconn.SafeToRetry(err), errors.As(err, &netErr):
		return domain.Transient(err)
	default:
		return err
	}
}
