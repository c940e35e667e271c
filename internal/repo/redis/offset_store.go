// Package redis — OffsetStore поверх Redis: HASH на группу, поле "topic:partition".
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
)

var _ ports.OffsetStore = (*OffsetStore)(nil)

// commitScript — атомарный монотонный HSET: значение пишется, только если оно больше текущего.
// Возвращает 1, если значение обновлено, иначе 0.
var commitScript = goredis.NewScript(`
local cur = redis.call('HGET', KEYS[1], ARGV[1])
if cur and tonumber(cur) >= tonumber(ARGV[2]) then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return 1
`)

// OffsetStore — закоммиченные оффсеты в Redis.
type OffsetStore struct {
	client    goredis.UniversalClient
	keyPrefix string
}

// Options — параметры подключения.
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Open подключается к Redis и проверяет соединение.
func Open(ctx context.Context, opt Options) (*OffsetStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewOffsetStore(client, opt.KeyPrefix), nil
}

func NewOffsetStore(client goredis.UniversalClient, keyPrefix string) *OffsetStore {
	if keyPrefix == "" {
		keyPrefix = "eventpipe:"
	}
	return &OffsetStore{client: client, keyPrefix: keyPrefix}
}

func (s *OffsetStore) hashKey(group string) string {
	return fmt.Sprintf("%scommit:%s", s.keyPrefix, group)
}

func field(topic string, partition int) string {
	return fmt.Sprintf("%s:%d", topic, partition)
}

func (s *OffsetStore) Get(ctx context.Context, group, topic string, partition int) (int64, bool, error) {
	val, err := s.client.HGet(ctx, s.hashKey(group), field(topic, partition)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get offset %s/%s/%d: %w", group, topic, partition, classify(err))
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("get offset %s/%s/%d: bad value %q: %w", group, topic, partition, val, err)
	}
	return n, true, nil
}

func (s *OffsetStore) Commit(ctx context.Context, rec domain.CommitRecord) error {
	if rec.Offset < 0 {
		return fmt.Errorf("commit %s/%s/%d offset=%d: %w", rec.Group, rec.Topic, rec.Partition, rec.Offset, domain.ErrInvalidOffset)
	}
	keys := []string{s.hashKey(rec.Group)}
	if err := commitScript.Run(ctx, s.client, keys, field(rec.Topic, rec.Partition), rec.Offset).Err(); err != nil {
		return fmt.Errorf("commit offset %s/%s/%d: %w", rec.Group, rec.Topic, rec.Partition, classify(err))
	}
	return nil
}

func (s *OffsetStore) Close() error { return s.client.Close() }

func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	case errors.As(err, &netErr), errors.Is(err, goredis.ErrClosed):
		return domain.Transient(err)
	default:
		return err
	}
}
