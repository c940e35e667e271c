// Package memory — OffsetStore в памяти процесса (для одного узла и тестов).
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
)

var _ ports.OffsetStore = (*OffsetStore)(nil)

// OffsetStore — group → topic → partition → следующий оффсет.
type OffsetStore struct {
	mu      sync.RWMutex
	offsets map[string]map[string]map[int]int64
}

func NewOffsetStore() *OffsetStore {
	return &OffsetStore{offsets: make(map[string]map[string]map[int]int64)}
}

func (s *OffsetStore) Get(ctx context.Context, group, topic string, partition int) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, domain.FromContext(err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if topics, ok := s.offsets[group]; ok {
		if partitions, ok := topics[topic]; ok {
			if offset, ok := partitions[partition]; ok {
				return offset, true, nil
			}
		}
	}
	return 0, false, nil
}

// Commit сохраняет оффсет, только если он больше сохранённого.
func (s *OffsetStore) Commit(ctx context.Context, rec domain.CommitRecord) error {
	if rec.Offset < 0 {
		return fmt.Errorf("commit %s/%s/%d offset=%d: %w", rec.Group, rec.Topic, rec.Partition, rec.Offset, domain.ErrInvalidOffset)
	}
	if err := ctx.Err(); err != nil {
		return domain.FromContext(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.offsets[rec.Group]; !ok {
		s.offsets[rec.Group] = make(map[string]map[int]int64)
	}
	if _, ok := s.offsets[rec.Group][rec.Topic]; !ok {
		s.offsets[rec.Group][rec.Topic] = make(map[int]int64)
	}
	if cur, ok := s.offsets[rec.Group][rec.Topic][rec.Partition]; ok && rec.Offset <= cur {
		return nil
	}
	s.offsets[rec.Group][rec.Topic][rec.Partition] = rec.Offset
	return nil
}
