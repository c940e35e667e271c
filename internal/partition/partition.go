// Package partition — лог одной партиции топика: упорядоченная append-only последовательность записей.
package partition

import (
	"fmt"
	"iter"
	"sync"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

// Partition — лог партиции в памяти. Оффсеты плотные и начинаются с нуля.
// Append и Read безопасны для конкурентного использования.
type Partition struct {
	topic      string
	id         int
	maxRecords int

	mu      sync.RWMutex
	records []domain.Record
}

// New создаёт пустую партицию. maxRecords <= 0 — без ограничения.
func New(topic string, id, maxRecords int) *Partition {
	return &Partition{topic: topic, id: id, maxRecords: maxRecords}
}

func (p *Partition) Topic() string { return p.topic }
func (p *Partition) ID() int       { return p.id }

// Append добавляет копию записи и возвращает её оффсет (= длина лога до добавления).
func (p *Partition) Append(rec domain.Record) (int64, error) {
	rec = rec.Clone()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.maxRecords > 0 && len(p.records) >= p.maxRecords {
		return 0, fmt.Errorf("%s/%d: %w", p.topic, p.id, domain.ErrStorageFull)
	}
	offset := int64(len(p.records))
	p.records = append(p.records, rec)
	return offset, nil
}

// Read возвращает ленивую конечную последовательность (offset, record) начиная с from.
// Граница последовательности фиксируется в момент вызова; повторный обход даёт те же элементы.
// max <= 0 — до high watermark; from за концом лога — пустая последовательность.
func (p *Partition) Read(from int64, max int) (iter.Seq2[int64, domain.Record], error) {
	if from < 0 {
		return nil, fmt.Errorf("%s/%d: from=%d: %w", p.topic, p.id, from, domain.ErrInvalidOffset)
	}

	end := p.HighWatermark()
	if max > 0 && from+int64(max) < end {
		end = from + int64(max)
	}

	return func(yield func(int64, domain.Record) bool) {
		for off := from; off < end; off++ {
			p.mu.RLock()
			rec := p.records[off].Clone()
			p.mu.RUnlock()

			if !yield(off, rec) {
				return
			}
		}
	}, nil
}

// HighWatermark — оффсет, который получит следующая запись.
func (p *Partition) HighWatermark() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return int64(len(p.records))
}

// EarliestOffset — самый ранний доступный оффсет. Лог не усекается, поэтому всегда 0.
func (p *Partition) EarliestOffset() int64 { return 0 }

func (p *Partition) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.records)
}
